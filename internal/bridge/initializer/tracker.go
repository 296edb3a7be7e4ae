package initializer

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Tracker records which keyring types have completed their one-time setup.
// The set only grows; a type is marked before its Init runs so that a
// re-entrant call for the same type never triggers a second Init.
type Tracker struct {
	mu          sync.RWMutex
	initialized map[keyring.Type]struct{}
	log         zerolog.Logger
	onInit      func(keyring.Type)
}

// NewTracker creates an empty tracker. onInit, when non-nil, is called each time Init is actually invoked.
func NewTracker(log zerolog.Logger, onInit func(keyring.Type)) *Tracker {
	return &Tracker{
		initialized: make(map[keyring.Type]struct{}),
		log:         log.With().Str("component", "init_tracker").Logger(),
		onInit:      onInit,
	}
}

func (t *Tracker) IsInitialized(kt keyring.Type) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.initialized[kt]
	return ok
}

// MarkInitialized adds kt to the set. It reports whether kt was newly added.
func (t *Tracker) MarkInitialized(kt keyring.Type) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.initialized[kt]; ok {
		return false
	}
	t.initialized[kt] = struct{}{}
	return true
}

// Initialized returns the set contents in sorted order.
func (t *Tracker) Initialized() []keyring.Type {
	t.mu.RLock()
	defer t.mu.RUnlock()

	types := make([]keyring.Type, 0, len(t.initialized))
	for kt := range t.initialized {
		types = append(types, kt)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i] < types[j]
	})
	return types
}

// EnsureInitialized runs kr's Init at most once for kt.
// A failed Init is reported but the type stays marked: there is a single attempt per bridge lifetime.
func (t *Tracker) EnsureInitialized(ctx context.Context, kt keyring.Type, kr keyring.Keyring) error {
	if !t.MarkInitialized(kt) {
		return nil
	}

	initializer, ok := kr.(keyring.Initializer)
	if !ok {
		t.log.Debug().Str("keyring_type", kt.String()).Msg("Keyring has no init capability, marked initialized")
		return nil
	}

	t.log.Debug().Str("keyring_type", kt.String()).Msg("Initializing keyring")
	if t.onInit != nil {
		t.onInit(kt)
	}

	if err := initializer.Init(ctx); err != nil {
		t.log.Warn().Err(err).Str("keyring_type", kt.String()).Msg("Keyring init failed, will not be retried")
		return errors.Wrapf(err, "failed to initialize %s keyring", kt)
	}

	return nil
}

// MarkForInitCall handles a call whose method is itself "init": the type is
// marked without running Init, and the caller then runs the requested init
// method as the call itself so that Init happens exactly once.
// It reports whether the type was newly marked.
func (t *Tracker) MarkForInitCall(kt keyring.Type) bool {
	added := t.MarkInitialized(kt)
	if added && t.onInit != nil {
		t.onInit(kt)
	}
	return added
}
