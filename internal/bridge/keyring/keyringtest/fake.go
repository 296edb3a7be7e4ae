// Package keyringtest provides an in-memory keyring used by bridge tests.
package keyringtest

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Fake is a keyring whose state is a free-form JSON object and whose methods are supplied by the test.
type Fake struct {
	KeyringType keyring.Type
	Handlers    map[string]keyring.Method
	// InitFunc, when set, makes Fake behave as an Initializer through WithInit.
	InitFunc func(ctx context.Context) error

	mu           sync.Mutex
	state        keyring.State
	InitCalls    atomic.Int32
	Restores     atomic.Int32
	Snapshots    atomic.Int32
	Invocations  atomic.Int32
	DeserializeE error
	SerializeE   error
}

// NewFake creates a Fake without an init capability.
func NewFake(t keyring.Type, handlers map[string]keyring.Method) *Fake {
	if handlers == nil {
		handlers = map[string]keyring.Method{}
	}
	return &Fake{KeyringType: t, Handlers: handlers}
}

func (f *Fake) Type() keyring.Type {
	return f.KeyringType
}

func (f *Fake) Serialize() (keyring.State, error) {
	f.Snapshots.Add(1)
	if f.SerializeE != nil {
		return nil, f.SerializeE
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone(), nil
}

func (f *Fake) Deserialize(state keyring.State) error {
	f.Restores.Add(1)
	if f.DeserializeE != nil {
		return f.DeserializeE
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state.Clone()
	return nil
}

// SetField mutates one top-level field of the working state.
func (f *Fake) SetField(key string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields := map[string]any{}
	if !f.state.IsEmpty() {
		if err := json.Unmarshal(f.state, &fields); err != nil {
			return errors.Wrap(err, "failed to decode fake state")
		}
	}
	fields[key] = value

	raw, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(err, "failed to encode fake state")
	}
	f.state = raw
	return nil
}

func (f *Fake) Methods() map[string]keyring.Method {
	wrapped := make(map[string]keyring.Method, len(f.Handlers))
	for name, h := range f.Handlers {
		wrapped[name] = func(ctx context.Context, args []any) (any, error) {
			f.Invocations.Add(1)
			return h(ctx, args)
		}
	}
	return wrapped
}

// InitializingFake is a Fake with an init capability.
type InitializingFake struct {
	*Fake
}

// WithInit returns a keyring exposing Init backed by f.InitFunc.
func (f *Fake) WithInit() *InitializingFake {
	return &InitializingFake{Fake: f}
}

func (f *InitializingFake) Init(ctx context.Context) error {
	f.InitCalls.Add(1)
	if f.InitFunc != nil {
		return f.InitFunc(ctx)
	}
	return nil
}
