package state

import (
	"github.com/pkg/errors"
	"github/chapool/hw-bridge/internal/bridge/keyring"
)

// Synchronizer brackets every call with a restore of the caller's state and a
// snapshot of the resulting state. The keyring instance is never trusted to
// carry state from one call to the next.
type Synchronizer struct{}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Restore pushes prev into kr. It must complete before any method runs.
func (s *Synchronizer) Restore(kr keyring.Keyring, prev keyring.State) error {
	if err := kr.Deserialize(prev.Clone()); err != nil {
		return errors.Wrapf(err, "failed to restore %s keyring state", kr.Type())
	}

	return nil
}

// Snapshot pulls the post-call state out of kr.
func (s *Synchronizer) Snapshot(kr keyring.Keyring) (keyring.State, error) {
	st, err := kr.Serialize()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to snapshot %s keyring state", kr.Type())
	}

	return st.Clone(), nil
}
