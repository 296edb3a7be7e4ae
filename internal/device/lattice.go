package device

import (
	"context"

	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/seed"
)

const messageLatticeNotPaired = "Lattice is not paired"

// Lattice pairs once on init; the pairing lives with the device, not in state.
type Lattice struct {
	*simulator
	paired bool
}

func NewLattice(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) *Lattice {
	settings.Type = keyring.TypeLattice
	return &Lattice{simulator: newSimulator(settings, seeds, events, log)}
}

func (l *Lattice) Init(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.openLocked(); err != nil {
		return err
	}
	l.paired = true
	l.log.Debug().Msg("Lattice paired")
	return nil
}

func (l *Lattice) Paired() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paired
}

func (l *Lattice) Methods() map[string]keyring.Method {
	return map[string]keyring.Method{
		"getPublicKey":        l.ready(l.readyLocked, l.publicKeyLocked),
		"signTransaction":     l.ready(l.pairedLocked, l.signTransactionLocked),
		"signPersonalMessage": l.ready(l.pairedLocked, l.signPersonalLocked),
	}
}

// pairedLocked guards signing: the device refuses requests from an unpaired app.
func (l *Lattice) pairedLocked() error {
	if err := l.readyLocked(); err != nil {
		return err
	}
	if !l.paired {
		return bridgeerr.NewDeviceTransportError(l.kt.String(), messageLatticeNotPaired)
	}
	return nil
}
