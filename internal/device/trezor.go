package device

import (
	"context"

	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/seed"
)

const messageTrezorDisposed = "Trezor connection has been disposed"

type Trezor struct {
	*simulator
	disposed bool
}

func NewTrezor(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) *Trezor {
	settings.Type = keyring.TypeTrezor
	return &Trezor{simulator: newSimulator(settings, seeds, events, log)}
}

// Init opens the connection manager and announces the device.
func (t *Trezor) Init(ctx context.Context) error {
	t.mu.Lock()
	if err := t.openLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.disposed = false
	t.mu.Unlock()

	t.log.Debug().Msg("Trezor connection initialized")
	t.publish(ctx, bus.EventTrezorDeviceConnect)
	return nil
}

// Reopen opens the connection manager again after Dispose. It is a no-op
// while the connection is open.
func (t *Trezor) Reopen(ctx context.Context) error {
	t.mu.Lock()
	if !t.disposed {
		t.mu.Unlock()
		return nil
	}
	if err := t.openLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.disposed = false
	t.mu.Unlock()

	t.log.Debug().Msg("Trezor connection reopened")
	t.publish(ctx, bus.EventTrezorDeviceConnect)
	return nil
}

// Dispose releases the connection manager; later key operations fail until Reopen.
func (t *Trezor) Dispose(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disposed = true
	return nil
}

func (t *Trezor) Methods() map[string]keyring.Method {
	return map[string]keyring.Method{
		"dispose": func(ctx context.Context, _ []any) (any, error) {
			return nil, t.Dispose(ctx)
		},
		"getPublicKey":    t.ready(t.connectedLocked, t.publicKeyLocked),
		"signTransaction": t.ready(t.connectedLocked, t.signTransactionLocked),
		"signMessage":     t.ready(t.connectedLocked, t.signPersonalLocked),
		"signTypedData":   t.ready(t.connectedLocked, t.signTypedDataLocked),
	}
}

func (t *Trezor) connectedLocked() error {
	if t.disposed {
		return bridgeerr.NewDeviceTransportError(t.kt.String(), messageTrezorDisposed)
	}
	return t.readyLocked()
}
