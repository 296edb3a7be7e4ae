package device

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/seed"
)

const ledgerAppName = "Ethereum"

// Ledger needs its app opened with makeApp before any key operation.
type Ledger struct {
	*simulator
	appOpen bool
}

func NewLedger(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) *Ledger {
	settings.Type = keyring.TypeLedger
	return &Ledger{simulator: newSimulator(settings, seeds, events, log)}
}

// SetConnected closes the app when the device goes away.
func (l *Ledger) SetConnected(connected bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.connected = connected
	if !connected {
		l.appOpen = false
	}
}

func (l *Ledger) Methods() map[string]keyring.Method {
	unlock := l.ready(l.appReadyLocked, l.unlockLocked)

	return map[string]keyring.Method{
		"makeApp":             l.makeApp,
		"updateTransport":     l.guard(l.updateTransport),
		"unlock":              unlock,
		"getPublicKey":        unlock,
		"signTransaction":     l.ready(l.appReadyLocked, l.signTransactionLocked),
		"signPersonalMessage": l.ready(l.appReadyLocked, l.signPersonalLocked),
		"signTypedData":       l.ready(l.appReadyLocked, l.signTypedDataLocked),
	}
}

func (l *Ledger) appReadyLocked() error {
	if err := l.readyLocked(); err != nil {
		return err
	}
	if !l.appOpen {
		return bridgeerr.NewDeviceStatusError(l.kt.String(), bridgeerr.StatusAppClosed, "Ethereum app not open (0x650f)")
	}
	return nil
}

func (l *Ledger) makeApp(ctx context.Context, _ []any) (any, error) {
	l.mu.Lock()
	if err := l.openLocked(); err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.appOpen = true
	l.state.AppName = ledgerAppName
	l.mu.Unlock()

	l.log.Debug().Msg("Ledger app opened")
	l.publish(ctx, bus.EventLedgerDeviceConnect)
	return nil, nil
}

func (l *Ledger) updateTransport(_ context.Context, args []any) (any, error) {
	if len(args) == 0 {
		return nil, errors.Wrap(ErrInvalidArgs, "missing transport type")
	}

	transport, ok := args[0].(string)
	if !ok || transport == "" {
		return nil, errors.Wrapf(ErrInvalidArgs, "transport type must be a non-empty string, got %v", args[0])
	}

	l.state.Transport = transport
	return true, nil
}
