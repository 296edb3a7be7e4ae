package device

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device/seed"
)

// New builds the simulated keyring for settings.Type.
//
//nolint:ireturn
func New(settings Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) (keyring.Keyring, error) {
	switch settings.Type {
	case keyring.TypeLedger:
		return NewLedger(settings, seeds, events, log), nil
	case keyring.TypeTrezor:
		return NewTrezor(settings, seeds, events, log), nil
	case keyring.TypeLattice:
		return NewLattice(settings, seeds, events, log), nil
	case keyring.TypeQR:
		return NewQR(settings, seeds, events, log), nil
	default:
		return nil, bridgeerr.UnknownKeyringType(settings.Type.String())
	}
}

// NewKeyrings builds one keyring per roster entry.
func NewKeyrings(roster []Settings, seeds seed.Manager, events bus.EventPublisher, log zerolog.Logger) ([]keyring.Keyring, error) {
	keyrings := make([]keyring.Keyring, 0, len(roster))
	for i, settings := range roster {
		kr, err := New(settings, seeds, events, log)
		if err != nil {
			return nil, errors.Wrapf(err, "roster entry %d", i)
		}
		keyrings = append(keyrings, kr)
	}

	return keyrings, nil
}
