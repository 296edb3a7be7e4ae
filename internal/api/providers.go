package api

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/hw-bridge/internal/bridge"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/device"
	"github/chapool/hw-bridge/internal/device/keystore"
	"github/chapool/hw-bridge/internal/device/seed"
	"github/chapool/hw-bridge/internal/metrics"
)

// PROVIDERS - https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewSeedManager derives the software seed backing every simulated device.
//
//nolint:ireturn // seed.Manager is the public surface of the seed package
func NewSeedManager(cfg config.Server) (seed.Manager, error) {
	mnemonic := cfg.Bridge.Mnemonic

	if cfg.Bridge.KeystoreFile != "" {
		f, err := keystore.Load(cfg.Bridge.KeystoreFile)
		if err != nil {
			return nil, err
		}

		mnemonic, err = f.Decrypt(cfg.Bridge.Passphrase)
		if err != nil {
			return nil, errors.Wrap(err, "failed to unlock device keystore")
		}

		log.Info().Str("keystore_id", f.ID).Msg("Device seed unlocked from keystore")
	}

	seeds, err := seed.NewManagerFromMnemonic(mnemonic, cfg.Bridge.Passphrase)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize device seed")
	}

	return seeds, nil
}

func NewEventLog() *bus.EventLog {
	return bus.NewEventLog(log.Logger, nil)
}

// NewBridge builds the simulated keyrings of the configured roster and the bridge serving them.
func NewBridge(cfg config.Server, seeds seed.Manager, events *bus.EventLog, m *metrics.Service) (*bridge.Bridge, error) {
	keyrings, err := device.NewKeyrings(cfg.Bridge.Roster, seeds, events, log.Logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build keyrings")
	}

	return bridge.New(keyrings, log.Logger,
		bridge.WithEventLog(events),
		bridge.WithObserver(m),
		bridge.WithInitObserver(m),
		bridge.WithBoundaryTimeout(cfg.Bridge.BoundaryTimeout),
	)
}
