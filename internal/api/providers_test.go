package api_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/device/hd"
	"github/chapool/hw-bridge/internal/device/keystore"
	"github/chapool/hw-bridge/internal/test"
)

func TestNewSeedManagerFromMnemonic(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Bridge.Mnemonic = test.DevMnemonic
	cfg.Bridge.Passphrase = ""
	cfg.Bridge.KeystoreFile = ""

	seeds, err := api.NewSeedManager(cfg)
	require.NoError(t, err)

	account, err := hd.Derive(seeds.Seed(), hd.AccountPath(hd.DefaultBasePath, 0))
	require.NoError(t, err)
	assert.Equal(t, test.DevAccount0, account.Address.Hex())
}

func TestNewSeedManagerFromKeystore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	f, err := keystore.Encrypt(test.DevMnemonic, "", keystore.LightScryptParams())
	require.NoError(t, err)
	require.NoError(t, f.Save(path))

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Bridge.Mnemonic = "ignored when a keystore is configured"
	cfg.Bridge.Passphrase = ""
	cfg.Bridge.KeystoreFile = path

	seeds, err := api.NewSeedManager(cfg)
	require.NoError(t, err)

	account, err := hd.Derive(seeds.Seed(), hd.AccountPath(hd.DefaultBasePath, 0))
	require.NoError(t, err)
	assert.Equal(t, test.DevAccount0, account.Address.Hex())

	cfg.Bridge.Passphrase = "wrong"
	_, err = api.NewSeedManager(cfg)
	require.ErrorIs(t, err, keystore.ErrInvalidPassword)
}

func TestNewSeedManagerEmptyMnemonic(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Bridge.Mnemonic = ""
	cfg.Bridge.KeystoreFile = ""

	_, err := api.NewSeedManager(cfg)
	require.Error(t, err)
}
