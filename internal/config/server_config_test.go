package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	raw, err := json.MarshalIndent(cfg, "", "  ")
	require.NoError(t, err)

	assert.NotContains(t, string(raw), config.DevelopmentMnemonic)
	assert.NotContains(t, string(raw), "Mnemonic")
}

func TestDefaults(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, ":8080", cfg.Echo.ListenAddress)
	assert.Equal(t, bus.ContextLoadTimeout, cfg.Bridge.BoundaryTimeout)
	assert.True(t, cfg.Bridge.EnforceIframeOrigin)
	assert.Equal(t, config.DevelopmentMnemonic, cfg.Bridge.Mnemonic)
	assert.Len(t, cfg.Bridge.Roster, 4)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BRIDGE_ECHO_LISTEN_ADDRESS", ":9999")
	t.Setenv("BRIDGE_BOUNDARY_TIMEOUT", "250ms")
	t.Setenv("BRIDGE_LOGGER_LEVEL", "warn")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, ":9999", cfg.Echo.ListenAddress)
	assert.Equal(t, 250*time.Millisecond, cfg.Bridge.BoundaryTimeout)
	assert.Equal(t, zerolog.WarnLevel, cfg.Logger.Level)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("BRIDGE_ECHO_BASE_URL=http://bridge.local\nBRIDGE_ECHO_LISTEN_ADDRESS=:7000\nOTHER=ignored\n"), 0o600))

	t.Setenv("BRIDGE_DOTENV_FILE", path)
	t.Setenv("BRIDGE_ECHO_LISTEN_ADDRESS", ":7001")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, "http://bridge.local", cfg.Echo.BaseURL)
	// the process environment wins over the dotenv file
	assert.Equal(t, ":7001", cfg.Echo.ListenAddress)
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[device]]
type = "ledger"
connected = true
hd_path = "m/44'/60'/1'/0"

[[device]]
type = "trezor"
locked = true
`), 0o600))

	roster, err := config.LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, keyring.TypeLedger, roster[0].Type)
	assert.True(t, roster[0].Connected)
	assert.Equal(t, "m/44'/60'/1'/0", roster[0].HDPath)
	assert.Equal(t, keyring.TypeTrezor, roster[1].Type)
	assert.False(t, roster[1].Connected)
	assert.True(t, roster[1].Locked)

	t.Setenv("BRIDGE_ROSTER_FILE", path)
	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, roster, cfg.Bridge.Roster)
}

func TestLoadRosterErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := config.LoadRoster(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("[[device]]\ntype = \"qr\"\ncolor = \"red\"\n"), 0o600))
	_, err = config.LoadRoster(unknown)
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o600))
	_, err = config.LoadRoster(empty)
	require.Error(t, err)
}

func TestGetFormattedBuildArgs(t *testing.T) {
	assert.Contains(t, config.GetFormattedBuildArgs(), config.ModuleName)
}
