package seed_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/device/seed"
)

const abandonMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestInitializeMatchesBIP39Vector(t *testing.T) {
	m, err := seed.NewManagerFromMnemonic(abandonMnemonic, "TREZOR")
	require.NoError(t, err)

	assert.True(t, m.IsInitialized())
	assert.Equal(t,
		"c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04",
		hex.EncodeToString(m.Seed()),
	)
}

func TestSeedIsACopy(t *testing.T) {
	m, err := seed.NewManagerFromMnemonic(abandonMnemonic, "")
	require.NoError(t, err)

	s := m.Seed()
	s[0] ^= 0xff
	assert.NotEqual(t, s, m.Seed())
}

func TestClear(t *testing.T) {
	m, err := seed.NewManagerFromMnemonic(abandonMnemonic, "")
	require.NoError(t, err)

	m.Clear()
	assert.False(t, m.IsInitialized())
	assert.Nil(t, m.Seed())
}

func TestEmptyMnemonic(t *testing.T) {
	m := seed.NewManager()
	require.ErrorIs(t, m.Initialize("  ", ""), seed.ErrEmptyMnemonic)
	assert.False(t, m.IsInitialized())
}
