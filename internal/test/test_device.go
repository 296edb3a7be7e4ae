package test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/device"
)

const (
	DevMnemonic = config.DevelopmentMnemonic

	// First two accounts of DevMnemonic on m/44'/60'/0'/0.
	DevAccount0 = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	DevAccount1 = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// Device returns the controller of the simulated device registered for t.
//
//nolint:ireturn
func Device(tb testing.TB, s *api.Server, t keyring.Type) device.Controller {
	tb.Helper()

	kr, err := s.Bridge.Registry.Get(t)
	require.NoError(tb, err)

	ctrl, ok := kr.(device.Controller)
	require.True(tb, ok, "keyring %s is not a simulated device", t)

	return ctrl
}

// WithDisconnectedDevice unplugs the device of type t for the duration of closure.
func WithDisconnectedDevice(tb testing.TB, s *api.Server, t keyring.Type, closure func()) {
	tb.Helper()

	ctrl := Device(tb, s, t)
	ctrl.SetConnected(false)
	defer ctrl.SetConnected(true)

	closure()
}
