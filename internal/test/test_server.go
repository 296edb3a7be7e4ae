package test

import (
	"context"
	"testing"

	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/router"
	"github/chapool/hw-bridge/internal/config"
)

// WithTestServer returns a fully configured server with simulated devices of the
// default roster, seeded from the development mnemonic.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	defaultConfig := config.DefaultServiceConfigFromEnv()
	WithTestServerConfigurable(t, defaultConfig, closure)
}

// WithTestServerConfigurable returns a fully configured server, allowing for configuration using the provided server config.
func WithTestServerConfigurable(t *testing.T, config config.Server, closure func(s *api.Server)) {
	t.Helper()

	s := NewTestServer(t, config)

	closure(s)

	// echo is not started in tests, the bridge still holds transports
	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.Context()), config.Management.ProbeReadinessTimeout)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("Failed to shutdown server: %v", errs)
	}
}

// NewTestServer builds and routes a server without starting echo.
func NewTestServer(t *testing.T, config config.Server) *api.Server {
	t.Helper()

	// development mnemonic regardless of the environment, tests assert on derived addresses
	config.Bridge.Mnemonic = DevMnemonic
	config.Bridge.Passphrase = ""

	s, err := api.InitNewServer(config)
	if err != nil {
		t.Fatalf("Failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("Failed to init router: %v", err)
	}

	return s
}
