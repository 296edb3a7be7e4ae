package common_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/test"
)

func TestGetHealthyRequiresSecret(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, http.StatusUnauthorized, res.Result().StatusCode)

		res = test.PerformRequestWithParams(t, s, "GET", "/-/healthy", nil, nil, map[string]string{"mgmt-secret": "wrong"})
		require.Equal(t, http.StatusUnauthorized, res.Result().StatusCode)
	})
}

func TestGetHealthy(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequestWithParams(t, s, "GET", "/-/healthy", nil, nil, map[string]string{"mgmt-secret": s.Config.Management.Secret})
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		body := res.Body.String()
		assert.Contains(t, body, "Ready: OK.\n")
		assert.Contains(t, body, "Background ready: false.\n")
		assert.Contains(t, body, "Keyring lattice: initialized=false busy=false device=connected.\n")
		assert.Contains(t, body, "Keyring ledger: initialized=false busy=false device=connected.\n")
		assert.Contains(t, body, "Keyring qr: initialized=false busy=false device=connected.\n")
		assert.Contains(t, body, "Keyring trezor: initialized=false busy=false device=connected.\n")
	})
}

func TestGetHealthyReportsDeviceConditions(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		test.Device(t, s, keyring.TypeQR).SetLocked(true)

		_, err := s.Bridge.Call(t.Context(), keyring.TypeTrezor, "getPublicKey", []any{"m/44'/60'/0'/0/0"}, nil)
		require.NoError(t, err)

		test.WithDisconnectedDevice(t, s, keyring.TypeLedger, func() {
			res := test.PerformRequestWithParams(t, s, "GET", "/-/healthy", nil, nil, map[string]string{"mgmt-secret": s.Config.Management.Secret})
			require.Equal(t, http.StatusOK, res.Result().StatusCode)

			body := res.Body.String()
			assert.Contains(t, body, "Keyring ledger: initialized=false busy=false device=disconnected.\n")
			assert.Contains(t, body, "Keyring qr: initialized=false busy=false device=locked.\n")
			assert.Contains(t, body, "Keyring trezor: initialized=true busy=false device=connected.\n")
		})
	})
}

func TestGetHealthyNotReady(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		s.Seeds.Clear()

		res := test.PerformRequestWithParams(t, s, "GET", "/-/healthy", nil, nil, map[string]string{"mgmt-secret": s.Config.Management.Secret})
		require.Equal(t, 521, res.Result().StatusCode)
		assert.Equal(t, "Ready: server not fully initialized.\n", res.Body.String())
	})
}
