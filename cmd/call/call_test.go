package call_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/cmd/call"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/test"
)

func TestPortURL(t *testing.T) {
	u, err := call.PortURL("http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/api/v1/bridge/port", u)

	u, err = call.PortURL("https://bridge.example/base/")
	require.NoError(t, err)
	assert.Equal(t, "wss://bridge.example/base/api/v1/bridge/port", u)

	_, err = call.PortURL("ftp://bridge.example")
	require.Error(t, err)
}

func TestCall(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		srv := httptest.NewServer(s.Echo)
		defer srv.Close()

		portURL, err := call.PortURL(srv.URL)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(portURL, "ws://"))

		res, err := call.Call(t.Context(), portURL, time.Second, keyring.TypeQR, "getPublicKey", []any{"m/44'/60'/0'/0/0"}, nil)
		require.NoError(t, err)
		require.True(t, res.Resolved(), res.ErrorMessage())

		res, err = call.Call(t.Context(), portURL, time.Second, keyring.Type("keepkey"), "unlock", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, `"keepkey": unknown keyring type`, res.ErrorMessage())
	})
}
