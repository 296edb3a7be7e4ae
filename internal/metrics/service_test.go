package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/metrics"
)

func TestObservations(t *testing.T) {
	svc, err := metrics.New(config.DefaultServiceConfigFromEnv())
	require.NoError(t, err)

	svc.ObserveCall(keyring.TypeLedger, "unlock", bus.ResultResolve, 10*time.Millisecond)
	svc.ObserveCall(keyring.TypeLedger, "unlock", bus.ResultReject, 10*time.Millisecond)
	svc.ObserveCall(keyring.TypeLedger, "unlock", bus.ResultResolve, 10*time.Millisecond)
	svc.ObserveInit(keyring.TypeTrezor)
	svc.ObserveLockWait(keyring.TypeLedger, time.Millisecond)

	expected := `
# HELP bridge_calls_total Bridge calls by keyring type, method and result.
# TYPE bridge_calls_total counter
bridge_calls_total{method="unlock",result="reject",type="ledger"} 1
bridge_calls_total{method="unlock",result="resolve",type="ledger"} 2
# HELP bridge_inits_total Keyring initializations by keyring type.
# TYPE bridge_inits_total counter
bridge_inits_total{type="trezor"} 1
`
	require.NoError(t, testutil.GatherAndCompare(svc.Registry(), strings.NewReader(expected), "bridge_calls_total", "bridge_inits_total"))
	count, err := testutil.GatherAndCount(svc.Registry(), "bridge_lock_wait_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndependentRegistries(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	a, err := metrics.New(cfg)
	require.NoError(t, err)
	b, err := metrics.New(cfg)
	require.NoError(t, err)

	a.ObserveInit(keyring.TypeQR)
	count, err := testutil.GatherAndCount(a.Registry(), "bridge_inits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(b.Registry(), "bridge_inits_total")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHandler(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	svc, err := metrics.New(cfg)
	require.NoError(t, err)
	svc.ObserveInit(keyring.TypeLattice)

	e := echo.New()
	e.Use(svc.Middleware())
	e.GET(cfg.Management.MetricsPath, svc.Handler())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, cfg.Management.MetricsPath, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bridge_inits_total{type="lattice"} 1`)
}
