package common

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/device"
	"github/chapool/hw-bridge/internal/util"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Health check
// Returns an overview of the bridge: every keyring type with its initialization,
// lock and device connection state, plus whether the background process announced
// readiness. Requires the management secret.
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ProbeReadinessTimeout)
		defer cancel()

		str, healthy := probeBridge(ctx, s)

		if !healthy {
			util.LogFromEchoContext(c).Warn().Msg("Health probe failed")
			return c.String(521, str)
		}

		return c.String(http.StatusOK, str)
	}
}

func probeBridge(ctx context.Context, s *api.Server) (string, bool) {
	var b strings.Builder

	if !s.Ready() {
		b.WriteString("Ready: server not fully initialized.\n")
		return b.String(), false
	}

	b.WriteString("Ready: OK.\n")
	fmt.Fprintf(&b, "Background ready: %t.\n", s.Events.IsBackgroundReady())

	for _, t := range s.Bridge.Registry.List() {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(&b, "Probe aborted: %v.\n", err)
			return b.String(), false
		}

		b.WriteString(describeKeyring(s, t))
	}

	if s.Bridge.Client.Pending() > 0 {
		fmt.Fprintf(&b, "Pending calls: %d.\n", s.Bridge.Client.Pending())
	}

	return b.String(), true
}

func describeKeyring(s *api.Server, t keyring.Type) string {
	kr, err := s.Bridge.Registry.Get(t)
	if err != nil {
		return fmt.Sprintf("Keyring %s: %v.\n", t, err)
	}

	connection := "unknown"
	if st, ok := kr.(device.Status); ok {
		connection = st.Status()
	}

	return fmt.Sprintf("Keyring %s: initialized=%t busy=%t device=%s.\n",
		t,
		s.Bridge.Tracker.IsInitialized(t),
		s.Bridge.Dispatcher.Locked(t),
		connection,
	)
}
