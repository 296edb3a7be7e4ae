package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/handlers/bridge"
	"github/chapool/hw-bridge/internal/api/handlers/common"
)

func AttachAllRoutes(s *api.Server) {
	// attach our routes
	s.Router.Routes = append(s.Router.Routes, []*echo.Route{
		bridge.GetKeyringsRoute(s),
		bridge.GetPortRoute(s),
		bridge.PostCallRoute(s),
		bridge.PostEventsRoute(s),
		bridge.PostIframeRoute(s),
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		common.GetVersionRoute(s),
	}...)
}
