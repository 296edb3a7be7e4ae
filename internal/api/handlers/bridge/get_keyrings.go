package bridge

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/types"
	"github/chapool/hw-bridge/internal/util"
)

func GetKeyringsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Bridge.GET("/keyrings", getKeyringsHandler(s))
}

func getKeyringsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		registered := s.Bridge.Registry.List()

		response := &types.GetKeyringsResponse{
			Keyrings: make([]*types.KeyringInfo, 0, len(registered)),
		}

		for _, t := range registered {
			response.Keyrings = append(response.Keyrings, &types.KeyringInfo{
				Type:        swag.String(t.String()),
				Target:      swag.String(string(bus.TargetFor(t))),
				Methods:     s.Bridge.Registry.MethodNames(t),
				Initialized: swag.Bool(s.Bridge.Tracker.IsInitialized(t)),
				Busy:        swag.Bool(s.Bridge.Dispatcher.Locked(t)),
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
