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

func PostIframeRoute(s *api.Server) *echo.Route {
	return s.Router.Iframe.POST("", postIframeHandler(s))
}

// Accepts a message posted by a device-vendor iframe and resolves the isolated
// context it belongs to. The origin has already been checked by the iframe group.
func postIframeHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body types.PostIframeMessagePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		origin := c.Request().Header.Get(echo.HeaderOrigin)
		target, ok := bus.TargetForOrigin(origin)
		if !ok {
			target = bus.TargetExtension
		}

		util.LogFromEchoContext(c).Debug().
			Str("origin", origin).
			Str("target", string(target)).
			Msg("Iframe message accepted")

		return util.ValidateAndReturn(c, http.StatusOK, &types.PostIframeMessageResponse{
			Origin: swag.String(origin),
			Target: swag.String(string(target)),
		})
	}
}
