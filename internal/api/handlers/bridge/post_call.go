package bridge

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/types"
	"github/chapool/hw-bridge/internal/util"
)

func PostCallRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Bridge.POST("/call", postCallHandler(s))
}

// Delivers one call envelope to the isolated context and returns its result envelope.
// Keyring failures are reported as rejected envelopes with status 200; only malformed
// requests produce HTTP errors.
func postCallHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostBridgeCallPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		env := bus.CallEnvelope{
			Type:      keyring.Type(swag.StringValue(body.Type)),
			Method:    swag.StringValue(body.Method),
			Args:      body.Args,
			PrevState: keyring.State(body.PrevState),
			PromiseID: swag.StringValue(body.PromiseID),
		}

		result := s.Bridge.Process(ctx, env)

		return util.ValidateAndReturn(c, http.StatusOK, &types.BridgeResultEnvelope{
			PromiseID: swag.String(result.PromiseID),
			Result:    swag.String(string(result.Result)),
			Data:      result.Data,
		})
	}
}
