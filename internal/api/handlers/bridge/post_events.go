package bridge

import (
	"errors"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/httperrors"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/types"
	"github/chapool/hw-bridge/internal/util"
)

func PostEventsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Bridge.POST("/events", postEventsHandler(s))
}

// Accepts a lifecycle event. Events outside the lifecycle vocabulary are rejected.
func postEventsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostBridgeEventPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		msg := bus.EventMessage{
			Event:   bus.Event(swag.StringValue(body.Event)),
			Target:  bus.Target(body.Target),
			Payload: body.Payload,
		}
		if msg.Target == "" {
			msg.Target = bus.TargetExtension
		}

		if err := s.Events.Publish(ctx, msg); err != nil {
			if errors.Is(err, bus.ErrUnknownEvent) {
				log.Debug().Err(err).Msg("Rejecting unknown lifecycle event")
				return httperrors.ErrBadRequestUnknownEvent
			}

			log.Error().Err(err).Msg("Failed to publish lifecycle event")
			return err
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.PostBridgeEventResponse{
			BackgroundReady: swag.Bool(s.Events.IsBackgroundReady()),
			Event:           swag.String(string(msg.Event)),
			Target:          swag.String(string(msg.Target)),
		})
	}
}
