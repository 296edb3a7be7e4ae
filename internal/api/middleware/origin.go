package middleware

import (
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api/httperrors"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/util"
)

// TrustedOrigin rejects requests whose Origin header is not exactly one of the trusted
// iframe origins. With enforce unset, untrusted origins are only logged.
func TrustedOrigin(enforce bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)

			if err := bus.ValidateOrigin(origin); err != nil {
				if enforce {
					util.LogFromEchoContext(c).Warn().Err(err).Msg("Dropping message from untrusted origin")
					return httperrors.ErrForbiddenUntrustedOrigin
				}

				util.LogFromEchoContext(c).Debug().Err(err).Msg("Accepting message from untrusted origin, enforcement disabled")
			}

			return next(c)
		}
	}
}
