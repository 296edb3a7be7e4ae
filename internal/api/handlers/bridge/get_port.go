package bridge

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/bridge/port"
	"github/chapool/hw-bridge/internal/util"
)

// cross-origin browser pages are refused by the default same-origin check
var upgrader = websocket.Upgrader{}

func GetPortRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Bridge.GET("/port", getPortHandler(s))
}

// Upgrades to a websocket carrying call envelopes in and result envelopes out
// for as long as the connection stays open.
func getPortHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := util.LogFromEchoContext(c)

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			// the upgrader already replied with an HTTP error
			log.Debug().Err(err).Msg("Failed to upgrade port connection")
			return nil
		}

		p := port.New(conn, *log)
		log.Debug().Msg("Port connected")

		if err := p.Serve(c.Request().Context(), s.Bridge.Dispatcher); err != nil {
			log.Warn().Err(err).Msg("Port closed with error")
			return nil
		}

		log.Debug().Msg("Port disconnected")
		return nil
	}
}
