package middleware

import (
	"encoding/json"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github/chapool/hw-bridge/internal/util"
)

// BodyDump logs request and/or response bodies through the request-scoped logger.
// Bodies may contain signed transactions, so this is meant for development only.
func BodyDump(logRequest bool, logResponse bool) echo.MiddlewareFunc {
	return middleware.BodyDump(func(c echo.Context, reqBody []byte, resBody []byte) {
		e := util.LogFromEchoContext(c).Debug()
		if logRequest {
			e = bodyField(e, "req_body", reqBody)
		}
		if logResponse {
			e = bodyField(e, "res_body", resBody)
		}
		e.Msg("Body dump")
	})
}

func bodyField(e *zerolog.Event, key string, body []byte) *zerolog.Event {
	if len(body) > 0 && json.Valid(body) {
		return e.RawJSON(key, body)
	}
	return e.Bytes(key, body)
}
