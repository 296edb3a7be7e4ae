package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github/chapool/hw-bridge/internal/util"
)

type LoggerConfig struct {
	Skipper           middleware.Skipper
	Level             zerolog.Level
	LogRequestHeader  bool
	LogResponseHeader bool
}

var DefaultLoggerConfig = LoggerConfig{
	Skipper: middleware.DefaultSkipper,
	Level:   zerolog.DebugLevel,
}

func Logger() echo.MiddlewareFunc {
	return LoggerWithConfig(DefaultLoggerConfig)
}

// LoggerWithConfig attaches a request-scoped logger to the request context and logs
// every completed request at the configured level.
func LoggerWithConfig(config LoggerConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultLoggerConfig.Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			l := log.With().Str("id", id).Logger()
			c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			e := l.WithLevel(config.Level).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Str("origin", req.Header.Get(echo.HeaderOrigin)).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("duration", time.Since(start))

			if config.LogRequestHeader {
				e = e.Dict("req_header", headerDict(req.Header))
			}
			if config.LogResponseHeader {
				e = e.Dict("res_header", headerDict(res.Header()))
			}

			e.Msg("Request")

			return nil
		}
	}
}

func headerDict(h http.Header) *zerolog.Event {
	dict := zerolog.Dict()
	for k := range h {
		dict = dict.Str(k, h.Get(k))
	}
	return dict
}
