package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	CTXKeyLogger contextKey = "logger"
)

// LogFromContext returns the request-scoped logger, falling back to the global one.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(CTXKeyLogger).(zerolog.Logger); ok {
		return &l
	}

	l := log.With().Logger()
	return &l
}

// WithLogger stores l in ctx for LogFromContext.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, CTXKeyLogger, l)
}

// LogFromEchoContext returns the logger attached to the request of c.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}
