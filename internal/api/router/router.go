package router

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/handlers"
	"github/chapool/hw-bridge/internal/api/middleware"
)

const (
	managementSecretQuery = "mgmt-secret"
	readyPath             = "/-/ready"
)

func Init(s *api.Server) error {
	s.Echo = echo.New()

	s.Echo.Debug = s.Config.Echo.Debug
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = HTTPErrorHandler(s.Config.Echo.HideInternalServerErrorDetails)

	// ---
	// General middleware
	if s.Config.Echo.EnableTrailingSlashMiddleware {
		s.Echo.Pre(echoMiddleware.RemoveTrailingSlash())
	} else {
		log.Warn().Msg("Disabling trailing slash middleware due to environment config")
	}

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(echoMiddleware.Recover())
	} else {
		log.Warn().Msg("Disabling recover middleware due to environment config")
	}

	if s.Config.Echo.EnableSecureMiddleware {
		s.Echo.Use(echoMiddleware.SecureWithConfig(echoMiddleware.SecureConfig{
			XSSProtection:      "1; mode=block",
			ContentTypeNosniff: "nosniff",
			XFrameOptions:      "SAMEORIGIN",
			ReferrerPolicy:     "no-referrer",
		}))
	} else {
		log.Warn().Msg("Disabling secure middleware due to environment config")
	}

	if s.Config.Echo.EnableRequestIDMiddleware {
		s.Echo.Use(echoMiddleware.RequestID())
	} else {
		log.Warn().Msg("Disabling request ID middleware due to environment config")
	}

	if s.Config.Echo.EnableLoggerMiddleware {
		s.Echo.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Level:             s.Config.Logger.RequestLevel,
			LogRequestHeader:  s.Config.Logger.LogRequestHeader,
			LogResponseHeader: s.Config.Logger.LogResponseHeader,
		}))
	} else {
		log.Warn().Msg("Disabling logger middleware due to environment config")
	}

	if s.Config.Logger.LogRequestBody || s.Config.Logger.LogResponseBody {
		s.Echo.Use(middleware.BodyDump(s.Config.Logger.LogRequestBody, s.Config.Logger.LogResponseBody))
	}

	if s.Config.Echo.EnableCORSMiddleware {
		s.Echo.Use(echoMiddleware.CORS())
	} else {
		log.Warn().Msg("Disabling CORS middleware due to environment config")
	}

	if s.Config.Management.EnableMetrics {
		s.Echo.Use(s.Metrics.Middleware())
	}

	managementAuth := echoMiddleware.KeyAuthWithConfig(echoMiddleware.KeyAuthConfig{
		KeyLookup: "query:" + managementSecretQuery,
		Skipper: func(c echo.Context) bool {
			return c.Path() == readyPath
		},
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.Config.Management.Secret)) == 1, nil
		},
		ErrorHandler: func(_ error, _ echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized)
		},
	})

	s.Router = &api.Router{
		Routes: nil, // will be populated by handlers.AttachAllRoutes(s)

		// Unsecured base group available at /**
		Root: s.Echo.Group(""),

		// Management endpoints, secured by the management secret (except the ready probe)
		Management: s.Echo.Group("/-", managementAuth),

		// Bridge transport for call envelopes and lifecycle events
		APIV1Bridge: s.Echo.Group("/api/v1/bridge"),

		// Messages posted by device-vendor iframes, accepted only from trusted origins
		Iframe: s.Echo.Group("/api/v1/bridge/iframe", middleware.TrustedOrigin(s.Config.Bridge.EnforceIframeOrigin)),
	}

	if s.Config.Management.EnableMetrics {
		s.Router.Routes = append(s.Router.Routes, s.Echo.GET(s.Config.Management.MetricsPath, s.Metrics.Handler(), managementAuth))
	}

	// ---
	// Finally attach our handlers
	handlers.AttachAllRoutes(s)

	return nil
}
