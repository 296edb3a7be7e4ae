package router

import (
	"errors"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api/httperrors"
	"github/chapool/hw-bridge/internal/types"
	"github/chapool/hw-bridge/internal/util"
)

// HTTPErrorHandler renders every error returned by a handler as a PublicHTTPError.
func HTTPErrorHandler(hideInternalDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var code int64
		var resp any
		log := util.LogFromEchoContext(c)

		var httpErr *httperrors.HTTPError
		var valErr *httperrors.HTTPValidationError
		var echoErr *echo.HTTPError

		switch {
		case errors.As(err, &httpErr):
			code = swag.Int64Value(httpErr.Code)
			resp = httpErr

			if httpErr.Internal != nil {
				log.Debug().Err(httpErr.Internal).Msg("HTTP error with internal cause")
			}
		case errors.As(err, &valErr):
			code = swag.Int64Value(valErr.Code)
			resp = valErr
		case errors.As(err, &echoErr):
			code = int64(echoErr.Code)
			resp = httperrors.NewFromEcho(echoErr)
		default:
			code = http.StatusInternalServerError
			e := httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
			if !hideInternalDetails {
				e.Detail = err.Error()
			}
			resp = e
			log.Error().Err(err).Msg("Unhandled error in handler")
		}

		if c.Response().Committed {
			log.Warn().Err(err).Msg("Response already committed, dropping error")
			return
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(int(code))
		} else {
			err = c.JSON(int(code), resp)
		}
		if err != nil {
			log.Warn().Err(err).Msg("Failed to write error response")
		}
	}
}
