package util

import (
	"context"
	"errors"
	"net/http"

	oerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/hw-bridge/internal/api/httperrors"
	"github/chapool/hw-bridge/internal/types"
)

// BindAndValidateBody binds the request body into v and validates it against its schema.
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		binder = &echo.DefaultBinder{}
	}

	if err := binder.BindBody(c, v); err != nil {
		LogFromEchoContext(c).Debug().Err(err).Msg("Failed to bind payload")
		return httperrors.ErrBadRequestInvalidPayload
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates the response against its schema before writing it.
func ValidateAndReturn(c echo.Context, code int, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		LogFromEchoContext(c).Error().Err(err).Msg("Response did not match schema")
		return httperrors.ErrInternalServerErrorMalformedResponse
	}

	return c.JSON(code, v)
}

func validatePayload(c echo.Context, v runtime.Validatable) error {
	err := v.Validate(strfmt.Default)
	if err == nil {
		return nil
	}

	var compositeError *oerrors.CompositeError
	if errors.As(err, &compositeError) {
		LogFromEchoContext(c).Debug().Errs("validation_errors", compositeError.Errors).Msg("Payload did not match schema, returning HTTP validation error")
		valErrs := formatValidationErrors(c.Request().Context(), compositeError)
		return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeINVALIDENVELOPE, http.StatusText(http.StatusBadRequest), valErrs)
	}

	LogFromEchoContext(c).Debug().Err(err).Msg("Failed to validate payload")
	return httperrors.ErrBadRequestInvalidPayload
}

func formatValidationErrors(ctx context.Context, err *oerrors.CompositeError) []*types.HTTPValidationErrorDetail {
	valErrs := make([]*types.HTTPValidationErrorDetail, 0, len(err.Errors))
	for _, e := range err.Errors {
		var validation *oerrors.Validation
		if errors.As(e, &validation) {
			valErrs = append(valErrs, &types.HTTPValidationErrorDetail{
				Key:   swag.String(validation.Name),
				In:    swag.String(validation.In),
				Error: swag.String(validation.Error()),
			})
			continue
		}

		var composite *oerrors.CompositeError
		if errors.As(e, &composite) {
			valErrs = append(valErrs, formatValidationErrors(ctx, composite)...)
			continue
		}

		LogFromContext(ctx).Warn().Err(e).Msg("Received unknown error type while validating payload, skipping")
	}

	return valErrs
}
