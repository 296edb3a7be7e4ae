package httperrors

import (
	"net/http"

	"github/chapool/hw-bridge/internal/types"
)

var (
	ErrBadRequestInvalidPayload             = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeMALFORMEDPAYLOAD, "Payload could not be decoded.")
	ErrInternalServerErrorMalformedResponse = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Response failed validation.")
	ErrForbiddenUntrustedOrigin             = NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeUNTRUSTEDORIGIN, "Message origin is not trusted.")
	ErrBadRequestUnknownEvent               = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeUNKNOWNEVENT, "Unknown lifecycle event.")
	ErrGatewayTimeoutBoundary               = NewHTTPError(http.StatusGatewayTimeout, types.PublicHTTPErrorTypeBOUNDARYTIMEOUT, "No result within the boundary timeout.")
)

