package types

import (
	"encoding/json"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// PublicHTTPErrorType Type of error returned, should be used for client-side error handling
type PublicHTTPErrorType string

const (
	PublicHTTPErrorTypeGeneric          PublicHTTPErrorType = "generic"
	PublicHTTPErrorTypeINVALIDENVELOPE  PublicHTTPErrorType = "INVALID_ENVELOPE"
	PublicHTTPErrorTypeUNTRUSTEDORIGIN  PublicHTTPErrorType = "UNTRUSTED_ORIGIN"
	PublicHTTPErrorTypeUNKNOWNEVENT     PublicHTTPErrorType = "UNKNOWN_EVENT"
	PublicHTTPErrorTypeBOUNDARYTIMEOUT  PublicHTTPErrorType = "BOUNDARY_TIMEOUT"
	PublicHTTPErrorTypeMALFORMEDPAYLOAD PublicHTTPErrorType = "MALFORMED_PAYLOAD"
)

var publicHTTPErrorTypeEnum []interface{}

func init() {
	var res []PublicHTTPErrorType
	if err := json.Unmarshal([]byte(`["generic","INVALID_ENVELOPE","UNTRUSTED_ORIGIN","UNKNOWN_EVENT","BOUNDARY_TIMEOUT","MALFORMED_PAYLOAD"]`), &res); err != nil {
		panic(err)
	}
	for _, v := range res {
		publicHTTPErrorTypeEnum = append(publicHTTPErrorTypeEnum, v)
	}
}

func (m PublicHTTPErrorType) Pointer() *PublicHTTPErrorType {
	return &m
}

func (m PublicHTTPErrorType) validatePublicHTTPErrorTypeEnum(path, location string, value PublicHTTPErrorType) error {
	if err := validate.EnumCase(path, location, value, publicHTTPErrorTypeEnum, true); err != nil {
		return err
	}
	return nil
}

// Validate validates this public Http error type
func (m PublicHTTPErrorType) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.validatePublicHTTPErrorTypeEnum("", "body", m); err != nil {
		return err
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PublicHTTPError public Http error
type PublicHTTPError struct {

	// HTTP status code returned for the error
	// Required: true
	Code *int64 `json:"status"`

	// More detailed, human-readable, optional explanation of the error
	Detail string `json:"detail,omitempty"`

	// Short, human-readable description of the error
	// Required: true
	Title *string `json:"title"`

	// type
	// Required: true
	Type *PublicHTTPErrorType `json:"type"`
}

// Validate validates this public Http error
func (m *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Code); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := m.validateType(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *PublicHTTPError) validateType(formats strfmt.Registry) error {
	if err := validate.Required("type", "body", m.Type); err != nil {
		return err
	}

	if err := m.Type.Validate(formats); err != nil {
		if ve, ok := err.(*errors.Validation); ok {
			return ve.ValidateName("type")
		}
		return err
	}

	return nil
}

// HTTPValidationErrorDetail HTTP validation error detail
type HTTPValidationErrorDetail struct {

	// Error describing field validation failure
	// Required: true
	Error *string `json:"error"`

	// Indicates how the invalid field was provided
	// Required: true
	In *string `json:"in"`

	// Key of field failing validation
	// Required: true
	Key *string `json:"key"`
}

// PublicHTTPValidationError public Http validation error
type PublicHTTPValidationError struct {
	PublicHTTPError

	// List of errors received while validating payload against schema
	// Required: true
	ValidationErrors []*HTTPValidationErrorDetail `json:"validationErrors"`
}

// Validate validates this public Http validation error
func (m *PublicHTTPValidationError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.PublicHTTPError.Validate(formats); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("validationErrors", "body", m.ValidationErrors); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
