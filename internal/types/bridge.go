package types

import (
	"encoding/json"
	"strconv"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// PostBridgeCallPayload call envelope delivered to the isolated context
type PostBridgeCallPayload struct {

	// Positional arguments of the keyring method
	Args []interface{} `json:"args"`

	// Keyring method name
	// Required: true
	// Min Length: 1
	Method *string `json:"method"`

	// Serialized keyring state captured by the caller after the previous call
	PrevState json.RawMessage `json:"prevState,omitempty"`

	// Correlation id echoed in the result
	// Required: true
	// Min Length: 1
	PromiseID *string `json:"promiseId"`

	// Keyring type
	// Required: true
	// Min Length: 1
	Type *string `json:"type"`
}

// Validate validates this post bridge call payload
func (m *PostBridgeCallPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := requiredNonEmpty("method", m.Method); err != nil {
		res = append(res, err)
	}

	if err := requiredNonEmpty("promiseId", m.PromiseID); err != nil {
		res = append(res, err)
	}

	if err := requiredNonEmpty("type", m.Type); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// BridgeResultEnvelope result envelope, exactly one per call envelope
type BridgeResultEnvelope struct {

	// Resolved data ({newState, response}) or the error descriptor string
	Data interface{} `json:"data"`

	// Correlation id of the originating call
	// Required: true
	PromiseID *string `json:"promiseId"`

	// result
	// Required: true
	// Enum: [resolve reject]
	Result *string `json:"result"`
}

var bridgeResultEnvelopeResultEnum = []interface{}{"resolve", "reject"}

// Validate validates this bridge result envelope
func (m *BridgeResultEnvelope) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("promiseId", "body", m.PromiseID); err != nil {
		res = append(res, err)
	}

	if err := m.validateResult(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *BridgeResultEnvelope) validateResult(formats strfmt.Registry) error {
	if err := validate.Required("result", "body", m.Result); err != nil {
		return err
	}

	if err := validate.EnumCase("result", "body", *m.Result, bridgeResultEnvelopeResultEnum, true); err != nil {
		return err
	}

	return nil
}

// PostBridgeEventPayload lifecycle event crossing the boundary
type PostBridgeEventPayload struct {

	// Event name
	// Required: true
	// Min Length: 1
	Event *string `json:"event"`

	// Optional event payload
	Payload map[string]interface{} `json:"payload,omitempty"`

	// Routing target, defaults to the main process
	Target string `json:"target,omitempty"`
}

// Validate validates this post bridge event payload
func (m *PostBridgeEventPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := requiredNonEmpty("event", m.Event); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PostBridgeEventResponse post bridge event response
type PostBridgeEventResponse struct {

	// Whether the background process has announced readiness
	// Required: true
	BackgroundReady *bool `json:"backgroundReady"`

	// Accepted event
	// Required: true
	Event *string `json:"event"`

	// Resolved routing target
	// Required: true
	Target *string `json:"target"`
}

// Validate validates this post bridge event response
func (m *PostBridgeEventResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("backgroundReady", "body", m.BackgroundReady); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("event", "body", m.Event); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("target", "body", m.Target); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PostIframeMessagePayload message posted by a device-vendor iframe
type PostIframeMessagePayload struct {

	// Message body as posted by the iframe
	// Required: true
	Data interface{} `json:"data"`
}

// Validate validates this post iframe message payload
func (m *PostIframeMessagePayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("data", "body", m.Data); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// PostIframeMessageResponse post iframe message response
type PostIframeMessageResponse struct {

	// Trusted origin the message was accepted from
	// Required: true
	Origin *string `json:"origin"`

	// Isolated context the message is routed to
	// Required: true
	Target *string `json:"target"`
}

// Validate validates this post iframe message response
func (m *PostIframeMessageResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("origin", "body", m.Origin); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("target", "body", m.Target); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// KeyringInfo registered keyring
type KeyringInfo struct {

	// Whether a call currently holds the keyring type lock
	// Required: true
	Busy *bool `json:"busy"`

	// Whether init has run for the keyring type
	// Required: true
	Initialized *bool `json:"initialized"`

	// Method vocabulary
	// Required: true
	Methods []string `json:"methods"`

	// Isolated context serving the keyring type
	// Required: true
	Target *string `json:"target"`

	// Keyring type
	// Required: true
	Type *string `json:"type"`
}

// Validate validates this keyring info
func (m *KeyringInfo) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("busy", "body", m.Busy); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("initialized", "body", m.Initialized); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("methods", "body", m.Methods); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("target", "body", m.Target); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("type", "body", m.Type); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// GetKeyringsResponse get keyrings response
type GetKeyringsResponse struct {

	// keyrings
	// Required: true
	Keyrings []*KeyringInfo `json:"keyrings"`
}

// Validate validates this get keyrings response
func (m *GetKeyringsResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("keyrings", "body", m.Keyrings); err != nil {
		res = append(res, err)
	}

	for i, k := range m.Keyrings {
		if k == nil {
			continue
		}
		if err := k.Validate(formats); err != nil {
			if ve, ok := err.(*errors.Validation); ok {
				res = append(res, ve.ValidateName("keyrings."+strconv.Itoa(i)))
				continue
			}
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func requiredNonEmpty(path string, value *string) error {
	if err := validate.Required(path, "body", value); err != nil {
		return err
	}

	if err := validate.MinLength(path, "body", *value, 1); err != nil {
		return err
	}

	return nil
}
