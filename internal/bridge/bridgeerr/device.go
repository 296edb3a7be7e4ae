package bridgeerr

import (
	"fmt"
)

// DeviceErrorKind classifies a device transport failure for the caller's presentation layer.
type DeviceErrorKind string

const (
	DeviceErrorGeneric         DeviceErrorKind = "generic"
	DeviceErrorLocked          DeviceErrorKind = "locked"
	DeviceErrorAppClosed       DeviceErrorKind = "app_closed"
	DeviceErrorUserRejected    DeviceErrorKind = "user_rejected"
	DeviceErrorConnectionIssue DeviceErrorKind = "connection_issue"
)

// Ledger APDU status words surfaced by the device transports.
const (
	StatusDeviceLocked    uint16 = 0x5515
	StatusAppClosed       uint16 = 0x650f
	StatusUserRejected    uint16 = 0x6985
	StatusInsNotSupported uint16 = 0x6d00
	StatusClaNotSupported uint16 = 0x6e00
	statusNone            uint16 = 0
)

// MessageFailedToOpenDev is reported when a device transport cannot be opened.
const MessageFailedToOpenDev = "Failed to open the device"

// DeviceTransportError is an underlying device communication failure.
// It is never masked: the dispatcher rejects the call with its message.
type DeviceTransportError struct {
	Family     string
	StatusCode uint16
	Message    string
	Err        error
}

// NewDeviceTransportError creates a transport error without a status word.
func NewDeviceTransportError(family string, message string) *DeviceTransportError {
	return &DeviceTransportError{Family: family, Message: message}
}

// NewDeviceStatusError creates a transport error carrying a status word.
func NewDeviceStatusError(family string, statusCode uint16, message string) *DeviceTransportError {
	return &DeviceTransportError{Family: family, StatusCode: statusCode, Message: message}
}

func (e *DeviceTransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != statusNone {
		return fmt.Sprintf("%s device error 0x%04x", e.Family, e.StatusCode)
	}
	if e.Err != nil {
		return e.Err.Error()
	}

	return ""
}

func (e *DeviceTransportError) Cause() error {
	return e.Err
}

func (e *DeviceTransportError) Unwrap() error {
	return e.Err
}

// Kind maps the status word to a coarse category.
func (e *DeviceTransportError) Kind() DeviceErrorKind {
	switch e.StatusCode {
	case StatusDeviceLocked:
		return DeviceErrorLocked
	case StatusAppClosed, StatusInsNotSupported, StatusClaNotSupported:
		return DeviceErrorAppClosed
	case StatusUserRejected:
		return DeviceErrorUserRejected
	case statusNone:
		if e.Message == MessageFailedToOpenDev {
			return DeviceErrorConnectionIssue
		}
	}

	return DeviceErrorGeneric
}
