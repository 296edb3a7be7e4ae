package bridgeerr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownKeyringType is returned when a call names a keyring type that was never registered.
	ErrUnknownKeyringType = errors.New("unknown keyring type")
	// ErrMethodNotSupported is returned for (type, method) pairs missing from the dispatch table.
	ErrMethodNotSupported = errors.New("method not supported")
	// ErrInvalidEnvelope is returned when an inbound envelope is missing required fields.
	ErrInvalidEnvelope = errors.New("invalid envelope")
	// ErrBoundaryTimeout is raised by the caller side when no result arrives in time.
	ErrBoundaryTimeout = errors.New("boundary timeout")
	// ErrUntrustedOrigin is returned for messages from origins outside the trusted set.
	ErrUntrustedOrigin = errors.New("untrusted origin")
)

// UnknownKeyringType wraps ErrUnknownKeyringType with the offending type.
func UnknownKeyringType(keyringType string) error {
	return errors.Wrapf(ErrUnknownKeyringType, "%q", keyringType)
}

// MethodNotSupported wraps ErrMethodNotSupported with the offending pair.
func MethodNotSupported(keyringType string, method string) error {
	return errors.Wrapf(ErrMethodNotSupported, "%s.%s", keyringType, method)
}

type causer interface {
	Cause() error
}

type unwrapper interface {
	Unwrap() error
}

// DescribeError turns a failure into the string carried by a rejected result.
// The message wins when present, then the cause, then the stringified value.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	if msg := err.Error(); strings.TrimSpace(msg) != "" {
		return msg
	}

	if cause := causeOf(err); cause != nil {
		return DescribeError(cause)
	}

	return fmt.Sprintf("%T", err)
}

// DescribePanic converts a recovered panic value into a descriptor.
func DescribePanic(recovered any) string {
	if err, ok := recovered.(error); ok {
		return DescribeError(err)
	}

	return fmt.Sprint(recovered)
}

func causeOf(err error) error {
	//nolint:errorlint // direct interface checks, we only look one level down
	switch e := err.(type) {
	case causer:
		if c := e.Cause(); c != nil && c != err {
			return c
		}
	case unwrapper:
		if c := e.Unwrap(); c != nil && c != err {
			return c
		}
	}

	return nil
}
