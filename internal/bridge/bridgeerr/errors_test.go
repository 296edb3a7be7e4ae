package bridgeerr_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/bridge/bridgeerr"
)

type causeOnlyError struct {
	cause error
}

func (e causeOnlyError) Error() string { return "" }
func (e causeOnlyError) Cause() error  { return e.cause }

type blankError struct{}

func (blankError) Error() string { return "" }

func TestDescribeErrorPrefersMessage(t *testing.T) {
	err := errors.New("Failed to open the device")
	assert.Equal(t, "Failed to open the device", bridgeerr.DescribeError(err))
}

func TestDescribeErrorFallsBackToCause(t *testing.T) {
	err := causeOnlyError{cause: errors.New("device locked")}
	assert.Equal(t, "device locked", bridgeerr.DescribeError(err))
}

func TestDescribeErrorFallsBackToStringified(t *testing.T) {
	assert.Equal(t, "bridgeerr_test.blankError", bridgeerr.DescribeError(blankError{}))
	assert.Equal(t, "bridgeerr_test.causeOnlyError", bridgeerr.DescribeError(causeOnlyError{}))
}

func TestDescribeErrorNil(t *testing.T) {
	assert.Empty(t, bridgeerr.DescribeError(nil))
}

func TestDescribePanic(t *testing.T) {
	assert.Equal(t, "boom", bridgeerr.DescribePanic(errors.New("boom")))
	assert.Equal(t, "42", bridgeerr.DescribePanic(42))
}

func TestUnknownKeyringTypeIs(t *testing.T) {
	err := bridgeerr.UnknownKeyringType("nonexistent")
	require.ErrorIs(t, err, bridgeerr.ErrUnknownKeyringType)
	assert.Equal(t, `"nonexistent": unknown keyring type`, err.Error())

	err = bridgeerr.MethodNotSupported("qr", "makeApp")
	require.ErrorIs(t, err, bridgeerr.ErrMethodNotSupported)
	assert.Equal(t, "qr.makeApp: method not supported", err.Error())
}

func TestDeviceTransportErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  *bridgeerr.DeviceTransportError
		kind bridgeerr.DeviceErrorKind
		msg  string
	}{
		{
			name: "failed open",
			err:  bridgeerr.NewDeviceTransportError("ledger", bridgeerr.MessageFailedToOpenDev),
			kind: bridgeerr.DeviceErrorConnectionIssue,
			msg:  "Failed to open the device",
		},
		{
			name: "locked",
			err:  bridgeerr.NewDeviceStatusError("ledger", bridgeerr.StatusDeviceLocked, ""),
			kind: bridgeerr.DeviceErrorLocked,
			msg:  "ledger device error 0x5515",
		},
		{
			name: "app closed",
			err:  bridgeerr.NewDeviceStatusError("ledger", bridgeerr.StatusAppClosed, "open the Ethereum app"),
			kind: bridgeerr.DeviceErrorAppClosed,
			msg:  "open the Ethereum app",
		},
		{
			name: "rejected",
			err:  bridgeerr.NewDeviceStatusError("trezor", bridgeerr.StatusUserRejected, "rejected by user"),
			kind: bridgeerr.DeviceErrorUserRejected,
			msg:  "rejected by user",
		},
		{
			name: "wrapped",
			err:  &bridgeerr.DeviceTransportError{Family: "lattice", Err: errors.New("socket closed")},
			kind: bridgeerr.DeviceErrorGeneric,
			msg:  "socket closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind())
			assert.Equal(t, tt.msg, bridgeerr.DescribeError(tt.err))
		})
	}
}
