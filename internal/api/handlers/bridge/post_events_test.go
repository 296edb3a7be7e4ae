package bridge_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/httperrors"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/test"
	"github/chapool/hw-bridge/internal/types"
)

func TestPostEventsBackgroundReady(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		assert.False(t, s.Events.IsBackgroundReady())

		res := test.PerformRequest(t, s, "POST", "/api/v1/bridge/events", test.GenericPayload{
			"event": "metamask-background-ready",
		}, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var response types.PostBridgeEventResponse
		test.ParseResponseBody(t, res, &response)
		require.NoError(t, response.Validate(nil))
		assert.True(t, *response.BackgroundReady)
		assert.Equal(t, "metamask-background-ready", *response.Event)
		assert.Equal(t, "extension", *response.Target)

		assert.True(t, s.Events.IsBackgroundReady())
	})
}

func TestPostEventsDeviceConnect(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/bridge/events", test.GenericPayload{
			"event":   "trezor-device-connect",
			"target":  "extension",
			"payload": map[string]interface{}{"keyringType": "trezor"},
		}, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode, res.Body.String())

		var response types.PostBridgeEventResponse
		test.ParseResponseBody(t, res, &response)
		assert.False(t, *response.BackgroundReady)

		events := s.Events.Events()
		require.Len(t, events, 1)
		assert.Equal(t, bus.EventTrezorDeviceConnect, events[0].Event)
		assert.Equal(t, "trezor", events[0].Payload["keyringType"])
	})
}

func TestPostEventsUnknownEvent(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/bridge/events", test.GenericPayload{
			"event": "usb-unplugged",
		}, nil)
		require.Equal(t, http.StatusBadRequest, res.Result().StatusCode)
		test.RequireHTTPError(t, res, httperrors.ErrBadRequestUnknownEvent)

		assert.Empty(t, s.Events.Events())
	})
}

func TestPostEventsMissingEvent(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "POST", "/api/v1/bridge/events", test.GenericPayload{
			"target": "extension",
		}, nil)
		test.RequireHTTPValidationError(t, res, "event")
	})
}
