package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solarstack/solarmon/internal/models"
	"github.com/solarstack/solarmon/internal/services"
	"github.com/solarstack/solarmon/tests/mocks"
)

// TestHeartbeatService_Start_Success tests the successful start of the HeartbeatService.
func TestHeartbeatService_Start_Success(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")
	mockMQTTClient.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	h := services.NewHeartbeatService(
		"status",
		1*time.Second,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		"1.0.0",
		logger,
	)

	// Execute
	err := h.Start()

	// Assert
	assert.NoError(t, err)

	// Try to start again (should fail)
	err = h.Start()
	assert.Error(t, err)
	assert.Equal(t, "heartbeat service is already running", err.Error())

	// Cleanup
	err = h.Stop()
	assert.NoError(t, err)
}

// TestHeartbeatService_Stop_Success tests the successful stop of the HeartbeatService.
func TestHeartbeatService_Stop_Success(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	h := services.NewHeartbeatService(
		"status",
		1*time.Second,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		"1.0.0",
		logger,
	)

	// Start the service
	err := h.Start()
	assert.NoError(t, err)

	// Execute
	err = h.Stop()

	// Assert
	assert.NoError(t, err)

	// Try to stop again (should fail)
	err = h.Stop()
	assert.Error(t, err)
	assert.Equal(t, "heartbeat service is not running", err.Error())
}

// TestHeartbeatService_PublishesLiveness verifies the heartbeat payload and topic.
func TestHeartbeatService_PublishesLiveness(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	published := make(chan []byte, 1)
	mockMQTTClient.On("Publish", "status/test-device-id", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case published <- args.Get(3).([]byte):
			default:
			}
		}).
		Return(nil)

	h := services.NewHeartbeatService(
		"status",
		10*time.Millisecond,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		"1.0.0",
		logger,
	)

	// Execute
	require.NoError(t, h.Start())
	defer h.Stop()

	// Assert
	select {
	case payload := <-published:
		var hb models.Heartbeat
		require.NoError(t, json.Unmarshal(payload, &hb))
		assert.Equal(t, "test-device-id", hb.DeviceID)
		assert.Equal(t, "alive", hb.Status)
		assert.Equal(t, "1.0.0", hb.Version)
	case <-time.After(time.Second):
		t.Fatal("no heartbeat published within one second")
	}
}
