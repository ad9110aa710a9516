package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solarstack/solarmon/internal/models"
	"github.com/solarstack/solarmon/internal/services"
	"github.com/solarstack/solarmon/pkg/inverter"
	"github.com/solarstack/solarmon/tests/mocks"
)

// fakeTelemetryProvider returns a fixed telemetry frame or error.
type fakeTelemetryProvider struct {
	telemetry inverter.Telemetry
	err       error
}

func (f *fakeTelemetryProvider) ReadTelemetry() (inverter.Telemetry, error) {
	return f.telemetry, f.err
}

// TestInverterService_StartStop tests the service lifecycle guards.
func TestInverterService_StartStop(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	s := services.NewInverterService(
		"battery",
		1*time.Second,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		&fakeTelemetryProvider{},
		logger,
	)

	// Execute and assert
	assert.NoError(t, s.Start())

	err := s.Start()
	assert.Error(t, err)
	assert.Equal(t, "inverter service is already running", err.Error())

	assert.NoError(t, s.Stop())

	err = s.Stop()
	assert.Error(t, err)
	assert.Equal(t, "inverter service is not running", err.Error())
}

// TestInverterService_PublishesTelemetry verifies topic and payload content.
func TestInverterService_PublishesTelemetry(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	provider := &fakeTelemetryProvider{
		telemetry: inverter.Telemetry{
			BatteryVoltage: 13.2,
			BatteryCurrent: 1.5,
			PanelVoltage:   18.4,
			PanelPower:     42,
			LoadCurrent:    0.8,
			LoadOn:         true,
			StateOfCharge:  87.5,
			ChargeState:    "bulk",
		},
	}

	published := make(chan []byte, 1)
	mockMQTTClient.On("Publish", "battery/test-device-id", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case published <- args.Get(3).([]byte):
			default:
			}
		}).
		Return(nil)

	s := services.NewInverterService(
		"battery",
		10*time.Millisecond,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		provider,
		logger,
	)

	// Execute
	require.NoError(t, s.Start())
	defer s.Stop()

	// Assert
	select {
	case payload := <-published:
		var reading models.InverterReading
		require.NoError(t, json.Unmarshal(payload, &reading))
		assert.Equal(t, "test-device-id", reading.DeviceID)
		assert.Equal(t, 13.2, reading.BatteryVoltage)
		assert.Equal(t, "bulk", reading.ChargeState)
		assert.True(t, reading.LoadOn)
	case <-time.After(time.Second):
		t.Fatal("no inverter reading published within one second")
	}
}

// TestInverterService_SkipsCycleOnReadError verifies nothing is published
// when the serial read fails.
func TestInverterService_SkipsCycleOnReadError(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	provider := &fakeTelemetryProvider{err: errors.New("port busy")}

	s := services.NewInverterService(
		"battery",
		10*time.Millisecond,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		provider,
		logger,
	)

	// Execute
	require.NoError(t, s.Start())
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Stop())

	// Assert
	mockMQTTClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
