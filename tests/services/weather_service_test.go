package services

import (
	"context"
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
	"github.com/solarstack/solarmon/pkg/weather"
	"github.com/solarstack/solarmon/tests/mocks"
)

// fakeWeatherProvider returns a fixed observation or error.
type fakeWeatherProvider struct {
	observation weather.Observation
	err         error
}

func (f *fakeWeatherProvider) GetCurrent(ctx context.Context) (weather.Observation, error) {
	return f.observation, f.err
}

// TestWeatherService_StartStop tests the service lifecycle guards.
func TestWeatherService_StartStop(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	w := services.NewWeatherService(
		"weather",
		"backyard",
		1*time.Second,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		&fakeWeatherProvider{},
		logger,
	)

	// Execute and assert
	assert.NoError(t, w.Start())

	err := w.Start()
	assert.Error(t, err)
	assert.Equal(t, "weather service is already running", err.Error())

	assert.NoError(t, w.Stop())

	err = w.Stop()
	assert.Error(t, err)
	assert.Equal(t, "weather service is not running", err.Error())
}

// TestWeatherService_PublishesObservation verifies topic and payload content.
func TestWeatherService_PublishesObservation(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	observedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeWeatherProvider{
		observation: weather.Observation{
			ObservedAt:    observedAt,
			Temperature:   18.5,
			Humidity:      61,
			WindSpeed:     12.3,
			WindDirection: 270,
			CloudCover:    40,
			Precipitation: 0.2,
		},
	}

	published := make(chan []byte, 1)
	mockMQTTClient.On("Publish", "weather/backyard", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case published <- args.Get(3).([]byte):
			default:
			}
		}).
		Return(nil)

	w := services.NewWeatherService(
		"weather",
		"backyard",
		10*time.Millisecond,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		provider,
		logger,
	)

	// Execute
	require.NoError(t, w.Start())
	defer w.Stop()

	// Assert
	select {
	case payload := <-published:
		var reading models.WeatherReading
		require.NoError(t, json.Unmarshal(payload, &reading))
		assert.Equal(t, "backyard", reading.Station)
		assert.Equal(t, 18.5, reading.Temperature)
		assert.Equal(t, observedAt, reading.ObservedAt)
	case <-time.After(time.Second):
		t.Fatal("no weather reading published within one second")
	}
}

// TestWeatherService_SkipsCycleOnFetchError verifies nothing is published
// when the provider fails.
func TestWeatherService_SkipsCycleOnFetchError(t *testing.T) {
	// Setup
	mockDeviceInfo := new(mocks.DeviceInfoInterface)
	mockMQTTClient := new(mocks.MockMQTTClient)
	logger := zerolog.Nop()

	mockDeviceInfo.On("GetDeviceID").Return("test-device-id")

	provider := &fakeWeatherProvider{err: errors.New("api unreachable")}

	w := services.NewWeatherService(
		"weather",
		"backyard",
		10*time.Millisecond,
		1,
		mockDeviceInfo,
		mockMQTTClient,
		provider,
		logger,
	)

	// Execute
	require.NoError(t, w.Start())
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())

	// Assert
	mockMQTTClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
