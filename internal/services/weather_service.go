package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/solarstack/solarmon/internal/models"
	"github.com/solarstack/solarmon/pkg/identity"
	"github.com/solarstack/solarmon/pkg/mqtt"
	"github.com/solarstack/solarmon/pkg/weather"
)

// WeatherService periodically fetches current conditions from the weather
// API and publishes them over MQTT.
type WeatherService struct {
	pubTopic   string
	station    string
	interval   time.Duration
	qos        int
	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.Client
	provider   weather.Provider
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWeatherService initializes and returns a new instance of WeatherService.
func NewWeatherService(pubTopic, station string, interval time.Duration, qos int,
	deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.Client,
	provider weather.Provider, logger zerolog.Logger) *WeatherService {

	return &WeatherService{
		pubTopic:   pubTopic,
		station:    station,
		interval:   interval,
		qos:        qos,
		deviceInfo: deviceInfo,
		mqttClient: mqttClient,
		provider:   provider,
		logger:     logger,
	}
}

// Start initiates periodic weather fetching and publishing.
func (w *WeatherService) Start() error {
	if w.ctx != nil {
		w.logger.Warn().Msg("WeatherService is already running")
		return errors.New("weather service is already running")
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.wg.Add(1)
	go w.runFetchLoop()

	w.logger.Info().Str("topic", w.pubTopic).Msg("WeatherService started successfully")
	return nil
}

// Stop gracefully stops the weather service.
func (w *WeatherService) Stop() error {
	if w.ctx == nil {
		w.logger.Warn().Msg("WeatherService is not running")
		return errors.New("weather service is not running")
	}

	w.cancel()
	w.wg.Wait()

	w.ctx = nil
	w.cancel = nil

	w.logger.Info().Msg("WeatherService stopped successfully")
	return nil
}

// runFetchLoop fetches and publishes on every tick until stopped.
func (w *WeatherService) runFetchLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.fetchAndPublish(); err != nil {
				w.logger.Error().Err(err).Msg("Failed to publish weather reading")
			}
		case <-w.ctx.Done():
			w.logger.Info().Msg("Stopping weather collection")
			return
		}
	}
}

// fetchAndPublish performs one fetch cycle. A failed fetch skips the cycle;
// a failed publish is retried with linear backoff.
func (w *WeatherService) fetchAndPublish() error {
	observation, err := w.provider.GetCurrent(w.ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch weather: %w", err)
	}

	reading := models.WeatherReading{
		DeviceID:      w.deviceInfo.GetDeviceID(),
		Station:       w.station,
		Timestamp:     time.Now().UTC(),
		ObservedAt:    observation.ObservedAt,
		Temperature:   observation.Temperature,
		Humidity:      observation.Humidity,
		WindSpeed:     observation.WindSpeed,
		WindDirection: observation.WindDirection,
		CloudCover:    observation.CloudCover,
		Precipitation: observation.Precipitation,
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to serialize weather reading: %w", err)
	}

	topic := w.pubTopic + "/" + w.station

	retries := 3
	for i := 0; i < retries; i++ {
		if err := w.mqttClient.Publish(topic, byte(w.qos), false, payload); err == nil {
			w.logger.Debug().Str("topic", topic).Msg("Weather reading published successfully")
			return nil
		} else {
			w.logger.Warn().Err(err).Int("retry", i+1).Msg("Retrying to publish weather reading...")
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return fmt.Errorf("failed to publish weather reading after %d retries", retries)
}
