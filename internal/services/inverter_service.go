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
	"github.com/solarstack/solarmon/pkg/inverter"
	"github.com/solarstack/solarmon/pkg/mqtt"
)

// InverterService polls the charge controller and publishes battery
// telemetry over MQTT.
type InverterService struct {
	pubTopic   string
	interval   time.Duration
	qos        int
	deviceInfo identity.DeviceInfoInterface
	mqttClient mqtt.Client
	provider   inverter.Provider
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewInverterService initializes and returns a new instance of InverterService.
func NewInverterService(pubTopic string, interval time.Duration, qos int,
	deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.Client,
	provider inverter.Provider, logger zerolog.Logger) *InverterService {

	return &InverterService{
		pubTopic:   pubTopic,
		interval:   interval,
		qos:        qos,
		deviceInfo: deviceInfo,
		mqttClient: mqttClient,
		provider:   provider,
		logger:     logger,
	}
}

// Start initiates periodic polling and publishing.
func (s *InverterService) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("InverterService is already running")
		return errors.New("inverter service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.runPollLoop()

	s.logger.Info().Str("topic", s.pubTopic).Msg("InverterService started successfully")
	return nil
}

// Stop gracefully stops the inverter service.
func (s *InverterService) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("InverterService is not running")
		return errors.New("inverter service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("InverterService stopped successfully")
	return nil
}

// runPollLoop polls the controller on every tick until stopped.
func (s *InverterService) runPollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.pollAndPublish(); err != nil {
				s.logger.Error().Err(err).Msg("Failed to publish inverter reading")
			}
		case <-s.ctx.Done():
			s.logger.Info().Msg("Stopping inverter polling")
			return
		}
	}
}

// pollAndPublish reads one telemetry frame and publishes it.
func (s *InverterService) pollAndPublish() error {
	telemetry, err := s.provider.ReadTelemetry()
	if err != nil {
		return fmt.Errorf("failed to read inverter telemetry: %w", err)
	}

	reading := models.InverterReading{
		DeviceID:       s.deviceInfo.GetDeviceID(),
		Timestamp:      time.Now().UTC(),
		BatteryVoltage: telemetry.BatteryVoltage,
		BatteryCurrent: telemetry.BatteryCurrent,
		PanelVoltage:   telemetry.PanelVoltage,
		PanelPower:     telemetry.PanelPower,
		LoadCurrent:    telemetry.LoadCurrent,
		LoadOn:         telemetry.LoadOn,
		StateOfCharge:  telemetry.StateOfCharge,
		ChargeState:    telemetry.ChargeState,
		ErrorCode:      telemetry.ErrorCode,
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to serialize inverter reading: %w", err)
	}

	topic := s.pubTopic + "/" + s.deviceInfo.GetDeviceID()

	if err := s.mqttClient.Publish(topic, byte(s.qos), false, payload); err != nil {
		return fmt.Errorf("failed to publish inverter reading: %w", err)
	}

	s.logger.Debug().
		Float64("battery_voltage", reading.BatteryVoltage).
		Float64("state_of_charge", reading.StateOfCharge).
		Msg("Inverter reading published successfully")

	return nil
}
