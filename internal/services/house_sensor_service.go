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
	"github.com/solarstack/solarmon/internal/sensor_collectors"
	"github.com/solarstack/solarmon/internal/utils"
	"github.com/solarstack/solarmon/pkg/file"
	"github.com/solarstack/solarmon/pkg/identity"
	"github.com/solarstack/solarmon/pkg/mqtt"
)

// HouseSensorService handles house machine readings and publishes them over MQTT.
type HouseSensorService struct {
	pubTopic         string
	sensorConfigFile string
	sensorConfig     *models.SensorConfig
	interval         time.Duration
	timeout          time.Duration
	qos              int
	deviceInfo       identity.DeviceInfoInterface
	mqttClient       mqtt.Client
	fileClient       file.FileOperations
	logger           zerolog.Logger
	registry         *sensor_collectors.SensorRegistry
	workerPool       *utils.WorkerPool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHouseSensorService initializes and returns a new instance of HouseSensorService.
func NewHouseSensorService(
	pubTopic, sensorConfigFile string,
	interval, timeout time.Duration,
	qos int,
	deviceInfo identity.DeviceInfoInterface,
	mqttClient mqtt.Client,
	fileClient file.FileOperations,
	logger zerolog.Logger,
) *HouseSensorService {
	service := &HouseSensorService{
		pubTopic:         pubTopic,
		sensorConfigFile: sensorConfigFile,
		interval:         interval,
		timeout:          timeout,
		qos:              qos,
		deviceInfo:       deviceInfo,
		mqttClient:       mqttClient,
		fileClient:       fileClient,
		logger:           logger,
		registry:         sensor_collectors.NewSensorRegistry(),
		workerPool:       utils.NewWorkerPool(5),
	}

	return service
}

// Start initiates periodic sensor collection and publishing.
func (h *HouseSensorService) Start() error {
	if h.ctx != nil {
		h.logger.Warn().Msg("HouseSensorService is already running")
		return errors.New("house sensor service is already running")
	}

	h.logger.Info().Msg("Starting HouseSensorService...")

	config, err := h.loadAndValidateSensorConfig()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load or validate sensor configuration")
		return err
	}
	h.sensorConfig = config

	h.registerCollectors(config)

	h.ctx, h.cancel = context.WithCancel(context.Background())
	h.wg.Add(1)
	go h.runCollectionLoop()

	h.logger.Info().Str("topic", h.pubTopic).Msg("HouseSensorService started successfully")
	return nil
}

// loadAndValidateSensorConfig loads and validates the sensor configuration.
func (h *HouseSensorService) loadAndValidateSensorConfig() (*models.SensorConfig, error) {
	var config models.SensorConfig
	if err := h.fileClient.ReadJsonFile(h.sensorConfigFile, &config); err != nil {
		return nil, fmt.Errorf("failed to read sensor config: %w", err)
	}

	if !config.MonitorCPU && !config.MonitorMemory && !config.MonitorDisk &&
		!config.MonitorNetwork && !config.MonitorTemperature {
		return nil, errors.New("no sensors enabled in configuration")
	}

	h.logger.Info().Msg("Sensor configuration loaded successfully")
	return &config, nil
}

// registerCollectors registers the collectors selected by the configuration.
func (h *HouseSensorService) registerCollectors(config *models.SensorConfig) {
	h.registry.Register(&sensor_collectors.CPUCollector{Logger: h.logger})
	h.registry.Register(&sensor_collectors.MemoryCollector{Logger: h.logger})
	h.registry.Register(&sensor_collectors.DiskCollector{Logger: h.logger, Path: config.DiskPath})
	h.registry.Register(&sensor_collectors.NetworkCollector{Logger: h.logger})
	h.registry.Register(&sensor_collectors.TemperatureCollector{Logger: h.logger, Zone: config.ThermalZone})
}

// runCollectionLoop runs the main collection and publishing loop.
func (h *HouseSensorService) runCollectionLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reading := h.collectReadings()
			reading.DeviceID = h.deviceInfo.GetDeviceID()

			if err := h.publishReading(reading); err != nil {
				h.logger.Error().Err(err).Msg("Failed to publish house reading")
			}
		case <-h.ctx.Done():
			h.logger.Info().Msg("Stopping house sensor collection")
			return
		}
	}
}

// collectReadings gathers enabled sensor readings concurrently.
func (h *HouseSensorService) collectReadings() *models.HouseReading {
	reading := &models.HouseReading{
		Timestamp: time.Now().UTC(),
		Metrics:   make(map[string]models.Metric),
	}

	ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
	defer cancel()

	var wg sync.WaitGroup
	readingMutex := &sync.Mutex{}

	for name, collector := range h.registry.GetCollectors() {
		if !collector.IsEnabled(h.sensorConfig) {
			continue
		}

		wg.Add(1)
		h.workerPool.Submit(func() {
			defer wg.Done()

			value, err := collector.Collect(ctx)
			if err != nil {
				if !errors.Is(err, sensor_collectors.ErrNoRateYet) {
					h.logger.Warn().Err(err).Str("sensor", name).Msg("Sensor collection failed")
				}
				return
			}

			readingMutex.Lock()
			defer readingMutex.Unlock()

			reading.Metrics[name] = models.Metric{
				Value: value,
				Unit:  collector.Unit(),
			}
		})
	}

	wg.Wait()
	h.logger.Debug().Interface("reading", reading).Msg("House readings collected successfully")
	return reading
}

// publishReading sends the collected readings via MQTT with retries.
func (h *HouseSensorService) publishReading(reading *models.HouseReading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to serialize house reading: %w", err)
	}

	topic := h.pubTopic + "/" + h.deviceInfo.GetDeviceID()

	retries := 3
	for i := 0; i < retries; i++ {
		if err := h.mqttClient.Publish(topic, byte(h.qos), false, payload); err == nil {
			h.logger.Debug().Msg("House reading published successfully")
			return nil
		} else {
			h.logger.Warn().Err(err).Int("retry", i+1).Msg("Retrying to publish house reading...")
		}
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return fmt.Errorf("failed to publish house reading after %d retries", retries)
}

// Stop gracefully stops the house sensor service.
func (h *HouseSensorService) Stop() error {
	if h.ctx == nil {
		h.logger.Warn().Msg("HouseSensorService is not running")
		return errors.New("house sensor service is not running")
	}

	h.logger.Info().Msg("Stopping HouseSensorService...")
	h.cancel()
	h.wg.Wait()
	h.workerPool.Shutdown()

	h.ctx = nil
	h.cancel = nil

	h.logger.Info().Msg("HouseSensorService stopped successfully")
	return nil
}
