package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/solarstack/solarmon/internal/utils"
	"github.com/solarstack/solarmon/pkg/file"
	"github.com/solarstack/solarmon/pkg/identity"
	"github.com/solarstack/solarmon/pkg/inverter"
	"github.com/solarstack/solarmon/pkg/mqtt"
	"github.com/solarstack/solarmon/pkg/objstore"
	"github.com/solarstack/solarmon/pkg/weather"
)

// Service is the interface for all plug-in services
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry manages the lifecycle of the agent's services.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	mqttClient  mqtt.Client
	fileClient  file.FileOperations
	storage     objstore.ObjectStorageClient
	version     string
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.Client, fileClient file.FileOperations,
	storage objstore.ObjectStorageClient, version string, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]Service),
		mqttClient: mqttClient,
		fileClient: fileClient,
		storage:    storage,
		version:    version,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (Service, error)
	}{
		{
			name:    "heartbeat",
			enabled: config.Services.Heartbeat.Enabled,
			constructor: func() (Service, error) {
				return NewHeartbeatService(
					config.Services.Heartbeat.Topic,
					time.Duration(config.Services.Heartbeat.Interval)*time.Second,
					config.Services.Heartbeat.QOS,
					deviceInfo,
					sr.mqttClient,
					sr.version,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "weather",
			enabled: config.Services.Weather.Enabled,
			constructor: func() (Service, error) {
				provider := weather.NewOpenMeteoProvider(
					config.Services.Weather.Latitude,
					config.Services.Weather.Longitude,
					time.Duration(config.Services.Weather.RequestTimeout)*time.Second,
				)
				return NewWeatherService(
					config.Services.Weather.Topic,
					config.Services.Weather.Station,
					time.Duration(config.Services.Weather.Interval)*time.Second,
					config.Services.Weather.QOS,
					deviceInfo,
					sr.mqttClient,
					provider,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "inverter",
			enabled: config.Services.Inverter.Enabled,
			constructor: func() (Service, error) {
				provider := inverter.NewSerialProvider(
					config.Services.Inverter.SerialPort,
					config.Services.Inverter.BaudRate,
				)
				return NewInverterService(
					config.Services.Inverter.Topic,
					time.Duration(config.Services.Inverter.Interval)*time.Second,
					config.Services.Inverter.QOS,
					deviceInfo,
					sr.mqttClient,
					provider,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "house",
			enabled: config.Services.House.Enabled,
			constructor: func() (Service, error) {
				return NewHouseSensorService(
					config.Services.House.Topic,
					config.Services.House.SensorConfigFile,
					time.Duration(config.Services.House.Interval)*time.Second,
					time.Duration(config.Services.House.Timeout)*time.Second,
					config.Services.House.QOS,
					deviceInfo,
					sr.mqttClient,
					sr.fileClient,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "update",
			enabled: config.Services.Update.Enabled,
			constructor: func() (Service, error) {
				if _, err := semver.NewVersion(sr.version); err != nil {
					return nil, fmt.Errorf("update service requires a semantic build version, got %q: %w", sr.version, err)
				}
				return NewUpdateService(
					config.Services.Update.Topic,
					config.Services.Update.QOS,
					config.Services.Update.DownloadPath,
					sr.version,
					deviceInfo,
					sr.mqttClient,
					sr.fileClient,
					sr.storage,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
