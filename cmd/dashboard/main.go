package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/solarstack/solarmon/internal/dashboard"
	"github.com/solarstack/solarmon/internal/store"
	"github.com/solarstack/solarmon/internal/utils"
	"github.com/solarstack/solarmon/pkg/file"
	"github.com/solarstack/solarmon/pkg/mqtt"
	"github.com/solarstack/solarmon/pkg/objstore"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	fileClient := file.NewFileService()

	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	clientID := config.MQTT.ClientID + "-dashboard-" + uuid.New().String()

	mqttClient := mqtt.NewMqttService(fileClient)
	err = mqttClient.Initialize(mqtt.Options{
		Broker:        config.MQTT.Broker,
		ClientID:      clientID,
		Username:      config.MQTT.Username,
		Password:      config.MQTT.Password,
		CACertificate: config.MQTT.CACertificate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	history, err := store.NewStore(config.Dashboard.History.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open history store")
	}
	defer history.Close()

	state := dashboard.NewLiveState()

	ingester := dashboard.NewIngester(mqttClient, config.Dashboard.QOS, state, history, logger)
	if err := ingester.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start ingester")
	}

	// Expired snapshots are pushed to object storage before deletion when
	// archiving is configured.
	var storage objstore.ObjectStorageClient
	if config.Dashboard.Archive.Enabled {
		storage = objstore.NewObjectStorage()
		err = storage.Connect(
			config.Dashboard.Archive.Endpoint,
			config.Dashboard.Archive.AccessKey,
			config.Dashboard.Archive.SecretKey,
			config.Dashboard.Archive.UseSSL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to archive storage")
		}
	}

	snapshotter := dashboard.NewSnapshotter(
		state,
		config.Dashboard.Snapshot.Directory,
		time.Duration(config.Dashboard.Snapshot.Interval)*time.Second,
		time.Duration(config.Dashboard.Snapshot.Retention)*time.Second,
		storage,
		config.Dashboard.Archive.Bucket,
		logger,
	)
	if err := snapshotter.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start snapshotter")
	}

	server := dashboard.NewServer(
		config.Dashboard.ListenAddress,
		state,
		history,
		time.Duration(config.Dashboard.StalenessThreshold)*time.Second,
		time.Duration(config.Dashboard.History.Retention)*time.Second,
		logger,
	)
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := server.Stop(); err != nil {
		logger.Error().Err(err).Msg("HTTP server stop failure")
	}
	if err := snapshotter.Stop(); err != nil {
		logger.Error().Err(err).Msg("Snapshotter stop failure")
	}
	if err := ingester.Stop(); err != nil {
		logger.Error().Err(err).Msg("Ingester stop failure")
	}
	mqttClient.Disconnect(250)
}
