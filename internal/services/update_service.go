package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/models"
	"github.com/solarstack/solarmon/pkg/file"
	"github.com/solarstack/solarmon/pkg/identity"
	"github.com/solarstack/solarmon/pkg/mqtt"
	"github.com/solarstack/solarmon/pkg/objstore"
)

// UpdateService listens for agent build announcements and downloads builds
// that are strictly newer than the running version.
type UpdateService struct {
	SubTopic       string
	QOS            int
	DownloadPath   string
	CurrentVersion string
	DeviceInfo     identity.DeviceInfoInterface
	MqttClient     mqtt.Client
	FileClient     file.FileOperations
	Storage        objstore.ObjectStorageClient
	Logger         zerolog.Logger

	running bool
}

// NewUpdateService creates and returns a new instance of UpdateService.
func NewUpdateService(subTopic string, qos int, downloadPath, currentVersion string,
	deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.Client,
	fileClient file.FileOperations, storage objstore.ObjectStorageClient,
	logger zerolog.Logger) *UpdateService {

	return &UpdateService{
		SubTopic:       subTopic,
		QOS:            qos,
		DownloadPath:   downloadPath,
		CurrentVersion: currentVersion,
		DeviceInfo:     deviceInfo,
		MqttClient:     mqttClient,
		FileClient:     fileClient,
		Storage:        storage,
		Logger:         logger,
	}
}

// Start subscribes to the update command topic.
func (u *UpdateService) Start() error {
	if u.running {
		u.Logger.Warn().Msg("UpdateService is already running")
		return errors.New("update service is already running")
	}

	if _, err := semver.NewVersion(u.CurrentVersion); err != nil {
		return fmt.Errorf("invalid running version %q: %w", u.CurrentVersion, err)
	}

	topic := u.SubTopic + "/" + u.DeviceInfo.GetDeviceID()
	if err := u.MqttClient.Subscribe(topic, byte(u.QOS), u.handleUpdateCommand); err != nil {
		return fmt.Errorf("failed to subscribe to update topic: %w", err)
	}

	u.running = true
	u.Logger.Info().Str("topic", topic).Msg("Subscribed to MQTT update topic")
	return nil
}

// Stop unsubscribes from the update command topic.
func (u *UpdateService) Stop() error {
	if !u.running {
		u.Logger.Warn().Msg("UpdateService is not running")
		return errors.New("update service is not running")
	}

	topic := u.SubTopic + "/" + u.DeviceInfo.GetDeviceID()
	if err := u.MqttClient.Unsubscribe(topic); err != nil {
		return fmt.Errorf("failed to unsubscribe from update topic: %w", err)
	}

	u.running = false
	u.Logger.Info().Msg("UpdateService stopped successfully")
	return nil
}

// handleUpdateCommand processes incoming MQTT update commands.
func (u *UpdateService) handleUpdateCommand(client MQTT.Client, msg MQTT.Message) {
	u.Logger.Info().Msg("Received update command")

	var payload models.UpdateCommandPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		u.Logger.Error().Err(err).Msg("Failed to parse update command payload")
		return
	}

	u.Logger.Info().
		Str("UpdateURL", payload.FileUrl).
		Str("Version", payload.UpdateVersion).
		Msg("Parsed update command payload")

	status, detail, hash := u.applyUpdate(payload)
	u.publishAck(payload.UpdateVersion, status, detail, hash)
}

// applyUpdate runs the version gate and the download, returning the ack fields.
func (u *UpdateService) applyUpdate(payload models.UpdateCommandPayload) (status, detail, hash string) {
	target, err := semver.NewVersion(payload.UpdateVersion)
	if err != nil {
		return constants.UpdateAckFailed, fmt.Sprintf("malformed version %q", payload.UpdateVersion), ""
	}

	current := semver.MustParse(u.CurrentVersion)
	if !target.GreaterThan(current) {
		u.Logger.Info().
			Str("current", u.CurrentVersion).
			Str("target", payload.UpdateVersion).
			Msg("Update target is not newer, skipping")
		return constants.UpdateAckSkipped, "target version is not newer than running version", ""
	}

	if payload.FileName == "" || strings.Contains(payload.FileName, "/") {
		return constants.UpdateAckFailed, "invalid file name", ""
	}

	outputPath := filepath.Join(u.DownloadPath, payload.FileName)
	if err := u.Storage.DownloadFileByPresignedURL(payload.FileUrl, outputPath); err != nil {
		u.Logger.Error().Err(err).Msg("Failed to download update file")
		return constants.UpdateAckFailed, err.Error(), ""
	}

	fileHash, err := u.FileClient.GetFileHash(outputPath)
	if err != nil {
		return constants.UpdateAckFailed, fmt.Sprintf("failed to hash downloaded file: %v", err), ""
	}

	if payload.SHA256 != "" && !strings.EqualFold(payload.SHA256, fileHash) {
		return constants.UpdateAckFailed, "downloaded file hash mismatch", fileHash
	}

	u.Logger.Info().Str("path", outputPath).Str("sha256", fileHash).Msg("Update downloaded successfully")
	return constants.UpdateAckApplied, "", fileHash
}

// publishAck reports the outcome on the ack topic.
func (u *UpdateService) publishAck(version, status, detail, hash string) {
	ack := models.UpdateAck{
		DeviceID:  u.DeviceInfo.GetDeviceID(),
		Timestamp: time.Now().UTC(),
		Version:   version,
		Status:    status,
		Detail:    detail,
		FileHash:  hash,
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		u.Logger.Error().Err(err).Msg("Failed to serialize update ack")
		return
	}

	topic := u.SubTopic + "/" + u.DeviceInfo.GetDeviceID() + "/ack"
	if err := u.MqttClient.Publish(topic, byte(u.QOS), false, payload); err != nil {
		u.Logger.Error().Err(err).Msg("Failed to publish update ack")
	}
}
