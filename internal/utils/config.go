package utils

import (
	"time"

	"github.com/solarstack/solarmon/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker        string `yaml:"broker"`         // MQTT broker address
		ClientID      string `yaml:"client_id"`      // MQTT client ID
		Username      string `yaml:"username"`       // Broker username (optional)
		Password      string `yaml:"password"`       // Broker password (optional)
		CACertificate string `yaml:"ca_certificate"` // Path to the CA certificate (optional)
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the station identity file
	} `yaml:"identity"`

	Services struct {
		Heartbeat struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for heartbeat service
			Enabled  bool          `yaml:"enabled"`  // Enable/disable heartbeat service
			Interval time.Duration `yaml:"interval"` // Interval between heartbeats (in seconds)
			QOS      int           `yaml:"qos"`      // MQTT QoS level for heartbeat messages
		} `yaml:"heartbeat"`

		Weather struct {
			Topic          string        `yaml:"topic"`           // MQTT topic for weather service
			Enabled        bool          `yaml:"enabled"`         // Enable/disable weather service
			Interval       time.Duration `yaml:"interval"`        // Interval between fetches (in seconds)
			QOS            int           `yaml:"qos"`             // MQTT QoS level for weather messages
			Station        string        `yaml:"station"`         // Station label attached to readings
			Latitude       float64       `yaml:"latitude"`        // Site latitude
			Longitude      float64       `yaml:"longitude"`       // Site longitude
			RequestTimeout time.Duration `yaml:"request_timeout"` // Weather API request timeout (in seconds)
		} `yaml:"weather"`

		Inverter struct {
			Topic      string        `yaml:"topic"`       // MQTT topic for inverter service
			Enabled    bool          `yaml:"enabled"`     // Enable/disable inverter service
			Interval   time.Duration `yaml:"interval"`    // Interval between polls (in seconds)
			QOS        int           `yaml:"qos"`         // MQTT QoS level for inverter messages
			SerialPort string        `yaml:"serial_port"` // Serial port the controller is attached to
			BaudRate   int           `yaml:"baud_rate"`   // Baud rate for the serial link
		} `yaml:"inverter"`

		House struct {
			Topic            string        `yaml:"topic"`              // MQTT topic for house sensor service
			Enabled          bool          `yaml:"enabled"`            // Enable/disable house sensor service
			Interval         time.Duration `yaml:"interval"`           // Interval between collections (in seconds)
			Timeout          time.Duration `yaml:"timeout"`            // Timeout for one collection cycle (in seconds)
			QOS              int           `yaml:"qos"`                // MQTT QoS level for house messages
			SensorConfigFile string        `yaml:"sensor_config_file"` // Path to the sensor selection file
		} `yaml:"house"`

		Update struct {
			Topic        string `yaml:"topic"`         // MQTT topic for update commands
			Enabled      bool   `yaml:"enabled"`       // Enable/disable update service
			QOS          int    `yaml:"qos"`           // MQTT QoS level for update messages
			DownloadPath string `yaml:"download_path"` // Directory for downloaded builds
		} `yaml:"update"`
	} `yaml:"services"`

	Dashboard struct {
		ListenAddress      string        `yaml:"listen_address"`      // HTTP listen address
		QOS                int           `yaml:"qos"`                 // MQTT QoS level for subscriptions
		StalenessThreshold time.Duration `yaml:"staleness_threshold"` // Age after which a reading is stale (in seconds)

		Snapshot struct {
			Directory string        `yaml:"directory"` // Root directory for snapshot files
			Interval  time.Duration `yaml:"interval"`  // Flush interval (in seconds)
			Retention time.Duration `yaml:"retention"` // Max snapshot age before pruning (in seconds)
		} `yaml:"snapshot"`

		History struct {
			DatabasePath string        `yaml:"database_path"` // SQLite database path
			Retention    time.Duration `yaml:"retention"`     // Max row age before pruning (in seconds)
		} `yaml:"history"`

		Archive struct {
			Enabled   bool   `yaml:"enabled"`    // Upload expired snapshots before deletion
			Endpoint  string `yaml:"endpoint"`   // S3-compatible endpoint
			AccessKey string `yaml:"access_key"` // Access key ID
			SecretKey string `yaml:"secret_key"` // Secret access key
			Bucket    string `yaml:"bucket"`     // Target bucket
			UseSSL    bool   `yaml:"use_ssl"`    // Use TLS for the endpoint
		} `yaml:"archive"`
	} `yaml:"dashboard"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}
