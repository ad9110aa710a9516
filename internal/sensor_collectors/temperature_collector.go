package sensor_collectors

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"
	"github.com/solarstack/solarmon/internal/models"
)

// TemperatureCollector reads the house machine's thermal sensors.
type TemperatureCollector struct {
	Logger zerolog.Logger
	Zone   string // substring match on the sensor key; first sensor when empty
}

func (t *TemperatureCollector) Name() string {
	return "temperature"
}

func (t *TemperatureCollector) Collect(ctx context.Context) (float64, error) {
	sensors, err := host.SensorsTemperatures()
	if err != nil {
		t.Logger.Error().Err(err).Msg("Failed to read thermal sensors")
		return 0, err
	}
	if len(sensors) == 0 {
		return 0, errors.New("no thermal sensors available")
	}

	if t.Zone == "" {
		return sensors[0].Temperature, nil
	}

	for _, s := range sensors {
		if strings.Contains(s.SensorKey, t.Zone) {
			return s.Temperature, nil
		}
	}

	return 0, errors.New("no thermal sensor matches configured zone")
}

func (t *TemperatureCollector) IsEnabled(config *models.SensorConfig) bool {
	return config.MonitorTemperature
}

func (t *TemperatureCollector) Unit() string {
	return "celsius"
}

func (t *TemperatureCollector) Description() string {
	return "Temperature reported by the machine's thermal sensors."
}
