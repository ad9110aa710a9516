package sensor_collectors

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
	"github.com/solarstack/solarmon/internal/models"
)

// CPUCollector collects CPU usage of the house machine.
type CPUCollector struct {
	Logger zerolog.Logger
}

func (c *CPUCollector) Name() string {
	return "cpu"
}

func (c *CPUCollector) Collect(ctx context.Context) (float64, error) {
	cpuPercentages, err := cpu.Percent(0, false)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to get CPU usage")
		return 0, err
	}

	if len(cpuPercentages) == 0 {
		return 0, errors.New("CPU usage data is empty")
	}

	c.Logger.Debug().Float64("cpu_usage", cpuPercentages[0]).Msg("CPU usage collected successfully")
	return cpuPercentages[0], nil
}

func (c *CPUCollector) IsEnabled(config *models.SensorConfig) bool {
	return config.MonitorCPU
}

func (c *CPUCollector) Unit() string {
	return "percentage"
}

func (c *CPUCollector) Description() string {
	return "Percentage of CPU utilization across all cores."
}
