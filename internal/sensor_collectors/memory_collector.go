package sensor_collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
	"github.com/solarstack/solarmon/internal/models"
)

// MemoryCollector collects the percentage of used virtual memory.
type MemoryCollector struct {
	Logger zerolog.Logger
}

// Name returns the identifier for the memory collector.
func (m *MemoryCollector) Name() string {
	return "memory"
}

// Collect retrieves the percentage of used virtual memory.
func (m *MemoryCollector) Collect(ctx context.Context) (float64, error) {
	memStats, err := mem.VirtualMemory()
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to retrieve memory statistics")
		return 0, err
	}

	m.Logger.Debug().
		Float64("memory_usage_percent", memStats.UsedPercent).
		Msg("Memory usage collected successfully")

	return memStats.UsedPercent, nil
}

// IsEnabled checks if memory monitoring is enabled in the configuration.
func (m *MemoryCollector) IsEnabled(config *models.SensorConfig) bool {
	return config.MonitorMemory
}

// Unit specifies the unit for memory usage readings.
func (m *MemoryCollector) Unit() string {
	return "percentage"
}

// Description provides details of the memory readings collected.
func (m *MemoryCollector) Description() string {
	return "Percentage of used virtual memory."
}
