package sensor_collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"
	"github.com/solarstack/solarmon/internal/models"
)

// DiskCollector collects disk usage of the configured filesystem.
type DiskCollector struct {
	Logger zerolog.Logger
	Path   string
}

func (d *DiskCollector) Name() string {
	return "disk"
}

func (d *DiskCollector) Collect(ctx context.Context) (float64, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}

	diskStats, err := disk.Usage(path)
	if err != nil {
		d.Logger.Error().Err(err).Str("path", path).Msg("Failed to get disk usage")
		return 0, err
	}
	return diskStats.UsedPercent, nil
}

func (d *DiskCollector) IsEnabled(config *models.SensorConfig) bool {
	return config.MonitorDisk
}

func (d *DiskCollector) Unit() string {
	return "percentage"
}

func (d *DiskCollector) Description() string {
	return "Percentage of disk space used on the monitored filesystem."
}
