package sensor_collectors

import (
	"context"

	"github.com/solarstack/solarmon/internal/models"
)

// SensorCollector defines the interface for collecting a specific house reading.
type SensorCollector interface {
	Name() string                                 // Name of the reading (e.g., "cpu", "temperature")
	Collect(ctx context.Context) (float64, error) // Collect the reading
	IsEnabled(config *models.SensorConfig) bool   // Check if the reading is enabled in the config
	Unit() string                                 // Unit of the reading (e.g., "percentage", "celsius")
	Description() string                          // Description of the reading
}
