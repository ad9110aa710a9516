package sensor_collectors

// The registry manages all sensor collectors and provides a way to add/remove them dynamically.
type SensorRegistry struct {
	collectors map[string]SensorCollector
}

// NewSensorRegistry creates a new SensorRegistry instance.
func NewSensorRegistry() *SensorRegistry {
	return &SensorRegistry{
		collectors: make(map[string]SensorCollector),
	}
}

// Register adds a new sensor collector to the registry.
func (r *SensorRegistry) Register(collector SensorCollector) {
	r.collectors[collector.Name()] = collector
}

// GetCollectors returns all the sensor collectors registered in the registry.
func (r *SensorRegistry) GetCollectors() map[string]SensorCollector {
	return r.collectors
}
