package models

import "time"

// Metric is a single named measurement with its unit.
type Metric struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// HouseReading is the payload published on the house topic. It carries the
// house machine's sensor readings collected in one cycle.
type HouseReading struct {
	DeviceID  string            `json:"device_id"`
	Timestamp time.Time         `json:"timestamp"`
	Metrics   map[string]Metric `json:"metrics"`
}

// SensorConfig selects which house collectors run. It is loaded from a
// standalone JSON file so sensors can be toggled without touching the main
// configuration.
type SensorConfig struct {
	MonitorCPU         bool   `json:"monitor_cpu"`
	MonitorMemory      bool   `json:"monitor_memory"`
	MonitorDisk        bool   `json:"monitor_disk"`
	MonitorNetwork     bool   `json:"monitor_network"`
	MonitorTemperature bool   `json:"monitor_temperature"`
	DiskPath           string `json:"disk_path,omitempty"`
	ThermalZone        string `json:"thermal_zone,omitempty"`
}
