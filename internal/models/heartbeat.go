package models

import "time"

// Heartbeat represents the structure for a station liveness event.
type Heartbeat struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Version   string    `json:"version,omitempty"`
}
