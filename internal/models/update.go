package models

import "time"

// UpdateCommandPayload is received on the control topic when a new agent
// build is available.
type UpdateCommandPayload struct {
	UpdateVersion string `json:"version"`
	FileUrl       string `json:"file_url"`
	FileName      string `json:"file_name"`
	SHA256        string `json:"sha256,omitempty"`
}

// UpdateAck reports the outcome of an update command.
type UpdateAck struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	FileHash  string    `json:"file_hash,omitempty"`
}
