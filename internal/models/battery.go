package models

import "time"

// InverterReading is the payload published on the battery topic.
type InverterReading struct {
	DeviceID       string    `json:"device_id"`
	Timestamp      time.Time `json:"timestamp"`
	BatteryVoltage float64   `json:"battery_voltage"`
	BatteryCurrent float64   `json:"battery_current"`
	PanelVoltage   float64   `json:"panel_voltage"`
	PanelPower     float64   `json:"panel_power"`
	LoadCurrent    float64   `json:"load_current"`
	LoadOn         bool      `json:"load_on"`
	StateOfCharge  float64   `json:"state_of_charge"`
	ChargeState    string    `json:"charge_state"`
	ErrorCode      int       `json:"error_code"`
}
