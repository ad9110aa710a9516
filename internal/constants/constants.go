package constants

// Heartbeat statuses
const (
	StatusAlive = "alive"
)

// Update acknowledgement statuses
const (
	UpdateAckApplied = "applied"
	UpdateAckSkipped = "skipped"
	UpdateAckFailed  = "failed"
)

// Reading categories as they appear in topics, snapshot directories and
// history rows.
const (
	CategoryHouse   = "house"
	CategoryWeather = "weather"
	CategoryBattery = "battery"
	CategoryStatus  = "status"
)
