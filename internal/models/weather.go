package models

import "time"

// WeatherReading is the payload published on the weather topic.
type WeatherReading struct {
	DeviceID      string    `json:"device_id"`
	Station       string    `json:"station"`
	Timestamp     time.Time `json:"timestamp"`
	ObservedAt    time.Time `json:"observed_at"`
	Temperature   float64   `json:"temperature"`
	Humidity      float64   `json:"humidity"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection float64   `json:"wind_direction"`
	CloudCover    float64   `json:"cloud_cover"`
	Precipitation float64   `json:"precipitation"`
}
