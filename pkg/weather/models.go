package weather

import "time"

// Observation represents the current conditions at the configured site.
type Observation struct {
	Temperature   float64   // degrees celsius
	Humidity      float64   // relative percentage
	WindSpeed     float64   // km/h
	WindDirection float64   // degrees
	CloudCover    float64   // percentage
	Precipitation float64   // mm over the last interval
	ObservedAt    time.Time // provider-reported observation time
}
