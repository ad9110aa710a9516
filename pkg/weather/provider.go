package weather

import "context"

// Provider interface defines the methods for weather providers
type Provider interface {
	GetCurrent(ctx context.Context) (Observation, error)
}
