package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// currentFields is the set of variables requested from the API.
const currentFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,wind_direction_10m,cloud_cover,precipitation"

// OpenMeteoProvider fetches current conditions from the Open-Meteo API.
type OpenMeteoProvider struct {
	baseURL   string
	latitude  float64
	longitude float64
	client    *http.Client
}

// NewOpenMeteoProvider creates a provider for the given site coordinates.
func NewOpenMeteoProvider(latitude, longitude float64, timeout time.Duration) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		baseURL:   defaultBaseURL,
		latitude:  latitude,
		longitude: longitude,
		client:    &http.Client{Timeout: timeout},
	}
}

// NewOpenMeteoProviderWithBaseURL creates a provider pointed at a custom
// endpoint, used by tests.
func NewOpenMeteoProviderWithBaseURL(baseURL string, latitude, longitude float64, timeout time.Duration) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(latitude, longitude, timeout)
	p.baseURL = baseURL
	return p
}

// openMeteoResponse mirrors the subset of the API response we consume.
type openMeteoResponse struct {
	Current struct {
		Time            string  `json:"time"`
		Temperature     float64 `json:"temperature_2m"`
		Humidity        float64 `json:"relative_humidity_2m"`
		WindSpeed       float64 `json:"wind_speed_10m"`
		WindDirection   float64 `json:"wind_direction_10m"`
		CloudCover      float64 `json:"cloud_cover"`
		Precipitation   float64 `json:"precipitation"`
	} `json:"current"`
}

// GetCurrent retrieves the current conditions for the configured coordinates.
func (p *OpenMeteoProvider) GetCurrent(ctx context.Context) (Observation, error) {
	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.4f", p.latitude))
	query.Set("longitude", fmt.Sprintf("%.4f", p.longitude))
	query.Set("current", currentFields)
	query.Set("timeformat", "iso8601")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Observation{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Observation{}, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var decoded openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Observation{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	observedAt, err := time.Parse("2006-01-02T15:04", decoded.Current.Time)
	if err != nil {
		// Some deployments return full RFC 3339 timestamps
		observedAt, err = time.Parse(time.RFC3339, decoded.Current.Time)
		if err != nil {
			return Observation{}, fmt.Errorf("failed to parse observation time %q: %w", decoded.Current.Time, err)
		}
	}

	return Observation{
		Temperature:   decoded.Current.Temperature,
		Humidity:      decoded.Current.Humidity,
		WindSpeed:     decoded.Current.WindSpeed,
		WindDirection: decoded.Current.WindDirection,
		CloudCover:    decoded.Current.CloudCover,
		Precipitation: decoded.Current.Precipitation,
		ObservedAt:    observedAt.UTC(),
	}, nil
}
