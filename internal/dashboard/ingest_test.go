package dashboard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/store"
)

func TestHandleMessageUpdatesLiveState(t *testing.T) {
	state := NewLiveState()
	ingester := NewIngester(nil, 1, state, nil, zerolog.Nop())

	payload := []byte(`{"station":"backyard","timestamp":"2026-03-01T12:00:00Z","temperature":18.5,"humidity":61.0}`)
	ingester.HandleMessage(constants.CategoryWeather, "weather/backyard", payload)

	entries := state.Category(constants.CategoryWeather)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "backyard", entry.Source)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), entry.Timestamp)
	assert.Equal(t, 18.5, entry.Samples["temperature"])
	assert.Equal(t, 61.0, entry.Samples["humidity"])
}

func TestHandleMessageDropsBadPayload(t *testing.T) {
	state := NewLiveState()
	ingester := NewIngester(nil, 1, state, nil, zerolog.Nop())

	ingester.HandleMessage(constants.CategoryBattery, "battery/shed", []byte("not json"))

	assert.Empty(t, state.Category(constants.CategoryBattery))
}

func TestHandleMessageDropsSourcelessTopic(t *testing.T) {
	state := NewLiveState()
	ingester := NewIngester(nil, 1, state, nil, zerolog.Nop())

	ingester.HandleMessage(constants.CategoryHouse, "house", []byte(`{"cpu":1.0}`))

	assert.Empty(t, state.Category(constants.CategoryHouse))
}

func TestHandleMessagePersistsHistory(t *testing.T) {
	history, err := store.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	state := NewLiveState()
	ingester := NewIngester(nil, 1, state, history, zerolog.Nop())

	ingester.HandleMessage(constants.CategoryBattery, "battery/shed",
		[]byte(`{"timestamp":"2026-03-01T12:00:00Z","battery_voltage":13.2,"load":true}`))

	result, err := history.QueryRange(constants.CategoryBattery,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)

	require.Contains(t, result, "battery_voltage")
	assert.Equal(t, 13.2, result["battery_voltage"][0].Value)
	require.Contains(t, result, "load")
	assert.Equal(t, 1.0, result["load"][0].Value)
}

func TestHandleMessageSkipsStatusHistory(t *testing.T) {
	history, err := store.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	state := NewLiveState()
	ingester := NewIngester(nil, 1, state, history, zerolog.Nop())

	ingester.HandleMessage(constants.CategoryStatus, "status/dev-1",
		[]byte(`{"timestamp":"2026-03-01T12:00:00Z","uptime":42.0}`))

	require.Len(t, state.Category(constants.CategoryStatus), 1)

	result, err := history.QueryRange(constants.CategoryStatus,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestExtractSamplesFlattensHouseMetrics(t *testing.T) {
	samples := extractSamples(map[string]interface{}{
		"device_id": "pi-livingroom",
		"metrics": map[string]interface{}{
			"cpu_usage":    map[string]interface{}{"value": 12.5, "unit": "percent"},
			"memory_usage": map[string]interface{}{"value": 40.0, "unit": "percent"},
			"broken":       "not a metric",
		},
	})

	assert.Equal(t, 12.5, samples["cpu_usage"])
	assert.Equal(t, 40.0, samples["memory_usage"])
	assert.NotContains(t, samples, "broken")
	assert.NotContains(t, samples, "device_id")
}
