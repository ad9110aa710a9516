package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/store"
)

func newTestServer(t *testing.T, state *LiveState, history *store.Store) *Server {
	t.Helper()
	return NewServer("127.0.0.1:0", state, history, 5*time.Minute, 0, zerolog.Nop())
}

func TestHandleCategoryMarksStaleReadings(t *testing.T) {
	state := NewLiveState()
	now := time.Now().UTC()

	state.Put(Entry{
		Category:  constants.CategoryHouse,
		Source:    "pi-livingroom",
		Timestamp: now,
		Payload:   json.RawMessage(`{"cpu":12.5}`),
	})
	state.Put(Entry{
		Category:  constants.CategoryHouse,
		Source:    "pi-attic",
		Timestamp: now.Add(-time.Hour),
		Payload:   json.RawMessage(`{"cpu":3.0}`),
	})

	server := newTestServer(t, state, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/house", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body categoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Readings, 2)
	assert.Equal(t, "pi-attic", body.Readings[0].Source)
	assert.True(t, body.Readings[0].Stale)
	assert.Equal(t, "pi-livingroom", body.Readings[1].Source)
	assert.False(t, body.Readings[1].Stale)
}

func TestHandleDataCombinesCategories(t *testing.T) {
	state := NewLiveState()
	now := time.Now().UTC()

	state.Put(Entry{Category: constants.CategoryWeather, Source: "backyard", Timestamp: now, Payload: json.RawMessage(`{"temperature":21.5}`)})
	state.Put(Entry{Category: constants.CategoryBattery, Source: "shed", Timestamp: now, Payload: json.RawMessage(`{"battery_voltage":13.2}`)})

	server := newTestServer(t, state, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]categoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Contains(t, body, constants.CategoryWeather)
	require.Contains(t, body, constants.CategoryBattery)
	assert.Len(t, body[constants.CategoryWeather].Readings, 1)
	assert.Len(t, body[constants.CategoryBattery].Readings, 1)
	assert.Empty(t, body[constants.CategoryHouse].Readings)
}

func TestHandleHouseHistorical(t *testing.T) {
	history, err := store.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, history.InsertSample(constants.CategoryHouse, "pi-livingroom", "cpu", now.Add(-time.Hour), 12.5))
	require.NoError(t, history.InsertSample(constants.CategoryHouse, "pi-livingroom", "memory", now.Add(-time.Hour), 40.0))
	require.NoError(t, history.InsertSample(constants.CategoryHouse, "pi-livingroom", "cpu", now.Add(-48*time.Hour), 99.0))

	server := newTestServer(t, NewLiveState(), history)

	req := httptest.NewRequest(http.MethodGet, "/api/house_historical?hours=24&metrics=cpu", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Contains(t, body.Result, "cpu")
	assert.NotContains(t, body.Result, "memory")
	require.Len(t, body.Result["cpu"], 1)
	assert.Equal(t, 12.5, body.Result["cpu"][0].Value)
}

func TestHandleHouseHistoricalEmptyRange(t *testing.T) {
	history, err := store.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer history.Close()

	server := newTestServer(t, NewLiveState(), history)

	req := httptest.NewRequest(http.MethodGet, "/api/house_historical", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Result)
}

func TestHandleHouseHistoricalRejectsBadParams(t *testing.T) {
	server := newTestServer(t, NewLiveState(), &store.Store{})

	cases := []string{
		"/api/house_historical?hours=abc",
		"/api/house_historical?hours=-2",
		"/api/house_historical?start=yesterday",
		"/api/house_historical?start=2026-01-02T00:00:00Z&end=2026-01-01T00:00:00Z",
	}
	for _, url := range cases {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, url)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, NewLiveState(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCategoryPageRendersReadings(t *testing.T) {
	state := NewLiveState()
	state.Put(Entry{
		Category:  constants.CategoryWeather,
		Source:    "backyard",
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(`{"temperature":21.5}`),
	})

	server := newTestServer(t, state, nil)

	req := httptest.NewRequest(http.MethodGet, "/weather", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "backyard")
	assert.Contains(t, rec.Body.String(), "temperature")
}
