package dashboard

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/store"
)

// defaultHistoryWindow is used when /api/house_historical gets no range.
const defaultHistoryWindow = 24 * time.Hour

// readingResponse is one source's latest reading as served by the API.
type readingResponse struct {
	Source     string          `json:"source"`
	Timestamp  time.Time       `json:"timestamp"`
	AgeSeconds float64         `json:"age_seconds"`
	Stale      bool            `json:"stale"`
	Data       json.RawMessage `json:"data"`
}

// categoryResponse is the JSON body for the per-category endpoints.
type categoryResponse struct {
	Category string            `json:"category"`
	Readings []readingResponse `json:"readings"`
}

// historyResponse mirrors the grouped range-query result.
type historyResponse struct {
	Start  time.Time                          `json:"start"`
	End    time.Time                          `json:"end"`
	Result map[string][]store.HistoricalPoint `json:"result"`
}

// handleCategory serves the latest readings of one category.
func (s *Server) handleCategory(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.categorySnapshot(category, time.Now().UTC()))
	}
}

// handleData serves the combined latest snapshot of every category.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	combined := make(map[string]categoryResponse)
	for _, category := range subscribedCategories {
		combined[category] = s.categorySnapshot(category, now)
	}

	s.writeJSON(w, http.StatusOK, combined)
}

// handleHouseHistorical serves ranged house history from SQLite. The range
// comes from RFC 3339 start/end parameters or an hours window; metrics can
// be narrowed with a comma-separated metrics parameter.
func (s *Server) handleHouseHistorical(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history store not configured", http.StatusServiceUnavailable)
		return
	}

	end := time.Now().UTC()
	start := end.Add(-defaultHistoryWindow)

	query := r.URL.Query()

	if raw := query.Get("hours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 {
			http.Error(w, "invalid hours parameter", http.StatusBadRequest)
			return
		}
		start = end.Add(-time.Duration(hours * float64(time.Hour)))
	}

	if raw := query.Get("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid start parameter", http.StatusBadRequest)
			return
		}
		start = parsed.UTC()
	}

	if raw := query.Get("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid end parameter", http.StatusBadRequest)
			return
		}
		end = parsed.UTC()
	}

	if start.After(end) {
		http.Error(w, "start must be before end", http.StatusBadRequest)
		return
	}

	var metrics []string
	if raw := query.Get("metrics"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				metrics = append(metrics, m)
			}
		}
	}

	result, err := s.history.QueryRange(constants.CategoryHouse, start, end, metrics)
	if err != nil {
		s.logger.Error().Err(err).Msg("History query failed")
		http.Error(w, "history query failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		Start:  start,
		End:    end,
		Result: result,
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// categorySnapshot builds the API view of one category, computing the stale
// flag from the reading age at request time.
func (s *Server) categorySnapshot(category string, now time.Time) categoryResponse {
	entries := s.state.Category(category)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Source < entries[j].Source })

	readings := make([]readingResponse, 0, len(entries))
	for _, entry := range entries {
		age := now.Sub(entry.Timestamp)
		readings = append(readings, readingResponse{
			Source:     entry.Source,
			Timestamp:  entry.Timestamp,
			AgeSeconds: age.Seconds(),
			Stale:      age > s.staleAfter,
			Data:       entry.Payload,
		})
	}

	return categoryResponse{
		Category: category,
		Readings: readings,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}
