package dashboard

import (
	"encoding/json"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Entry is the latest decoded reading from one source within a category.
type Entry struct {
	Category  string             `json:"category"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   json.RawMessage    `json:"payload"`
	Samples   map[string]float64 `json:"-"`
}

// LiveState holds the latest reading per category/source pair. The MQTT
// subscriber writes it; HTTP handlers only read.
type LiveState struct {
	entries cmap.ConcurrentMap[string, Entry]
}

// NewLiveState creates an empty state cache.
func NewLiveState() *LiveState {
	return &LiveState{
		entries: cmap.New[Entry](),
	}
}

// Put stores the latest reading for a category/source pair.
func (s *LiveState) Put(entry Entry) {
	s.entries.Set(entry.Category+"/"+entry.Source, entry)
}

// Category returns all current entries for one category.
func (s *LiveState) Category(category string) []Entry {
	var entries []Entry
	for _, entry := range s.entries.Items() {
		if entry.Category == category {
			entries = append(entries, entry)
		}
	}
	return entries
}

// All returns every current entry.
func (s *LiveState) All() []Entry {
	var entries []Entry
	for _, entry := range s.entries.Items() {
		entries = append(entries, entry)
	}
	return entries
}
