package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoricalPoint is one stored observation returned from a range query.
type HistoricalPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Value     float64   `json:"value"`
}

// Store wraps the SQLite connection holding reading history.
type Store struct {
	conn *sql.DB
}

// NewStore opens the database at dbPath and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{conn: conn}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		source TEXT NOT NULL,
		metric TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL NOT NULL,
		UNIQUE(category, source, metric, timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_category_metric_timestamp ON readings(category, metric, timestamp);
	`

	_, err := s.conn.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// InsertSample stores one observation. Duplicate timestamps for the same
// metric are ignored so replayed MQTT messages do not fail ingest.
func (s *Store) InsertSample(category, source, metric string, timestamp time.Time, value float64) error {
	_, err := s.conn.Exec(
		`INSERT OR IGNORE INTO readings (category, source, metric, timestamp, value) VALUES (?, ?, ?, ?, ?)`,
		category, source, metric, timestamp.UnixMilli(), value,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// QueryRange returns observations for a category between start and end,
// grouped by metric and ordered by time. An empty metrics slice selects all
// metrics in the category.
func (s *Store) QueryRange(category string, start, end time.Time, metrics []string) (map[string][]HistoricalPoint, error) {
	if start.After(end) {
		return nil, fmt.Errorf("start time must be before or equal to end time")
	}

	query := `
		SELECT metric, source, timestamp, value
		FROM readings
		WHERE category = ? AND timestamp >= ? AND timestamp <= ?
	`
	args := []interface{}{category, start.UnixMilli(), end.UnixMilli()}

	if len(metrics) > 0 {
		query += " AND metric IN ("
		for i, m := range metrics {
			if i > 0 {
				query += ","
			}
			query += "?"
			args = append(args, m)
		}
		query += ")"
	}

	query += " ORDER BY metric, timestamp"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query database: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]HistoricalPoint)

	for rows.Next() {
		var metric, source string
		var millis int64
		var value float64

		if err := rows.Scan(&metric, &source, &millis, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		result[metric] = append(result[metric], HistoricalPoint{
			Timestamp: time.UnixMilli(millis).UTC(),
			Source:    source,
			Value:     value,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Prune deletes observations older than the cutoff and reports the number
// of removed rows.
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.conn.Exec(`DELETE FROM readings WHERE timestamp < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", err)
	}
	return res.RowsAffected()
}
