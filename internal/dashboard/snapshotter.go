package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/pkg/objstore"
	"github.com/solarstack/solarmon/pkg/snapshot"
)

// snapshotCategories are flushed to disk; status entries are not persisted.
var snapshotCategories = []string{
	constants.CategoryHouse,
	constants.CategoryWeather,
	constants.CategoryBattery,
}

// Snapshotter periodically flushes the live state to Prometheus-format
// snapshot files and prunes expired ones, optionally archiving them to
// object storage first.
type Snapshotter struct {
	state     *LiveState
	directory string
	interval  time.Duration
	retention time.Duration
	storage   objstore.ObjectStorageClient // nil disables archiving
	bucket    string
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotter initializes a new Snapshotter.
func NewSnapshotter(state *LiveState, directory string, interval, retention time.Duration,
	storage objstore.ObjectStorageClient, bucket string, logger zerolog.Logger) *Snapshotter {
	return &Snapshotter{
		state:     state,
		directory: directory,
		interval:  interval,
		retention: retention,
		storage:   storage,
		bucket:    bucket,
		logger:    logger,
	}
}

// Start launches the flush loop.
func (s *Snapshotter) Start() error {
	if s.ctx != nil {
		return errors.New("snapshotter is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.runFlushLoop()

	s.logger.Info().Str("directory", s.directory).Msg("Snapshotter started successfully")
	return nil
}

// Stop flushes once more and stops the loop.
func (s *Snapshotter) Stop() error {
	if s.ctx == nil {
		return errors.New("snapshotter is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("Snapshotter stopped successfully")
	return nil
}

func (s *Snapshotter) runFlushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush(time.Now().UTC())
			if err := s.PruneExpired(time.Now().UTC()); err != nil {
				s.logger.Error().Err(err).Msg("Snapshot pruning failed")
			}
		case <-s.ctx.Done():
			// final flush so a restart picks up from current readings
			s.Flush(time.Now().UTC())
			return
		}
	}
}

// Flush writes one snapshot file per category holding current readings.
func (s *Snapshotter) Flush(now time.Time) {
	for _, category := range snapshotCategories {
		entries := s.state.Category(category)
		if len(entries) == 0 {
			continue
		}

		var samples []snapshot.Sample
		for _, entry := range entries {
			for metric, value := range entry.Samples {
				samples = append(samples, snapshot.Sample{
					Metric:    metric,
					Labels:    map[string]string{"category": category, "source": entry.Source},
					Value:     value,
					Timestamp: entry.Timestamp,
				})
			}
		}
		if len(samples) == 0 {
			continue
		}

		path := filepath.Join(s.directory, category, fmt.Sprintf("%d.prom", now.UnixMilli()))
		if err := snapshot.WriteFile(path, samples); err != nil {
			s.logger.Error().Err(err).Str("path", path).Msg("Failed to write snapshot")
			continue
		}

		snapshotWrites.Inc()
		s.logger.Debug().Str("path", path).Int("samples", len(samples)).Msg("Snapshot written")
	}
}

// PruneExpired removes snapshot files older than the retention window,
// uploading each to object storage first when archiving is configured.
func (s *Snapshotter) PruneExpired(now time.Time) error {
	cutoff := now.Add(-s.retention)

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	var pruneErrors []error
	for _, category := range snapshotCategories {
		dir := filepath.Join(s.directory, category)
		files, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			pruneErrors = append(pruneErrors, err)
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".prom") {
				continue
			}

			written, ok := snapshotFileTime(f.Name())
			if !ok || !written.Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, f.Name())
			if s.storage != nil {
				objectName := category + "/" + f.Name()
				if err := s.storage.UploadFile(ctx, s.bucket, objectName, path, "text/plain"); err != nil {
					s.logger.Error().Err(err).Str("object", objectName).Msg("Failed to archive snapshot, keeping file")
					pruneErrors = append(pruneErrors, err)
					continue
				}
				snapshotsArchived.Inc()
			}

			if err := os.Remove(path); err != nil {
				pruneErrors = append(pruneErrors, err)
			}
		}
	}

	return errors.Join(pruneErrors...)
}

// snapshotFileTime recovers the write time from a "<unixms>.prom" name.
func snapshotFileTime(name string) (time.Time, bool) {
	millis, err := strconv.ParseInt(strings.TrimSuffix(name, ".prom"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis).UTC(), true
}
