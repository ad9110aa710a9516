package dashboard

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the live readings and house history over HTTP. All
// endpoints are read-only; control of the devices stays on MQTT.
type Server struct {
	state            *LiveState
	history          *store.Store
	staleAfter       time.Duration
	historyRetention time.Duration
	logger           zerolog.Logger

	httpServer *http.Server
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    bool
}

// NewServer creates the HTTP server for the given listen address. history
// may be nil, which disables /api/house_historical.
func NewServer(addr string, state *LiveState, history *store.Store, staleAfter, historyRetention time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		state:            state,
		history:          history,
		staleAfter:       staleAfter,
		historyRetention: historyRetention,
		logger:           logger,
	}

	router := mux.NewRouter()
	router.Use(MetricsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/house", s.handleCategory(constants.CategoryHouse)).Methods(http.MethodGet)
	api.HandleFunc("/weather", s.handleCategory(constants.CategoryWeather)).Methods(http.MethodGet)
	api.HandleFunc("/battery", s.handleCategory(constants.CategoryBattery)).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleCategory(constants.CategoryStatus)).Methods(http.MethodGet)
	api.HandleFunc("/data", s.handleData).Methods(http.MethodGet)
	api.HandleFunc("/house_historical", s.handleHouseHistorical).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/", s.handlePage("solarmon")).Methods(http.MethodGet)
	router.HandleFunc("/house", s.handlePage("house", constants.CategoryHouse)).Methods(http.MethodGet)
	router.HandleFunc("/weather", s.handlePage("weather", constants.CategoryWeather)).Methods(http.MethodGet)
	router.HandleFunc("/battery", s.handlePage("battery", constants.CategoryBattery)).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return s
}

// Start begins serving HTTP and launches the history pruning loop.
func (s *Server) Start() error {
	if s.running {
		return errors.New("server is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("Dashboard HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	if s.history != nil && s.historyRetention > 0 {
		s.wg.Add(1)
		go s.pruneLoop(ctx)
	}

	return nil
}

// Stop shuts the HTTP server down gracefully and stops background loops.
func (s *Server) Stop() error {
	if !s.running {
		return errors.New("server is not running")
	}

	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("HTTP server shutdown error")
	}

	s.wg.Wait()
	s.running = false
	s.logger.Info().Msg("Dashboard HTTP server stopped")
	return nil
}

// pruneLoop deletes house history samples older than the retention window.
func (s *Server) pruneLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := time.Now().Add(-s.historyRetention)
			deleted, err := s.history.Prune(before)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune history")
				continue
			}
			if deleted > 0 {
				s.logger.Info().Int64("rows", deleted).Msg("Pruned expired history samples")
			}
		}
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
