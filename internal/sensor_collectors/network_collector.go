package sensor_collectors

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
	"github.com/solarstack/solarmon/internal/models"
)

// ErrNoRateYet is returned on the first collection cycle, before a rate can
// be computed from two counter readings.
var ErrNoRateYet = errors.New("network rate unavailable on first cycle")

// NetworkCollector collects the combined network I/O rate.
type NetworkCollector struct {
	Logger zerolog.Logger

	// cache previous values for rate calculation
	lastIn   uint64
	lastOut  uint64
	lastTime time.Time
}

// Name returns the identifier for the network collector.
func (n *NetworkCollector) Name() string {
	return "network"
}

// Collect retrieves the combined receive+send rate since the previous cycle.
func (n *NetworkCollector) Collect(ctx context.Context) (float64, error) {
	netStats, err := net.IOCounters(false)
	if err != nil {
		n.Logger.Error().Err(err).Msg("Failed to retrieve network statistics")
		return 0, err
	}
	if len(netStats) == 0 {
		return 0, errors.New("no network statistics available")
	}

	curr := netStats[0]
	now := time.Now()

	// first run → cannot compute rate
	if n.lastTime.IsZero() {
		n.lastIn = curr.BytesRecv
		n.lastOut = curr.BytesSent
		n.lastTime = now
		return 0, ErrNoRateYet
	}

	secs := now.Sub(n.lastTime).Seconds()
	if secs <= 0 {
		return 0, ErrNoRateYet
	}

	rate := float64((curr.BytesRecv-n.lastIn)+(curr.BytesSent-n.lastOut)) / secs

	n.lastIn = curr.BytesRecv
	n.lastOut = curr.BytesSent
	n.lastTime = now

	n.Logger.Debug().
		Float64("network_rate", rate).
		Msg("Network I/O rate collected successfully")

	return rate, nil
}

// IsEnabled checks if network monitoring is enabled in the configuration.
func (n *NetworkCollector) IsEnabled(config *models.SensorConfig) bool {
	return config.MonitorNetwork
}

// Unit specifies the unit for the network I/O rate reading.
func (n *NetworkCollector) Unit() string {
	return "bytes per second"
}

// Description provides a summary of the network reading collected.
func (n *NetworkCollector) Description() string {
	return "Combined network receive/send rate in bytes per second."
}
