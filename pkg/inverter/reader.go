package inverter

import (
	"errors"

	"github.com/tarm/serial"
)

// Provider interface defines the methods for inverter telemetry sources
type Provider interface {
	ReadTelemetry() (Telemetry, error)
}

// maxFrameAttempts bounds how many corrupt frames a single read will skip.
const maxFrameAttempts = 5

// SerialProvider reads telemetry from a charge controller connected via serial port.
type SerialProvider struct {
	port     string // Serial port to which the controller is connected
	baudRate int    // Baud rate for the serial communication
}

// NewSerialProvider creates a new instance of SerialProvider with the specified port and baud rate.
func NewSerialProvider(port string, baudRate int) *SerialProvider {
	return &SerialProvider{
		port:     port,
		baudRate: baudRate,
	}
}

// ReadTelemetry opens the port, reads until a checksum-valid frame arrives
// and converts it. The first frame after opening is usually partial and is
// skipped via the checksum.
func (p *SerialProvider) ReadTelemetry() (Telemetry, error) {
	c := &serial.Config{Name: p.port, Baud: p.baudRate}
	s, err := serial.OpenPort(c)
	if err != nil {
		return Telemetry{}, err
	}
	defer s.Close() // Ensure the port is closed when done

	decoder := NewDecoder(s)
	for attempt := 0; attempt < maxFrameAttempts; attempt++ {
		fields, err := decoder.Next()
		if err != nil {
			if errors.Is(err, ErrChecksum) {
				continue
			}
			return Telemetry{}, err
		}
		return TelemetryFromFields(fields)
	}

	return Telemetry{}, errors.New("inverter: no valid frame within attempt budget")
}
