package inverter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrChecksum is returned when a frame's modulo-256 checksum does not add
// up to zero. The caller is expected to read the next frame.
var ErrChecksum = errors.New("inverter: frame checksum mismatch")

const checksumLabel = "Checksum"

// decoder states for the tab-separated field protocol. Each field arrives
// as "\r\nLABEL\tVALUE"; the frame ends with a Checksum field whose value
// is the single byte that makes the whole frame sum to zero.
const (
	stateIdle = iota
	stateLabel
	stateValue
	stateChecksum
)

// Decoder reads telemetry frames from a byte stream.
type Decoder struct {
	r   *bufio.Reader
	sum byte
}

// NewDecoder wraps the given stream, typically an open serial port.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads one complete frame and returns its fields. A frame read
// mid-stream or corrupted on the wire fails with ErrChecksum; the decoder
// stays in sync and the following frame can be read normally.
func (d *Decoder) Next() (map[string]string, error) {
	fields := make(map[string]string)
	var label, value []byte
	state := stateIdle

	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		d.sum += b

		switch state {
		case stateIdle:
			if b == '\n' {
				label = label[:0]
				state = stateLabel
			}
		case stateLabel:
			switch b {
			case '\t':
				if string(label) == checksumLabel {
					state = stateChecksum
				} else {
					value = value[:0]
					state = stateValue
				}
			case '\r', '\n':
				label = label[:0]
			default:
				label = append(label, b)
			}
		case stateValue:
			if b == '\r' || b == '\n' {
				fields[string(label)] = string(value)
				if b == '\n' {
					label = label[:0]
					state = stateLabel
				} else {
					state = stateIdle
				}
			} else {
				value = append(value, b)
			}
		case stateChecksum:
			valid := d.sum == 0
			d.sum = 0
			if !valid {
				return nil, ErrChecksum
			}
			return fields, nil
		}
	}
}

// TelemetryFromFields converts raw frame fields into engineering units.
// The controller reports millivolts, milliamps and permille state of charge.
func TelemetryFromFields(fields map[string]string) (Telemetry, error) {
	t := Telemetry{}

	v, err := requiredInt(fields, "V")
	if err != nil {
		return t, err
	}
	t.BatteryVoltage = float64(v) / 1000

	i, err := requiredInt(fields, "I")
	if err != nil {
		return t, err
	}
	t.BatteryCurrent = float64(i) / 1000

	if raw, ok := fields["VPV"]; ok {
		vpv, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad VPV %q: %w", raw, err)
		}
		t.PanelVoltage = float64(vpv) / 1000
	}

	if raw, ok := fields["PPV"]; ok {
		ppv, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad PPV %q: %w", raw, err)
		}
		t.PanelPower = float64(ppv)
	}

	if raw, ok := fields["IL"]; ok {
		il, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad IL %q: %w", raw, err)
		}
		t.LoadCurrent = float64(il) / 1000
	}

	if raw, ok := fields["SOC"]; ok {
		soc, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad SOC %q: %w", raw, err)
		}
		t.StateOfCharge = float64(soc) / 10
	}

	if raw, ok := fields["CS"]; ok {
		cs, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad CS %q: %w", raw, err)
		}
		if name, known := chargeStates[cs]; known {
			t.ChargeState = name
		} else {
			t.ChargeState = "unknown"
		}
	}

	if raw, ok := fields["ERR"]; ok {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("inverter: bad ERR %q: %w", raw, err)
		}
		t.ErrorCode = code
	}

	t.LoadOn = fields["LOAD"] == "ON"

	return t, nil
}

func requiredInt(fields map[string]string, key string) (int, error) {
	raw, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("inverter: frame missing %s field", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("inverter: bad %s %q: %w", key, raw, err)
	}
	return n, nil
}
