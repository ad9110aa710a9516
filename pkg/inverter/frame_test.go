package inverter

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildFrame assembles a wire frame with a valid checksum byte.
func buildFrame(pairs [][2]string) []byte {
	var buf bytes.Buffer
	for _, p := range pairs {
		buf.WriteString("\r\n")
		buf.WriteString(p[0])
		buf.WriteString("\t")
		buf.WriteString(p[1])
	}
	buf.WriteString("\r\nChecksum\t")

	var sum byte
	for _, b := range buf.Bytes() {
		sum += b
	}
	buf.WriteByte(byte(256 - int(sum)))

	return buf.Bytes()
}

func telemetryPairs() [][2]string {
	return [][2]string{
		{"V", "48250"},
		{"I", "-1500"},
		{"VPV", "92400"},
		{"PPV", "310"},
		{"IL", "2100"},
		{"SOC", "874"},
		{"CS", "3"},
		{"ERR", "0"},
		{"LOAD", "ON"},
	}
}

// TestDecoder_ValidFrame decodes a complete frame into its fields.
func TestDecoder_ValidFrame(t *testing.T) {
	decoder := NewDecoder(bytes.NewReader(buildFrame(telemetryPairs())))

	fields, err := decoder.Next()
	assert.NoError(t, err)
	assert.Equal(t, "48250", fields["V"])
	assert.Equal(t, "-1500", fields["I"])
	assert.Equal(t, "ON", fields["LOAD"])
	assert.Len(t, fields, 9)
}

// TestDecoder_ChecksumMismatch verifies a corrupted frame is rejected and
// the following frame still decodes.
func TestDecoder_ChecksumMismatch(t *testing.T) {
	bad := buildFrame(telemetryPairs())
	// flip one value digit, framing bytes untouched
	bad[bytes.IndexByte(bad, '4')] = '5'

	stream := append(bad, buildFrame(telemetryPairs())...)
	decoder := NewDecoder(bytes.NewReader(stream))

	_, err := decoder.Next()
	assert.ErrorIs(t, err, ErrChecksum)

	fields, err := decoder.Next()
	assert.NoError(t, err)
	assert.Equal(t, "48250", fields["V"])
}

// TestDecoder_MidStreamStart verifies a decoder joining mid-frame drops the
// partial frame and syncs on the next one.
func TestDecoder_MidStreamStart(t *testing.T) {
	full := buildFrame(telemetryPairs())
	stream := append(full[7:], buildFrame(telemetryPairs())...)
	decoder := NewDecoder(bytes.NewReader(stream))

	_, err := decoder.Next()
	assert.ErrorIs(t, err, ErrChecksum)

	fields, err := decoder.Next()
	assert.NoError(t, err)
	assert.Equal(t, "874", fields["SOC"])
}

// TestDecoder_EOF propagates stream exhaustion.
func TestDecoder_EOF(t *testing.T) {
	decoder := NewDecoder(bytes.NewReader(nil))

	_, err := decoder.Next()
	assert.ErrorIs(t, err, io.EOF)
}

// TestTelemetryFromFields_Conversions checks unit scaling.
func TestTelemetryFromFields_Conversions(t *testing.T) {
	decoder := NewDecoder(bytes.NewReader(buildFrame(telemetryPairs())))
	fields, err := decoder.Next()
	assert.NoError(t, err)

	telemetry, err := TelemetryFromFields(fields)
	assert.NoError(t, err)
	assert.Equal(t, 48.25, telemetry.BatteryVoltage)
	assert.Equal(t, -1.5, telemetry.BatteryCurrent)
	assert.Equal(t, 92.4, telemetry.PanelVoltage)
	assert.Equal(t, 310.0, telemetry.PanelPower)
	assert.Equal(t, 2.1, telemetry.LoadCurrent)
	assert.Equal(t, 87.4, telemetry.StateOfCharge)
	assert.Equal(t, "bulk", telemetry.ChargeState)
	assert.True(t, telemetry.LoadOn)
	assert.Equal(t, 0, telemetry.ErrorCode)
}

// TestTelemetryFromFields_MissingRequired rejects frames without battery readings.
func TestTelemetryFromFields_MissingRequired(t *testing.T) {
	_, err := TelemetryFromFields(map[string]string{"I": "100"})
	assert.Error(t, err)

	_, err = TelemetryFromFields(map[string]string{"V": "48000"})
	assert.Error(t, err)
}

// TestTelemetryFromFields_UnknownChargeState maps unrecognized CS codes.
func TestTelemetryFromFields_UnknownChargeState(t *testing.T) {
	telemetry, err := TelemetryFromFields(map[string]string{"V": "48000", "I": "0", "CS": "99"})
	assert.NoError(t, err)
	assert.Equal(t, "unknown", telemetry.ChargeState)
}
