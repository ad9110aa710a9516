package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleSet() []Sample {
	ts := time.UnixMilli(1693468800000).UTC()
	return []Sample{
		{
			Metric:    "battery_voltage",
			Labels:    map[string]string{"device": "inverter1"},
			Value:     48.25,
			Timestamp: ts,
		},
		{
			Metric:    "battery_soc",
			Labels:    map[string]string{"device": "inverter1"},
			Value:     87.4,
			Timestamp: ts,
		},
		{
			Metric:    "weather_temperature",
			Labels:    map[string]string{"station": "roof", "unit": "celsius"},
			Value:     -3.5,
			Timestamp: ts,
		},
	}
}

// TestEncode_Deterministic verifies metrics and labels come out sorted.
func TestEncode_Deterministic(t *testing.T) {
	out := string(Encode(sampleSet()))

	expected := "# TYPE battery_soc gauge\n" +
		"battery_soc{device=\"inverter1\"} 87.4 1693468800000\n" +
		"# TYPE battery_voltage gauge\n" +
		"battery_voltage{device=\"inverter1\"} 48.25 1693468800000\n" +
		"# TYPE weather_temperature gauge\n" +
		"weather_temperature{station=\"roof\",unit=\"celsius\"} -3.5 1693468800000\n"

	assert.Equal(t, expected, out)
}

// TestParse_RoundTrip_NoLabels verifies a sample with an empty label set
// comes back identical, non-nil map included.
func TestParse_RoundTrip_NoLabels(t *testing.T) {
	in := []Sample{
		{
			Metric:    "uptime_seconds",
			Labels:    map[string]string{},
			Value:     42,
			Timestamp: time.UnixMilli(1693468800000).UTC(),
		},
	}

	parsed, err := Parse(Encode(in))
	assert.NoError(t, err)
	assert.Equal(t, in, parsed)
}

// TestParse_RoundTrip verifies parse(encode(x)) preserves every sample.
func TestParse_RoundTrip(t *testing.T) {
	in := sampleSet()

	parsed, err := Parse(Encode(in))
	assert.NoError(t, err)
	assert.Len(t, parsed, len(in))

	byKey := make(map[string]Sample)
	for _, s := range parsed {
		byKey[s.Metric+"|"+labelString(s.Labels)] = s
	}
	for _, want := range in {
		got, ok := byKey[want.Metric+"|"+labelString(want.Labels)]
		assert.True(t, ok, "missing sample %s", want.Metric)
		assert.Equal(t, want.Value, got.Value)
		assert.Equal(t, want.Timestamp.UnixMilli(), got.Timestamp.UnixMilli())
		assert.Equal(t, want.Labels, got.Labels)
	}
}

// TestParse_EscapedLabelValues covers backslash, quote and newline escapes.
func TestParse_EscapedLabelValues(t *testing.T) {
	in := []Sample{{
		Metric:    "house_note",
		Labels:    map[string]string{"text": "a\\b \"c\"\nend"},
		Value:     1,
		Timestamp: time.UnixMilli(1000).UTC(),
	}}

	parsed, err := Parse(Encode(in))
	assert.NoError(t, err)
	assert.Len(t, parsed, 1)
	assert.Equal(t, in[0].Labels, parsed[0].Labels)
}

// TestParse_NoLabels covers the bare metric line form.
func TestParse_NoLabels(t *testing.T) {
	parsed, err := Parse([]byte("uptime_seconds 42 1000\n"))
	assert.NoError(t, err)
	assert.Len(t, parsed, 1)
	assert.Equal(t, "uptime_seconds", parsed[0].Metric)
	assert.Equal(t, 42.0, parsed[0].Value)
	assert.Empty(t, parsed[0].Labels)
}

// TestParse_MalformedLines verifies errors name the offending line.
func TestParse_MalformedLines(t *testing.T) {
	cases := []string{
		"battery_voltage{device=\"x\" 48.2 1000\n",
		"battery_voltage 48.2\n",
		"battery_voltage nope 1000\n",
		" 48.2 1000\n",
	}

	for _, c := range cases {
		_, err := Parse([]byte(c))
		assert.Error(t, err, "expected error for %q", c)
	}
}

// TestWriteFile_Atomic verifies the snapshot lands without a lingering temp file.
func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "battery", "1693468800000.prom")

	err := WriteFile(path, sampleSet())
	assert.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should not remain")

	parsed, err := ReadFile(path)
	assert.NoError(t, err)
	assert.Len(t, parsed, 3)
}
