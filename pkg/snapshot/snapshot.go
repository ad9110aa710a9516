package snapshot

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sample is a single metric observation destined for a snapshot file.
type Sample struct {
	Metric    string
	Labels    map[string]string
	Value     float64
	Timestamp time.Time
}

// Encode renders samples in the Prometheus text exposition format, one
// gauge line per sample with a millisecond timestamp. Output is
// deterministic: metrics sorted by name, labels sorted by key.
func Encode(samples []Sample) []byte {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Metric != sorted[j].Metric {
			return sorted[i].Metric < sorted[j].Metric
		}
		return labelString(sorted[i].Labels) < labelString(sorted[j].Labels)
	})

	var buf bytes.Buffer
	lastMetric := ""
	for _, s := range sorted {
		if s.Metric != lastMetric {
			fmt.Fprintf(&buf, "# TYPE %s gauge\n", s.Metric)
			lastMetric = s.Metric
		}
		buf.WriteString(s.Metric)
		if len(s.Labels) > 0 {
			buf.WriteString("{")
			buf.WriteString(labelString(s.Labels))
			buf.WriteString("}")
		}
		fmt.Fprintf(&buf, " %s %d\n", formatValue(s.Value), s.Timestamp.UnixMilli())
	}

	return buf.Bytes()
}

// Parse reads exposition-format lines back into samples. Comment lines are
// skipped; malformed lines produce an error naming the line number. Parsed
// samples always carry a non-nil Labels map, so a sample encoded with an
// empty label set round-trips unchanged.
func Parse(data []byte) ([]Sample, error) {
	var samples []Sample

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// WriteFile writes the encoded samples to path atomically. A reader never
// observes a partially written snapshot.
func WriteFile(path string, samples []Sample) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, Encode(samples), 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return os.Rename(tempFile, path)
}

// ReadFile reads and parses a snapshot file.
func ReadFile(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func parseLine(line string) (Sample, error) {
	sample := Sample{Labels: make(map[string]string)}

	rest := line
	if idx := strings.IndexByte(line, '{'); idx >= 0 {
		end := strings.LastIndexByte(line, '}')
		if end < idx {
			return sample, fmt.Errorf("unbalanced label braces")
		}
		sample.Metric = line[:idx]
		labels, err := parseLabels(line[idx+1 : end])
		if err != nil {
			return sample, err
		}
		sample.Labels = labels
		rest = strings.TrimSpace(line[end+1:])
	} else {
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			return sample, fmt.Errorf("missing value")
		}
		sample.Metric = fields[0]
		rest = strings.TrimSpace(fields[1])
	}

	if sample.Metric == "" {
		return sample, fmt.Errorf("empty metric name")
	}

	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return sample, fmt.Errorf("expected value and timestamp, got %q", rest)
	}

	value, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return sample, fmt.Errorf("bad value %q: %w", fields[0], err)
	}
	sample.Value = value

	millis, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return sample, fmt.Errorf("bad timestamp %q: %w", fields[1], err)
	}
	sample.Timestamp = time.UnixMilli(millis).UTC()

	return sample, nil
}

func parseLabels(s string) (map[string]string, error) {
	labels := make(map[string]string)
	for len(s) > 0 {
		eq := strings.IndexByte(s, '=')
		if eq < 0 {
			return nil, fmt.Errorf("label without value in %q", s)
		}
		key := s[:eq]
		s = s[eq+1:]
		if len(s) == 0 || s[0] != '"' {
			return nil, fmt.Errorf("unquoted label value for %q", key)
		}

		value, rest, err := unquoteLabelValue(s)
		if err != nil {
			return nil, err
		}
		labels[key] = value
		s = strings.TrimPrefix(rest, ",")
	}
	return labels, nil
}

func unquoteLabelValue(s string) (string, string, error) {
	// s starts at the opening quote
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return "", "", fmt.Errorf("dangling escape in label value")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), s[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated label value")
}

func labelString(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+`="`+escapeLabelValue(labels[k])+`"`)
	}
	return strings.Join(parts, ",")
}

func escapeLabelValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
