package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/solarstack/solarmon/internal/constants"
	"github.com/solarstack/solarmon/internal/store"
	"github.com/solarstack/solarmon/pkg/mqtt"
)

// subscribedCategories are the reading categories the dashboard consumes.
var subscribedCategories = []string{
	constants.CategoryHouse,
	constants.CategoryWeather,
	constants.CategoryBattery,
	constants.CategoryStatus,
}

// historyCategories are persisted to SQLite; status messages are live-only.
var historyCategories = map[string]bool{
	constants.CategoryHouse:   true,
	constants.CategoryWeather: true,
	constants.CategoryBattery: true,
}

// Ingester subscribes to the reading topics and feeds the live state cache
// and the history store.
type Ingester struct {
	mqttClient mqtt.Client
	qos        int
	state      *LiveState
	history    *store.Store
	logger     zerolog.Logger

	running bool
}

// NewIngester initializes a new Ingester.
func NewIngester(mqttClient mqtt.Client, qos int, state *LiveState, history *store.Store, logger zerolog.Logger) *Ingester {
	return &Ingester{
		mqttClient: mqttClient,
		qos:        qos,
		state:      state,
		history:    history,
		logger:     logger,
	}
}

// Start subscribes to every reading category.
func (i *Ingester) Start() error {
	if i.running {
		return errors.New("ingester is already running")
	}

	for _, category := range subscribedCategories {
		topic := category + "/#"
		if err := i.mqttClient.Subscribe(topic, byte(i.qos), i.makeHandler(category)); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		i.logger.Info().Str("topic", topic).Msg("Subscribed to reading topic")
	}

	i.running = true
	return nil
}

// Stop unsubscribes from every reading category.
func (i *Ingester) Stop() error {
	if !i.running {
		return errors.New("ingester is not running")
	}

	topics := make([]string, 0, len(subscribedCategories))
	for _, category := range subscribedCategories {
		topics = append(topics, category+"/#")
	}
	if err := i.mqttClient.Unsubscribe(topics...); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	i.running = false
	return nil
}

// makeHandler builds the message handler for one category.
func (i *Ingester) makeHandler(category string) MQTT.MessageHandler {
	return func(client MQTT.Client, msg MQTT.Message) {
		i.HandleMessage(category, msg.Topic(), msg.Payload())
	}
}

// HandleMessage decodes one reading and updates the caches. A payload that
// cannot be decoded is counted and dropped; the subscriber keeps running.
func (i *Ingester) HandleMessage(category, topic string, payload []byte) {
	source := sourceFromTopic(topic)
	if source == "" {
		ingestErrors.WithLabelValues("bad_topic").Inc()
		i.logger.Warn().Str("topic", topic).Msg("Dropping message with sourceless topic")
		return
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		ingestErrors.WithLabelValues("bad_payload").Inc()
		i.logger.Warn().Err(err).Str("topic", topic).Msg("Dropping undecodable payload")
		return
	}

	timestamp := readingTimestamp(decoded)
	samples := extractSamples(decoded)

	entry := Entry{
		Category:  category,
		Source:    source,
		Timestamp: timestamp,
		Payload:   json.RawMessage(payload),
		Samples:   samples,
	}
	i.state.Put(entry)
	messagesIngested.WithLabelValues(category).Inc()

	if i.history != nil && historyCategories[category] {
		for metric, value := range samples {
			if err := i.history.InsertSample(category, source, metric, timestamp, value); err != nil {
				ingestErrors.WithLabelValues("history_write").Inc()
				i.logger.Error().Err(err).Str("metric", metric).Msg("Failed to store reading history")
			}
		}
	}
}

// sourceFromTopic extracts the publisher segment from "<category>/<source>[/...]".
func sourceFromTopic(topic string) string {
	parts := strings.SplitN(topic, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return parts[1]
}

// readingTimestamp parses the reading's own timestamp field, falling back to
// arrival time when absent or malformed.
func readingTimestamp(decoded map[string]interface{}) time.Time {
	raw, ok := decoded["timestamp"].(string)
	if ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}

// extractSamples pulls every numeric field out of a decoded reading.
// Booleans become 0/1 gauges; the nested house metrics map is flattened.
func extractSamples(decoded map[string]interface{}) map[string]float64 {
	samples := make(map[string]float64)

	for key, value := range decoded {
		switch v := value.(type) {
		case float64:
			samples[key] = v
		case bool:
			if v {
				samples[key] = 1
			} else {
				samples[key] = 0
			}
		case map[string]interface{}:
			if key != "metrics" {
				continue
			}
			for name, rawMetric := range v {
				metric, ok := rawMetric.(map[string]interface{})
				if !ok {
					continue
				}
				if value, ok := metric["value"].(float64); ok {
					samples[name] = value
				}
			}
		}
	}

	return samples
}
