// Package notifier publishes created alerts to Kafka so downstream consumers
// (dashboards, paging) learn about them without polling the store. Publishing
// is best effort: a failed write is logged and never blocks or fails event
// processing.
package notifier

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"quakeguard/backend/internal/alert/domain"
)

// publishTimeout bounds a single async publish so slow brokers cannot pile up
// goroutines indefinitely.
const publishTimeout = 5 * time.Second

// KafkaNotifier writes alert notifications to a Kafka topic using
// segmentio/kafka-go. Messages are keyed by zone so per-zone ordering holds
// across partitions.
type KafkaNotifier struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaNotifier creates a notifier writing to the given topic. Returns
// (nil, nil) when brokers or topic are unset, which callers treat as
// notifications disabled. Call Close when shutting down.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaNotifier{writer: writer, topic: topic}, nil
}

type alertMessage struct {
	ID        int64     `json:"id"`
	ZoneID    int64     `json:"zone_id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  float64   `json:"severity"`
	Message   string    `json:"message"`
}

// Publish writes the alert in a goroutine so the processor loop is never
// blocked on the broker. The goroutine uses a background context with its own
// timeout so processor shutdown does not abort an in-flight publish.
func (n *KafkaNotifier) Publish(_ context.Context, a *domain.Alert) {
	if n == nil || n.writer == nil || a == nil {
		return
	}
	payload, err := json.Marshal(alertMessage{
		ID:        a.ID,
		ZoneID:    a.ZoneID,
		Timestamp: a.Timestamp,
		Severity:  a.Severity,
		Message:   a.Message,
	})
	if err != nil {
		log.Printf("notifier: marshal alert %d: %v", a.ID, err)
		return
	}
	zoneKey := []byte(strconv.FormatInt(a.ZoneID, 10))
	go func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.writer.WriteMessages(writeCtx, kafka.Message{Key: zoneKey, Value: payload}); err != nil {
			log.Printf("notifier: kafka publish failed for zone %d: %v", a.ZoneID, err)
		}
	}()
}

// Close closes the Kafka writer. Safe to call on a nil notifier.
func (n *KafkaNotifier) Close() error {
	if n == nil || n.writer == nil {
		return nil
	}
	return n.writer.Close()
}
