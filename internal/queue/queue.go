// Package queue provides the FIFO event queue decoupling the ingestion
// gateway (many producers) from the stream processor (single consumer).
//
// Delivery is best-effort: an event is durable in Redis until popped, but
// there is no consumer acknowledgment, so an event the processor has popped
// and then repeatedly failed to persist is dropped after logging. The
// gateway's "accepted" response therefore means admitted, not durable.
package queue

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors for queue operations; the gateway maps both push failures
// to a retryable 503.
var (
	// ErrQueueFull indicates the queue is at capacity.
	ErrQueueFull = errors.New("event queue full")
	// ErrClosed indicates the queue has been closed.
	ErrClosed = errors.New("event queue closed")
)

// Event is one validated measurement in flight between the gateway and the
// processor. ZoneID is resolved from the sensor's registration at ingest
// time, never trusted from the client. ID correlates gateway and worker logs.
type Event struct {
	ID              string `json:"id"`
	Value           int64  `json:"value"`
	SensorID        int64  `json:"misurator_id"`
	ZoneID          int64  `json:"zone_id"`
	DeviceTimestamp int64  `json:"device_timestamp"`
}

// Marshal encodes the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalEvent decodes an event from its wire form.
func UnmarshalEvent(b []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(b, &e)
	return e, err
}

// Queue is a single logical FIFO between many concurrent producers and one
// consumer. Push must fail fast (ErrQueueFull or context deadline) rather
// than block indefinitely; Pop blocks until an event is available or ctx is
// done.
type Queue interface {
	Push(ctx context.Context, e Event) error
	Pop(ctx context.Context) (Event, error)
	Close() error
}
