package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"quakeguard/backend/internal/queue"
	"quakeguard/backend/internal/security"
	sensordomain "quakeguard/backend/internal/sensor/domain"
)

// Sentinel errors for the ingestion gateway; the handler maps them to HTTP
// statuses.
var (
	// ErrUnauthorizedSensor covers unknown, inactive, and keyless sensors (403).
	ErrUnauthorizedSensor = errors.New("sensor unknown, inactive, or has no registered key")
	// ErrStaleTimestamp indicates the device timestamp is outside the allowed drift window (403).
	ErrStaleTimestamp = errors.New("device timestamp outside allowed drift window")
	// ErrInvalidSignature indicates the signature did not verify against the canonical message (401).
	ErrInvalidSignature = errors.New("signature verification failed")
	// ErrVerifierBusy indicates the verification pool rejected the task (503, retryable).
	ErrVerifierBusy = errors.New("verification pool saturated")
	// ErrQueueUnavailable indicates the event could not be enqueued in time (503, retryable).
	ErrQueueUnavailable = errors.New("event queue unavailable")
)

// Request is one signed measurement as received on the wire. Signature holds
// the decoded bytes (ASN.1 DER or raw r||s); the handler owns hex decoding.
type Request struct {
	Value           int64
	SensorID        int64
	DeviceTimestamp int64
	Signature       []byte
}

// SensorRepo is the minimal sensor repository needed by the gateway.
type SensorRepo interface {
	GetByID(ctx context.Context, id int64) (*sensordomain.Sensor, error)
}

// Verifier runs signature checks off the request path. Submit must not block:
// it returns a result channel or an error when no capacity is available.
type Verifier interface {
	Submit(publicKey, message, signature []byte) (<-chan bool, error)
}

// IngestService authorizes a sensor, verifies its signature on the worker
// pool, and enqueues the validated event. It never writes measurements
// itself; persistence happens downstream in the stream processor.
type IngestService struct {
	sensors     SensorRepo
	verifier    Verifier
	events      queue.Queue
	maxDrift    time.Duration
	pushTimeout time.Duration
}

// NewIngestService returns an IngestService with the given dependencies.
// maxDrift <= 0 disables the freshness check.
func NewIngestService(sensors SensorRepo, verifier Verifier, events queue.Queue, maxDrift, pushTimeout time.Duration) *IngestService {
	if pushTimeout <= 0 {
		pushTimeout = 2 * time.Second
	}
	return &IngestService{
		sensors:     sensors,
		verifier:    verifier,
		events:      events,
		maxDrift:    maxDrift,
		pushTimeout: pushTimeout,
	}
}

// Ingest validates and enqueues one signed measurement, returning the queue
// event ID for log correlation. The zone is resolved from the sensor's
// registration, never taken from the client. A nil error means the event was
// admitted to the queue, not that it is durable yet.
func (s *IngestService) Ingest(ctx context.Context, req Request) (string, error) {
	sensor, err := s.sensors.GetByID(ctx, req.SensorID)
	if err != nil {
		return "", err
	}
	if sensor == nil || !sensor.Active || !sensor.HasKey() {
		return "", ErrUnauthorizedSensor
	}

	if s.maxDrift > 0 {
		drift := time.Since(time.Unix(req.DeviceTimestamp, 0))
		if drift < 0 {
			drift = -drift
		}
		if drift > s.maxDrift {
			return "", ErrStaleTimestamp
		}
	}

	message := security.CanonicalMessage(req.Value, req.DeviceTimestamp)
	result, err := s.verifier.Submit(sensor.PublicKey, message, req.Signature)
	if err != nil {
		return "", ErrVerifierBusy
	}
	select {
	case ok := <-result:
		if !ok {
			return "", ErrInvalidSignature
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	event := queue.Event{
		ID:              uuid.New().String(),
		Value:           req.Value,
		SensorID:        sensor.ID,
		ZoneID:          sensor.ZoneID,
		DeviceTimestamp: req.DeviceTimestamp,
	}
	pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()
	if err := s.events.Push(pushCtx, event); err != nil {
		return "", ErrQueueUnavailable
	}
	return event.ID, nil
}
