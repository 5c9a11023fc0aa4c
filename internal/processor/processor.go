// Package processor is the single consumer of the event queue. It persists
// each validated measurement, maintains the per-zone rolling counter, and
// raises an alert when the counter crosses the threshold, subject to a
// per-zone cooldown.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	alertdomain "quakeguard/backend/internal/alert/domain"
	"quakeguard/backend/internal/cache"
	measurementdomain "quakeguard/backend/internal/measurement/domain"
	"quakeguard/backend/internal/queue"
)

// MeasurementRepo is the minimal measurement repository needed by the processor.
type MeasurementRepo interface {
	Insert(ctx context.Context, value, sensorID int64) (*measurementdomain.Measurement, error)
}

// AlertRepo is the minimal alert repository needed by the processor.
type AlertRepo interface {
	Insert(ctx context.Context, a *alertdomain.Alert) error
}

// Notifier publishes a created alert to interested consumers. Best effort and
// fire-and-forget: a failed publish never affects event processing.
type Notifier interface {
	Publish(ctx context.Context, a *alertdomain.Alert)
}

// Config holds the detection tuning for the processor.
type Config struct {
	// Threshold is the per-zone event count that raises an alert.
	Threshold int
	// Window is the rolling counter TTL; each event re-arms it.
	Window time.Duration
	// Cooldown suppresses further alerts for a zone after one fires.
	Cooldown time.Duration
	// ScaleFactor divides the counter value to produce alert severity.
	ScaleFactor float64
	// Backoff is the pause after a failed event before the loop resumes.
	Backoff time.Duration
}

// Processor runs the consume loop. It is designed as a single consumer: with
// one instance, increment, threshold check, and cooldown check are serialized
// per zone without extra locking. Running multiple instances stays correct
// only because IncrementAndExpire is atomic at the cache layer, but alerts
// may then double-fire between the Exists check and the cooldown set.
type Processor struct {
	events       queue.Queue
	measurements MeasurementRepo
	alerts       AlertRepo
	counters     cache.Counter
	notifier     Notifier
	cfg          Config

	processed    metric.Int64Counter
	alertsRaised metric.Int64Counter
}

// New returns a Processor. notifier may be nil. Zero Config fields fall back
// to threshold 10, window 5s, cooldown 60s, scale factor 10, backoff 1s.
func New(events queue.Queue, measurements MeasurementRepo, alerts AlertRepo, counters cache.Counter, notifier Notifier, cfg Config) *Processor {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.ScaleFactor <= 0 {
		cfg.ScaleFactor = 10
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	meter := otel.Meter("quakeguard/processor")
	processed, _ := meter.Int64Counter("processor.events.processed")
	alertsRaised, _ := meter.Int64Counter("processor.alerts.raised")

	return &Processor{
		events:       events,
		measurements: measurements,
		alerts:       alerts,
		counters:     counters,
		notifier:     notifier,
		cfg:          cfg,
		processed:    processed,
		alertsRaised: alertsRaised,
	}
}

// Run consumes events until ctx is done or the queue is closed. A failed
// event is logged and followed by a fixed backoff; the loop itself never
// terminates on a single event's failure. An event that fails after dequeue
// is dropped — admitted events are not guaranteed durable.
func (p *Processor) Run(ctx context.Context) {
	log.Printf("processor: started (threshold=%d window=%s cooldown=%s)", p.cfg.Threshold, p.cfg.Window, p.cfg.Cooldown)
	for {
		ev, err := p.events.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				log.Println("processor: stopped")
				return
			}
			log.Printf("processor: pop failed: %v", err)
			p.pause(ctx)
			continue
		}
		if err := p.Process(ctx, ev); err != nil {
			log.Printf("processor: event %s dropped: %v", ev.ID, err)
			p.pause(ctx)
		}
	}
}

// Process handles one dequeued event: persist the measurement, bump the zone
// counter, and raise an alert on a threshold crossing outside the cooldown.
func (p *Processor) Process(ctx context.Context, ev queue.Event) error {
	if _, err := p.measurements.Insert(ctx, ev.Value, ev.SensorID); err != nil {
		return fmt.Errorf("insert measurement: %w", err)
	}

	count, err := p.counters.IncrementAndExpire(ctx, counterKey(ev.ZoneID), p.cfg.Window)
	if err != nil {
		return fmt.Errorf("increment zone counter: %w", err)
	}
	p.processed.Add(ctx, 1)

	if count < int64(p.cfg.Threshold) {
		return nil
	}

	cooling, err := p.counters.Exists(ctx, cooldownKey(ev.ZoneID))
	if err != nil {
		return fmt.Errorf("check cooldown: %w", err)
	}
	if cooling {
		return nil
	}

	alert := &alertdomain.Alert{
		ZoneID:   ev.ZoneID,
		Severity: float64(count) / p.cfg.ScaleFactor,
		Message:  fmt.Sprintf("High seismic activity in zone %d: %d events within %s", ev.ZoneID, count, p.cfg.Window),
	}
	if err := p.alerts.Insert(ctx, alert); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	if err := p.counters.SetWithExpiry(ctx, cooldownKey(ev.ZoneID), p.cfg.Cooldown, "1"); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	p.alertsRaised.Add(ctx, 1)
	log.Printf("processor: alert raised for zone %d (count=%d severity=%.2f)", ev.ZoneID, count, alert.Severity)

	if p.notifier != nil {
		p.notifier.Publish(ctx, alert)
	}
	return nil
}

func (p *Processor) pause(ctx context.Context) {
	t := time.NewTimer(p.cfg.Backoff)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func counterKey(zoneID int64) string {
	return fmt.Sprintf("zone:%d:events", zoneID)
}

func cooldownKey(zoneID int64) string {
	return fmt.Sprintf("zone:%d:cooldown", zoneID)
}
