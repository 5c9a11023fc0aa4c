package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	alertdomain "quakeguard/backend/internal/alert/domain"
	"quakeguard/backend/internal/cache"
	measurementdomain "quakeguard/backend/internal/measurement/domain"
	"quakeguard/backend/internal/queue"
)

type memMeasurementRepo struct {
	mu       sync.Mutex
	inserted []measurementdomain.Measurement
	failures int
	nextID   int64
}

func (r *memMeasurementRepo) Insert(ctx context.Context, value, sensorID int64) (*measurementdomain.Measurement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("db down")
	}
	r.nextID++
	m := measurementdomain.Measurement{ID: r.nextID, SensorID: sensorID, Value: value, CreatedAt: time.Now()}
	r.inserted = append(r.inserted, m)
	return &m, nil
}

func (r *memMeasurementRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

type memAlertRepo struct {
	mu       sync.Mutex
	inserted []alertdomain.Alert
}

func (r *memAlertRepo) Insert(ctx context.Context, a *alertdomain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = int64(len(r.inserted) + 1)
	a.Timestamp = time.Now()
	r.inserted = append(r.inserted, *a)
	return nil
}

func (r *memAlertRepo) all() []alertdomain.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]alertdomain.Alert(nil), r.inserted...)
}

type memNotifier struct {
	mu        sync.Mutex
	published []alertdomain.Alert
}

func (n *memNotifier) Publish(ctx context.Context, a *alertdomain.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, *a)
}

func testConfig() Config {
	return Config{Threshold: 10, Window: 5 * time.Second, Cooldown: 60 * time.Second, ScaleFactor: 10, Backoff: 10 * time.Millisecond}
}

func event(zoneID int64, value int64) queue.Event {
	return queue.Event{ID: "evt", Value: value, SensorID: 1, ZoneID: zoneID, DeviceTimestamp: time.Now().Unix()}
}

func TestProcess_ThresholdRaisesExactlyOneAlert(t *testing.T) {
	ctx := context.Background()
	measurements := &memMeasurementRepo{}
	alerts := &memAlertRepo{}
	notifier := &memNotifier{}
	counters := cache.NewMemoryCounter()
	p := New(queue.NewMemoryQueue(1), measurements, alerts, counters, notifier, testConfig())

	// Ten events for zone 7 inside the window: exactly one alert.
	for i := 0; i < 10; i++ {
		if err := p.Process(ctx, event(7, 250)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	got := alerts.all()
	if len(got) != 1 {
		t.Fatalf("alerts = %d, want exactly 1", len(got))
	}
	if got[0].ZoneID != 7 {
		t.Errorf("alert zone = %d, want 7", got[0].ZoneID)
	}
	if got[0].Severity != 1.0 {
		t.Errorf("severity = %v, want 1.0 (10/10)", got[0].Severity)
	}
	if measurements.count() != 10 {
		t.Errorf("measurements persisted = %d, want 10", measurements.count())
	}
	notifier.mu.Lock()
	published := len(notifier.published)
	notifier.mu.Unlock()
	if published != 1 {
		t.Errorf("notifications = %d, want 1", published)
	}
}

func TestProcess_CooldownSuppressesButPersists(t *testing.T) {
	ctx := context.Background()
	measurements := &memMeasurementRepo{}
	alerts := &memAlertRepo{}
	counters := cache.NewMemoryCounter()
	p := New(queue.NewMemoryQueue(1), measurements, alerts, counters, nil, testConfig())

	for i := 0; i < 11; i++ {
		if err := p.Process(ctx, event(7, 250)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}

	// The eleventh event crosses the threshold again but lands in the
	// cooldown: no second alert, measurement still persisted.
	if len(alerts.all()) != 1 {
		t.Fatalf("alerts = %d, want 1 (cooldown must suppress)", len(alerts.all()))
	}
	if measurements.count() != 11 {
		t.Errorf("measurements persisted = %d, want 11", measurements.count())
	}
}

func TestProcess_WindowExpiryRestartsDetection(t *testing.T) {
	ctx := context.Background()
	measurements := &memMeasurementRepo{}
	alerts := &memAlertRepo{}
	counters := cache.NewMemoryCounter()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	counters.SetClock(func() time.Time { return clock })

	cfg := testConfig()
	cfg.Threshold = 3
	p := New(queue.NewMemoryQueue(1), measurements, alerts, counters, nil, cfg)

	// Two events, then the window expires with no further traffic.
	for i := 0; i < 2; i++ {
		if err := p.Process(ctx, event(7, 250)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	clock = clock.Add(cfg.Window + time.Second)

	// A fresh burst must count from zero: two more events stay below the
	// threshold, the third crosses it.
	for i := 0; i < 2; i++ {
		if err := p.Process(ctx, event(7, 250)); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	if len(alerts.all()) != 0 {
		t.Fatalf("alerts = %d before fresh burst completes, want 0", len(alerts.all()))
	}
	if err := p.Process(ctx, event(7, 250)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(alerts.all()) != 1 {
		t.Errorf("alerts = %d after fresh burst, want 1", len(alerts.all()))
	}
}

func TestProcess_ZonesCountedIndependently(t *testing.T) {
	ctx := context.Background()
	alerts := &memAlertRepo{}
	counters := cache.NewMemoryCounter()
	cfg := testConfig()
	cfg.Threshold = 3
	p := New(queue.NewMemoryQueue(1), &memMeasurementRepo{}, alerts, counters, nil, cfg)

	// Interleaved zones: two events each never cross threshold 3.
	for i := 0; i < 2; i++ {
		if err := p.Process(ctx, event(1, 100)); err != nil {
			t.Fatal(err)
		}
		if err := p.Process(ctx, event(2, 100)); err != nil {
			t.Fatal(err)
		}
	}
	if len(alerts.all()) != 0 {
		t.Fatalf("alerts = %d, want 0", len(alerts.all()))
	}

	if err := p.Process(ctx, event(2, 100)); err != nil {
		t.Fatal(err)
	}
	got := alerts.all()
	if len(got) != 1 || got[0].ZoneID != 2 {
		t.Fatalf("alerts = %+v, want one alert for zone 2", got)
	}
}

func TestRun_ContinuesAfterFailedEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	measurements := &memMeasurementRepo{failures: 1}
	alerts := &memAlertRepo{}
	q := queue.NewMemoryQueue(8)
	p := New(q, measurements, alerts, cache.NewMemoryCounter(), nil, testConfig())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// First event fails at the store and is dropped; the second must still
	// be processed.
	if err := q.Push(ctx, event(7, 250)); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(ctx, event(7, 251)); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for measurements.count() < 1 {
		select {
		case <-deadline:
			t.Fatal("second event never processed after first failed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func TestRun_StopsWhenQueueClosed(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	p := New(q, &memMeasurementRepo{}, &memAlertRepo{}, cache.NewMemoryCounter(), nil, testConfig())

	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()

	_ = q.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after queue close")
	}
}
