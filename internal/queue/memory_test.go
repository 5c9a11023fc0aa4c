package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue(10)
	defer q.Close()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if err := q.Push(ctx, Event{SensorID: i}); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	for i := int64(1); i <= 3; i++ {
		e, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if e.SensorID != i {
			t.Errorf("Pop order: got sensor %d, want %d", e.SensorID, i)
		}
	}
}

func TestMemoryQueue_FullSignalsNotBlocks(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()
	ctx := context.Background()

	if err := q.Push(ctx, Event{}); err != nil {
		t.Fatalf("first Push: %v", err)
	}
	err := q.Push(ctx, Event{})
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("second Push = %v, want ErrQueueFull", err)
	}
}

func TestMemoryQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()
	ctx := context.Background()

	done := make(chan Event, 1)
	go func() {
		e, err := q.Pop(ctx)
		if err != nil {
			return
		}
		done <- e
	}()

	time.Sleep(20 * time.Millisecond)
	if err := q.Push(ctx, Event{ZoneID: 7}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	select {
	case e := <-done:
		if e.ZoneID != 7 {
			t.Errorf("popped zone %d, want 7", e.ZoneID)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestMemoryQueue_PopHonorsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Pop = %v, want DeadlineExceeded", err)
	}
}

func TestMemoryQueue_ClosedRejectsPush(t *testing.T) {
	q := NewMemoryQueue(1)
	q.Close()
	if err := q.Push(context.Background(), Event{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Push after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryQueue_ConcurrentProducers(t *testing.T) {
	const n = 50
	q := NewMemoryQueue(n)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			if err := q.Push(ctx, Event{SensorID: i}); err != nil {
				t.Errorf("Push: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		e, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop: %v", err)
		}
		if seen[e.SensorID] {
			t.Errorf("duplicate event for sensor %d", e.SensorID)
		}
		seen[e.SensorID] = true
	}
}

func TestEventRoundTrip(t *testing.T) {
	in := Event{ID: "evt-1", Value: 250, SensorID: 9, ZoneID: 7, DeviceTimestamp: 1700000000}
	b, err := in.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := UnmarshalEvent(b)
	if err != nil {
		t.Fatalf("UnmarshalEvent: %v", err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}
