package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCounter_IncrementAndExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrementAndExpire(ctx, "zone:7:events", 5*time.Second)
		if err != nil {
			t.Fatalf("IncrementAndExpire: %v", err)
		}
		if got != want {
			t.Errorf("count = %d, want %d", got, want)
		}
	}
}

func TestMemoryCounter_ExpiryRestartsFromZero(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	if _, err := c.IncrementAndExpire(ctx, "k", 5*time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := c.IncrementAndExpire(ctx, "k", 5*time.Second); err != nil {
		t.Fatal(err)
	}

	clock = clock.Add(6 * time.Second)
	got, err := c.IncrementAndExpire(ctx, "k", 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("count after expiry = %d, want 1", got)
	}
}

func TestMemoryCounter_IncrementReArmsTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	// Events 4s apart each re-arm the 5s window, so the counter keeps growing
	// even though the first event is older than one window.
	var got int64
	for i := 0; i < 3; i++ {
		var err error
		got, err = c.IncrementAndExpire(ctx, "k", 5*time.Second)
		if err != nil {
			t.Fatal(err)
		}
		clock = clock.Add(4 * time.Second)
	}
	if got != 3 {
		t.Errorf("count = %d, want 3 (re-armed window)", got)
	}
}

func TestMemoryCounter_ExistsAndSetWithExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return clock })

	ok, err := c.Exists(ctx, "zone:7:cooldown")
	if err != nil || ok {
		t.Fatalf("Exists before set = (%v, %v), want (false, nil)", ok, err)
	}

	if err := c.SetWithExpiry(ctx, "zone:7:cooldown", 60*time.Second, "1"); err != nil {
		t.Fatalf("SetWithExpiry: %v", err)
	}
	ok, err = c.Exists(ctx, "zone:7:cooldown")
	if err != nil || !ok {
		t.Fatalf("Exists after set = (%v, %v), want (true, nil)", ok, err)
	}

	clock = clock.Add(61 * time.Second)
	ok, err = c.Exists(ctx, "zone:7:cooldown")
	if err != nil || ok {
		t.Fatalf("Exists after expiry = (%v, %v), want (false, nil)", ok, err)
	}
}
