package verifypool

import (
	"context"
	"errors"
	"testing"
	"time"

	"quakeguard/backend/internal/security"
)

func TestPool_VerifiesValidSignature(t *testing.T) {
	priv, err := security.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := security.CanonicalMessage(250, 1700000000)
	sig, err := security.SignRaw(priv, msg)
	if err != nil {
		t.Fatalf("SignRaw: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := New(2, 8)
	p.Start(ctx)
	defer p.Stop()

	res, err := p.Submit(security.EncodePublicKeyRaw(&priv.PublicKey), msg, sig)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case ok := <-res:
		if !ok {
			t.Error("valid signature reported invalid")
		}
	case <-time.After(time.Second):
		t.Fatal("verification result never arrived")
	}
}

func TestPool_ReportsInvalidSignature(t *testing.T) {
	priv, err := security.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := security.CanonicalMessage(250, 1700000000)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := New(1, 1)
	p.Start(ctx)
	defer p.Stop()

	res, err := p.Submit(security.EncodePublicKeyRaw(&priv.PublicKey), msg, []byte("not a signature"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case ok := <-res:
		if ok {
			t.Error("garbage signature reported valid")
		}
	case <-time.After(time.Second):
		t.Fatal("verification result never arrived")
	}
}

func TestPool_SubmitBeforeStart(t *testing.T) {
	p := New(1, 1)
	if _, err := p.Submit(nil, nil, nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit before Start = %v, want ErrStopped", err)
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := New(1, 1)
	p.Start(ctx)
	p.Stop()
	if _, err := p.Submit(nil, nil, nil); !errors.Is(err, ErrStopped) {
		t.Fatalf("Submit after Stop = %v, want ErrStopped", err)
	}
}

func TestPool_SaturationSignalsNotBlocks(t *testing.T) {
	// Start with a cancelled context so the worker exits and the queue
	// can only fill.
	ctx, cancel := context.WithCancel(context.Background())
	p := New(1, 1)
	p.Start(ctx)
	cancel()
	time.Sleep(20 * time.Millisecond) // let the worker observe cancellation

	if _, err := p.Submit(nil, nil, nil); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := p.Submit(nil, nil, nil); !errors.Is(err, ErrSaturated) {
		t.Fatalf("second Submit = %v, want ErrSaturated", err)
	}
}

func TestPool_Defaults(t *testing.T) {
	p := New(0, 0)
	if p.workers <= 0 {
		t.Error("worker count should default to a positive value")
	}
	if cap(p.tasks) != 256 {
		t.Errorf("queue capacity = %d, want 256", cap(p.tasks))
	}
}
