// Package verifypool runs CPU-bound signature verification on a bounded
// worker pool so bursts of verifications cannot starve request handlers.
// Submit is non-blocking: a full queue is reported as an error, giving the
// gateway a deterministic failure mode instead of unbounded latency.
package verifypool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"quakeguard/backend/internal/security"
)

// Sentinel errors for pool operations.
var (
	// ErrSaturated indicates the verification queue is at capacity.
	ErrSaturated = errors.New("verification pool saturated")
	// ErrStopped indicates the pool is not accepting work.
	ErrStopped = errors.New("verification pool stopped")
)

type task struct {
	publicKey []byte
	message   []byte
	signature []byte
	result    chan<- bool
}

// Pool is a fixed set of goroutines verifying sensor signatures from a
// bounded queue. Verifications share no mutable state, so workers need no
// synchronization beyond the queue itself.
type Pool struct {
	tasks   chan task
	workers int

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New returns a pool with the given worker count and pending-task capacity.
// workers <= 0 defaults to GOMAXPROCS; queueSize <= 0 defaults to 256.
func New(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{tasks: make(chan task, queueSize), workers: workers}
}

// Start launches the workers. Workers exit when ctx is done or Stop closes
// the queue. Start is idempotent.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-p.tasks:
			if !ok {
				return
			}
			// result is buffered; the send cannot block even if the
			// submitter already gave up.
			t.result <- security.Verify(t.publicKey, t.message, t.signature)
		}
	}
}

// Submit queues one verification and returns a channel that yields the
// result. Non-blocking: returns ErrSaturated when the queue is full and
// ErrStopped before Start or after Stop.
func (p *Pool) Submit(publicKey, message, signature []byte) (<-chan bool, error) {
	// The lock serializes the send against Stop's close of the queue.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || p.stopped {
		return nil, ErrStopped
	}

	result := make(chan bool, 1)
	select {
	case p.tasks <- task{publicKey: publicKey, message: message, signature: signature, result: result}:
		return result, nil
	default:
		return nil, ErrSaturated
	}
}

// Stop closes the queue and waits for workers to drain it. Safe to call once
// after Start; subsequent Submits return ErrStopped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}
