package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// boundedPush appends to the list only while it is below the depth cap, in a
// single round trip so concurrent producers cannot overshoot.
var boundedPush = redis.NewScript(`
if redis.call('LLEN', KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('LPUSH', KEYS[1], ARGV[1])
return 1
`)

// popBlock is how long each BRPOP waits before re-checking ctx; Redis blocking
// reads cannot be cancelled mid-call.
const popBlock = time.Second

// RedisQueue is the production Queue: an LPUSH/BRPOP list shared between the
// API processes and the worker.
type RedisQueue struct {
	client   *redis.Client
	key      string
	maxDepth int
}

// NewRedisQueue returns a queue backed by the given Redis list key.
// maxDepth caps the list length; pushes beyond it return ErrQueueFull.
func NewRedisQueue(client *redis.Client, key string, maxDepth int) *RedisQueue {
	return &RedisQueue{client: client, key: key, maxDepth: maxDepth}
}

// Push appends the event to the head of the list. Returns ErrQueueFull when
// the list is at capacity, or the Redis error (including ctx deadline) when
// the broker is unreachable.
func (q *RedisQueue) Push(ctx context.Context, e Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return err
	}
	ok, err := boundedPush.Run(ctx, q.client, []string{q.key}, payload, q.maxDepth).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return ErrQueueFull
	}
	return nil
}

// Pop blocks until an event is available, popping from the tail of the list
// (FIFO). Returns ctx.Err() when the context is cancelled.
func (q *RedisQueue) Pop(ctx context.Context) (Event, error) {
	for {
		res, err := q.client.BRPop(ctx, popBlock, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return Event{}, ctx.Err()
				}
				continue
			}
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			return Event{}, err
		}
		// BRPOP returns [key, value].
		return UnmarshalEvent([]byte(res[1]))
	}
}

// Close releases the underlying Redis client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping verifies broker connectivity; used by the health endpoint.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}
