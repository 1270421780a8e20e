package bus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBus is the production Bus: BRPOP against a durable request list,
// Redis Pub/Sub for reply correlation and market-data fan-out, LPUSH for
// the storage queue. TakeRequest's blocking BRPOP runs on its own client so
// a long wait for the next request never ties up the connection Reply,
// PushStorage, and PublishMarketData share (spec.md §5: the blocking
// tail-pop cannot share a connection with other operations).
type RedisBus struct {
	client         *redis.Client
	blockingClient *redis.Client
	requestQueue   string
	storageQueue   string
}

// NewRedisBus wraps client for non-blocking operations and blockingClient
// for TakeRequest's BRPOP, using requestQueue/storageQueue as the list names
// the engine pops requests from and pushes storage records to (spec.md §6:
// "messages" and "db_processor" by default).
func NewRedisBus(client, blockingClient *redis.Client, requestQueue, storageQueue string) *RedisBus {
	return &RedisBus{
		client:         client,
		blockingClient: blockingClient,
		requestQueue:   requestQueue,
		storageQueue:   storageQueue,
	}
}

// TakeRequest blocks on BRPOP against the request queue until a payload
// arrives or ctx is cancelled.
func (r *RedisBus) TakeRequest(ctx context.Context) ([]byte, error) {
	result, err := r.blockingClient.BRPop(ctx, 0, r.requestQueue).Result()
	if err != nil {
		return nil, fmt.Errorf("bus: brpop %s: %w", r.requestQueue, err)
	}
	// BRPop returns [key, value]; the engine only cares about the value.
	if len(result) < 2 {
		return nil, fmt.Errorf("bus: brpop %s: unexpected reply shape", r.requestQueue)
	}
	return []byte(result[1]), nil
}

// Reply publishes payload on the pub/sub channel named by channel, the
// reply_channel_id a caller embedded in its request envelope.
func (r *RedisBus) Reply(ctx context.Context, channel string, payload []byte) error {
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish reply %s: %w", channel, err)
	}
	return nil
}

// PushStorage LPUSHes payload onto the storage worker's queue.
func (r *RedisBus) PushStorage(ctx context.Context, payload []byte) error {
	if err := r.client.LPush(ctx, r.storageQueue, payload).Err(); err != nil {
		return fmt.Errorf("bus: lpush %s: %w", r.storageQueue, err)
	}
	return nil
}

// PublishMarketData publishes payload on a depth@{market} or trades@{market}
// topic.
func (r *RedisBus) PublishMarketData(ctx context.Context, topic string, payload []byte) error {
	if err := r.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish market data %s: %w", topic, err)
	}
	return nil
}

var _ Bus = (*RedisBus)(nil)
