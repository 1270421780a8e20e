// Package bus abstracts the message-bus operations the engine depends on:
// pulling requests off a durable queue, replying to a caller's channel,
// pushing storage records, and publishing market-data events. Two
// implementations are provided: RedisBus for production, MemoryBus for
// tests and benchmarks.
package bus

import "context"

// Bus is the engine's entire view of the outside world. It never sees a
// transport detail beyond these four operations.
type Bus interface {
	// TakeRequest blocks until a request envelope is available on the
	// request queue, or ctx is cancelled.
	TakeRequest(ctx context.Context) ([]byte, error)

	// Reply publishes payload to the channel a request named as its
	// reply destination.
	Reply(ctx context.Context, channel string, payload []byte) error

	// PushStorage enqueues a storage record for the persistence worker.
	PushStorage(ctx context.Context, payload []byte) error

	// PublishMarketData publishes payload to a market-data topic (e.g.
	// depth@TATA_INR, trades@TATA_INR).
	PublishMarketData(ctx context.Context, topic string, payload []byte) error
}
