package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus for tests and benchmarks: the request queue
// is backed by ringBuffer; storage records, reply channels and market-data
// topics are delivered to channels registered with SubscribeStorage and
// Subscribe. It never touches the network.
type MemoryBus struct {
	requests *ringBuffer
	reader   *consumer
	storage  *ringBuffer

	mu          sync.Mutex
	subscribers map[string][]chan []byte

	storageSink []chan []byte
}

// NewMemoryBus builds a MemoryBus with the given request-queue capacity
// (rounded requirements: must be a power of two).
func NewMemoryBus(requestCapacity int) *MemoryBus {
	rb := newRingBuffer(requestCapacity)
	return &MemoryBus{
		requests:    rb,
		reader:      rb.newConsumer(),
		storage:     newRingBuffer(requestCapacity),
		subscribers: make(map[string][]chan []byte),
	}
}

// Submit enqueues a request payload as if it had arrived over the wire.
// Test/benchmark-only entry point standing in for a gateway's LPUSH.
func (m *MemoryBus) Submit(payload []byte) {
	m.requests.publish(payload)
}

// TakeRequest blocks until a request is available. Cancelling ctx does not
// interrupt an in-flight semaphore wait; MemoryBus is for tests and
// benchmarks where callers always have a request pending.
func (m *MemoryBus) TakeRequest(ctx context.Context) ([]byte, error) {
	return m.reader.consume(), nil
}

// Reply publishes payload to every subscriber currently listening on
// channel (ordinarily exactly one: the caller awaiting its own request).
func (m *MemoryBus) Reply(ctx context.Context, channel string, payload []byte) error {
	m.publishTo(channel, payload)
	return nil
}

// PushStorage enqueues payload for any subscriber of the storage sink.
func (m *MemoryBus) PushStorage(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	sinks := append([]chan []byte(nil), m.storageSink...)
	m.mu.Unlock()
	for _, ch := range sinks {
		ch <- payload
	}
	return nil
}

// PublishMarketData publishes payload to every subscriber of topic.
func (m *MemoryBus) PublishMarketData(ctx context.Context, topic string, payload []byte) error {
	m.publishTo(topic, payload)
	return nil
}

func (m *MemoryBus) publishTo(topic string, payload []byte) {
	m.mu.Lock()
	subs := append([]chan []byte(nil), m.subscribers[topic]...)
	m.mu.Unlock()
	for _, ch := range subs {
		ch <- payload
	}
}

// Subscribe registers a buffered channel to receive every future publish to
// topic (a reply channel or a market-data topic). Test-only.
func (m *MemoryBus) Subscribe(topic string) <-chan []byte {
	ch := make(chan []byte, 16)
	m.mu.Lock()
	m.subscribers[topic] = append(m.subscribers[topic], ch)
	m.mu.Unlock()
	return ch
}

// SubscribeStorage registers a buffered channel to receive every future
// PushStorage payload. Test-only.
func (m *MemoryBus) SubscribeStorage() <-chan []byte {
	ch := make(chan []byte, 16)
	m.mu.Lock()
	m.storageSink = append(m.storageSink, ch)
	m.mu.Unlock()
	return ch
}

var _ Bus = (*MemoryBus)(nil)
