// Package gatewaysim is a minimal stand-in for the external HTTP gateway:
// it follows the same subscribe-before-enqueue discipline a real gateway
// must (spec.md §4.4) against an in-process bus.MemoryBus, so tests and
// benchmarks can drive the engine without standing up a real gateway
// process or a Redis instance.
package gatewaysim

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"tradecore/bus"
	"tradecore/protocol"
)

// Client issues request/reply round-trips against an engine listening on a
// bus.MemoryBus, one reply-channel subscription per call.
type Client struct {
	bus *bus.MemoryBus
}

// New wraps b for request/reply calls.
func New(b *bus.MemoryBus) *Client {
	return &Client{bus: b}
}

// Call mints a fresh reply-channel id, subscribes to it, then pushes the
// request envelope — subscribing first avoids the lost-wakeup race a real
// gateway has to guard against when the reply might arrive before the
// subscription is registered.
func (c *Client) Call(ctx context.Context, reqType protocol.RequestType, data interface{}) (protocol.ReplyEnvelope, error) {
	channel := uuid.NewString()
	replies := c.bus.Subscribe(channel)

	body, err := json.Marshal(data)
	if err != nil {
		return protocol.ReplyEnvelope{}, err
	}
	envelope, err := json.Marshal(protocol.RequestEnvelope{
		ReplyChannel: channel,
		Type:         reqType,
		Data:         body,
	})
	if err != nil {
		return protocol.ReplyEnvelope{}, err
	}
	c.bus.Submit(envelope)

	select {
	case raw := <-replies:
		var reply protocol.ReplyEnvelope
		if err := json.Unmarshal(raw, &reply); err != nil {
			return protocol.ReplyEnvelope{}, err
		}
		return reply, nil
	case <-ctx.Done():
		return protocol.ReplyEnvelope{}, ctx.Err()
	}
}

// Send pushes a fire-and-forget request (on-ramp) with no reply channel.
func (c *Client) Send(reqType protocol.RequestType, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope, err := json.Marshal(protocol.RequestEnvelope{Type: reqType, Data: body})
	if err != nil {
		return err
	}
	c.bus.Submit(envelope)
	return nil
}
