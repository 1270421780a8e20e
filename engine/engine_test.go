package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradecore/bus"
	"tradecore/config"
	"tradecore/internal/gatewaysim"
	"tradecore/protocol"
)

func testConfig() *config.Config {
	return &config.Config{
		Bus: config.BusConfig{RedisURL: "unused", RequestQueue: "messages", StorageQueue: "db_processor"},
		Markets: []config.MarketConfig{
			{Symbol: "TATA_INR", BaseAsset: "TATA", QuoteAsset: "INR", PriceIncrement: 100, QuantityIncrement: 100},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "json"},
	}
}

// startEngine wires an Engine to an in-process bus and returns a client
// driving it the way a real gateway would. seedBase credits sellers with
// base-asset balance directly through the ledger: base-asset deposits (e.g.
// crypto custody) happen out of band in this system, unlike the fiat
// on-ramp the wire protocol exposes, so tests stand that step up directly.
func startEngine(t *testing.T) (*gatewaysim.Client, *Engine) {
	t.Helper()
	memBus := bus.NewMemoryBus(64)
	eng := New(testConfig(), memBus, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	return gatewaysim.New(memBus), eng
}

func (e *Engine) seedBase(userID, asset, amount string) {
	e.ledger.Credit(userID, asset, decimal.RequireFromString(amount))
}

func call(t *testing.T, c *gatewaysim.Client, reqType protocol.RequestType, data interface{}) protocol.ReplyEnvelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := c.Call(ctx, reqType, data)
	if err != nil {
		t.Fatalf("call %s failed: %v", reqType, err)
	}
	return reply
}

// S1: an on-ramped buyer rests a bid, a marketable sell fully fills it.
func TestEngineCreateOrderFillsRestingOrder(t *testing.T) {
	c, eng := startEngine(t)

	if err := c.Send(protocol.RequestOnRamp, protocol.OnRampRequest{UserID: "alice", Amount: "1000.00", TxnID: "t1"}); err != nil {
		t.Fatalf("on-ramp send failed: %v", err)
	}
	eng.seedBase("bob", "TATA", "5.00")
	time.Sleep(20 * time.Millisecond) // on-ramp has no reply; give the loop a turn

	buyReply := call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "100.00", Quantity: "5.00", Side: "buy", UserID: "alice",
	})
	if buyReply.Type != protocol.ReplyOrderPlaced {
		t.Fatalf("expected order-placed, got %s", buyReply.Type)
	}

	sellReply := call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "100.00", Quantity: "5.00", Side: "sell", UserID: "bob",
	})
	if sellReply.Type != protocol.ReplyOrderPlaced {
		t.Fatalf("expected order-placed, got %s", sellReply.Type)
	}
	placedPayload, ok := sellReply.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected order-placed payload shape: %#v", sellReply.Payload)
	}
	if placedPayload["executed_qty"] != "5" {
		t.Fatalf("expected taker fully filled at 5, got %v", placedPayload["executed_qty"])
	}

	depth := call(t, c, protocol.RequestGetDepth, protocol.GetDepthRequest{Market: "TATA_INR"})
	payload, ok := depth.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected depth payload shape: %#v", depth.Payload)
	}
	if bids, _ := payload["bids"].([]interface{}); len(bids) != 0 {
		t.Fatalf("expected empty bid depth after full fill, got %v", bids)
	}

	// settlement: bob (maker, sell side) should now hold alice's INR,
	// alice (taker, buy side) should hold bob's TATA.
	if bal := eng.ledger.Balance("bob", "INR"); !bal.Available.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("expected bob's INR available to be 500 after settlement, got %s", bal.Available)
	}
	if bal := eng.ledger.Balance("alice", "TATA"); !bal.Available.Equal(decimal.RequireFromString("5")) {
		t.Fatalf("expected alice's TATA available to be 5 after settlement, got %s", bal.Available)
	}
}

// create-order against an unconfigured market is rejected the same way a
// cancel of nothing is: ORDER_CANCELLED with every field zeroed, since the
// wire protocol has no separate rejection reply.
func TestEngineCreateOrderRejectsUnknownMarket(t *testing.T) {
	c, _ := startEngine(t)

	reply := call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "NOPE_USD", Price: "1.00", Quantity: "1.00", Side: "buy", UserID: "alice",
	})
	if reply.Type != protocol.ReplyOrderCancelled {
		t.Fatalf("expected order-cancelled, got %s", reply.Type)
	}
	payload := reply.Payload.(map[string]interface{})
	if payload["order_id"] != "" {
		t.Fatalf("expected empty order_id for a rejected create-order, got %v", payload["order_id"])
	}
}

// create-order without a prior on-ramp has nothing to lock and is rejected
// the same zero-valued ORDER_CANCELLED way.
func TestEngineCreateOrderRejectsInsufficientFunds(t *testing.T) {
	c, _ := startEngine(t)

	reply := call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "100.00", Quantity: "5.00", Side: "buy", UserID: "broke",
	})
	if reply.Type != protocol.ReplyOrderCancelled {
		t.Fatalf("expected order-cancelled, got %s", reply.Type)
	}
	payload := reply.Payload.(map[string]interface{})
	if payload["order_id"] != "" {
		t.Fatalf("expected empty order_id for a rejected create-order, got %v", payload["order_id"])
	}
}

// S3: cancelling a resting order refunds the unfilled remainder and the
// cancel reply carries executed_qty/remaining_qty per spec.md §9's
// non-buggy resolution.
func TestEngineCancelOrderRefundsRemainder(t *testing.T) {
	c, eng := startEngine(t)

	if err := c.Send(protocol.RequestOnRamp, protocol.OnRampRequest{UserID: "alice", Amount: "1000.00", TxnID: "t1"}); err != nil {
		t.Fatalf("on-ramp send failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	placed := call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "100.00", Quantity: "5.00", Side: "buy", UserID: "alice",
	})
	payload, ok := placed.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected order-placed payload shape: %#v", placed.Payload)
	}
	orderID, _ := payload["order_id"].(string)
	if orderID == "" {
		t.Fatal("expected a non-empty order id")
	}

	cancelled := call(t, c, protocol.RequestCancelOrder, protocol.CancelOrderRequest{OrderID: orderID, Market: "TATA_INR"})
	if cancelled.Type != protocol.ReplyOrderCancelled {
		t.Fatalf("expected order-cancelled, got %s", cancelled.Type)
	}
	cPayload := cancelled.Payload.(map[string]interface{})
	if cPayload["remaining_qty"] != "0" {
		t.Fatalf("expected remaining_qty 0 post-cancel, got %v", cPayload["remaining_qty"])
	}

	open := call(t, c, protocol.RequestGetOpenOrders, protocol.GetOpenOrdersRequest{Market: "TATA_INR", UserID: "alice"})
	if orders, _ := open.Payload.([]interface{}); len(orders) != 0 {
		t.Fatalf("expected no open orders after cancel, got %v", orders)
	}

	if bal := eng.ledger.Balance("alice", "INR"); !bal.Available.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected alice's INR available fully refunded to 1000, got %s", bal.Available)
	}
}

func TestEngineCancelUnknownOrderIsNoop(t *testing.T) {
	c, _ := startEngine(t)

	reply := call(t, c, protocol.RequestCancelOrder, protocol.CancelOrderRequest{OrderID: "nope", Market: "TATA_INR"})
	if reply.Type != protocol.ReplyOrderCancelled {
		t.Fatalf("expected order-cancelled (no-op shape), got %s", reply.Type)
	}
	payload := reply.Payload.(map[string]interface{})
	if payload["order_id"] != "" {
		t.Fatalf("expected empty order_id for an unknown cancel, got %v", payload["order_id"])
	}
}

func TestEngineGetTickerReflectsLastTrade(t *testing.T) {
	c, eng := startEngine(t)

	if err := c.Send(protocol.RequestOnRamp, protocol.OnRampRequest{UserID: "alice", Amount: "1000.00", TxnID: "t1"}); err != nil {
		t.Fatalf("on-ramp send failed: %v", err)
	}
	eng.seedBase("bob", "TATA", "2.00")
	time.Sleep(20 * time.Millisecond)

	call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "105.00", Quantity: "2.00", Side: "buy", UserID: "alice",
	})
	call(t, c, protocol.RequestCreateOrder, protocol.CreateOrderRequest{
		Market: "TATA_INR", Price: "105.00", Quantity: "2.00", Side: "sell", UserID: "bob",
	})

	ticker := call(t, c, protocol.RequestGetTicker, protocol.GetTickerRequest{Market: "TATA_INR"})
	payload := ticker.Payload.(map[string]interface{})
	if payload["last_trade_price"] != "105" {
		t.Fatalf("expected last trade price 105, got %v", payload["last_trade_price"])
	}
}
