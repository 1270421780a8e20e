package orderbook

import (
	"testing"

	"tradecore/domain"
)

func newTestOrder(id, market, user string, side domain.Side, price, qty uint64) *domain.Order {
	return domain.NewOrder(id, market, user, side, price, qty)
}

func TestAddOrderRestsWhenNoMatch(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	sell := newTestOrder("sell1", "TATA_INR", "u1", domain.SideSell, 100, 10)
	created := ob.Add(sell)
	if created.ExecutedQuantity != 0 || len(created.Fills) != 0 {
		t.Fatalf("expected no fills, got %+v", created)
	}

	bids, asks := ob.Depth()
	if len(bids) != 0 {
		t.Fatalf("expected no bids, got %+v", bids)
	}
	if len(asks) != 1 || asks[0].Price != 100 || asks[0].Quantity != 10 {
		t.Fatalf("unexpected ask depth: %+v", asks)
	}
}

// S1: a resting bid fully filled by a marketable sell.
func TestRestingBidFilledByMarketableSell(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	buy := newTestOrder("u1-buy", "TATA_INR", "u1", domain.SideBuy, 100, 10)
	buyResult := ob.Add(buy)
	if buyResult.ExecutedQuantity != 0 || len(buyResult.Fills) != 0 {
		t.Fatalf("expected resting buy with no fills, got %+v", buyResult)
	}

	sell := newTestOrder("u2-sell", "TATA_INR", "u2", domain.SideSell, 100, 10)
	sellResult := ob.Add(sell)
	if sellResult.ExecutedQuantity != 10 {
		t.Fatalf("expected taker fully filled, got executed=%d", sellResult.ExecutedQuantity)
	}
	if len(sellResult.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(sellResult.Fills))
	}
	fill := sellResult.Fills[0]
	if fill.Price != 100 || fill.Qty != 10 || fill.TradeID != 1 {
		t.Fatalf("unexpected fill: %+v", fill)
	}
	if fill.MakerOrderID != "u1-buy" || fill.TakerOrderID != "u2-sell" {
		t.Fatalf("unexpected maker/taker ids: %+v", fill)
	}
	if !fill.IsBuyerMaker() {
		t.Fatal("expected buyer to be maker when taker sells")
	}

	bids, asks := ob.Depth()
	if len(bids) != 0 || len(asks) != 0 {
		t.Fatalf("expected empty book after full fill, got bids=%+v asks=%+v", bids, asks)
	}
}

// S2: partial fill leaves a remainder resting.
func TestPartialFillRestsRemainder(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	ob.Add(newTestOrder("u1-buy", "TATA_INR", "u1", domain.SideBuy, 100, 10))
	sellResult := ob.Add(newTestOrder("u2-sell", "TATA_INR", "u2", domain.SideSell, 100, 6))

	if sellResult.ExecutedQuantity != 6 {
		t.Fatalf("expected taker fully filled at 6, got %d", sellResult.ExecutedQuantity)
	}

	bids, _ := ob.Depth()
	if len(bids) != 1 || bids[0].Quantity != 4 {
		t.Fatalf("expected remaining bid depth of 4, got %+v", bids)
	}
}

// S3: cancelling a partially filled resting order.
func TestCancelPartiallyFilledOrder(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	ob.Add(newTestOrder("u1-buy", "TATA_INR", "u1", domain.SideBuy, 100, 10))
	ob.Add(newTestOrder("u2-sell", "TATA_INR", "u2", domain.SideSell, 100, 6))

	remaining, ok := ob.CancelBid("u1-buy")
	if !ok {
		t.Fatal("expected cancel to find the resting order")
	}
	if remaining != 4 {
		t.Fatalf("expected remaining quantity 4, got %d", remaining)
	}

	bids, _ := ob.Depth()
	if len(bids) != 0 {
		t.Fatalf("expected book empty after cancel, got %+v", bids)
	}
}

func TestCancelUnknownOrderReturnsFalse(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)
	if _, ok := ob.CancelBid("nope"); ok {
		t.Fatal("expected cancel of unknown order to fail")
	}
}

// S5: fills are emitted in best-price-first order across multiple levels.
func TestFillsOrderedByBestPriceAcrossLevels(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	ob.Add(newTestOrder("ask-101", "TATA_INR", "m1", domain.SideSell, 101, 5))
	ob.Add(newTestOrder("ask-102", "TATA_INR", "m2", domain.SideSell, 102, 10))
	ob.Add(newTestOrder("ask-100", "TATA_INR", "m3", domain.SideSell, 100, 3))

	result := ob.Add(newTestOrder("taker", "TATA_INR", "t1", domain.SideBuy, 102, 12))

	if result.ExecutedQuantity != 12 {
		t.Fatalf("expected executed quantity 12, got %d", result.ExecutedQuantity)
	}
	wantPrices := []uint64{100, 101, 102}
	wantQtys := []uint64{3, 5, 4}
	if len(result.Fills) != 3 {
		t.Fatalf("expected 3 fills, got %d: %+v", len(result.Fills), result.Fills)
	}
	for i, fill := range result.Fills {
		if fill.Price != wantPrices[i] || fill.Qty != wantQtys[i] {
			t.Fatalf("fill %d: got price=%d qty=%d, want price=%d qty=%d",
				i, fill.Price, fill.Qty, wantPrices[i], wantQtys[i])
		}
	}
}

func TestFIFOWithinLevel(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)

	ob.Add(newTestOrder("first", "TATA_INR", "m1", domain.SideSell, 100, 5))
	ob.Add(newTestOrder("second", "TATA_INR", "m2", domain.SideSell, 100, 5))

	result := ob.Add(newTestOrder("taker", "TATA_INR", "t1", domain.SideBuy, 100, 5))
	if len(result.Fills) != 1 || result.Fills[0].MakerOrderID != "first" {
		t.Fatalf("expected the earlier resting order to be consumed first, got %+v", result.Fills)
	}
}

func TestTakerLimitNotCrossed(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)
	ob.Add(newTestOrder("ask", "TATA_INR", "m1", domain.SideSell, 105, 5))

	result := ob.Add(newTestOrder("taker", "TATA_INR", "t1", domain.SideBuy, 100, 5))
	if result.ExecutedQuantity != 0 || len(result.Fills) != 0 {
		t.Fatalf("expected no match above the taker's limit, got %+v", result)
	}
}

func TestOpenOrdersFiltersByUser(t *testing.T) {
	ob := New("TATA_INR", HashMapListKind)
	ob.Add(newTestOrder("o1", "TATA_INR", "alice", domain.SideBuy, 99, 3))
	ob.Add(newTestOrder("o2", "TATA_INR", "bob", domain.SideSell, 101, 4))

	open := ob.OpenOrders("alice")
	if len(open) != 1 || open[0].ID != "o1" {
		t.Fatalf("expected alice's single order, got %+v", open)
	}
}

func TestShardedTreeMatchesHashMapBehavior(t *testing.T) {
	ob := New("TATA_INR", ShardedKind)

	ob.Add(newTestOrder("ask-101", "TATA_INR", "m1", domain.SideSell, 101, 5))
	ob.Add(newTestOrder("ask-102", "TATA_INR", "m2", domain.SideSell, 102, 10))
	ob.Add(newTestOrder("ask-100", "TATA_INR", "m3", domain.SideSell, 100, 3))

	result := ob.Add(newTestOrder("taker", "TATA_INR", "t1", domain.SideBuy, 102, 12))
	if result.ExecutedQuantity != 12 || len(result.Fills) != 3 {
		t.Fatalf("sharded tree produced unexpected result: %+v", result)
	}
	if result.Fills[0].Price != 100 || result.Fills[2].Price != 102 {
		t.Fatalf("sharded tree did not preserve price priority: %+v", result.Fills)
	}
}
