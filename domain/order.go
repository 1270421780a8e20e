package domain

import (
	"sync"
	"time"
)

// Side is the direction of an order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// OrderStatus tracks an order's lifecycle within a book.
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusPartialFilled
	OrderStatusFilled
	OrderStatusCancelled
)

// Order is a resting or taker limit order. Every order carries a mandatory
// price; market orders are not supported (spec's Open Questions).
//
// Hot fields used during matching are grouped first, kept from the teacher's
// cache-line layout even though this rewrite no longer benchmarks for it.
type Order struct {
	ID          string
	Price       uint64
	Quantity    uint64
	Filled      uint64
	Side        Side
	Status      OrderStatus
	ListElement interface{} // *list.Element for O(1) removal from its price level

	Market    string
	UserID    string
	Timestamp time.Time
}

var orderPool = sync.Pool{
	New: func() any { return &Order{} },
}

// NewOrder allocates an order from the pool. Invariants: 0 <= filled <=
// quantity, price > 0, quantity > 0 (enforced by the engine before
// construction, not here).
func NewOrder(id, market, userID string, side Side, price, quantity uint64) *Order {
	o := orderPool.Get().(*Order)
	o.ID = id
	o.Market = market
	o.UserID = userID
	o.Side = side
	o.Price = price
	o.Quantity = quantity
	o.Filled = 0
	o.Status = OrderStatusPending
	o.ListElement = nil
	o.Timestamp = time.Now()
	return o
}

// IsDone reports whether the order is fully filled or cancelled.
func (o *Order) IsDone() bool {
	return o.Filled >= o.Quantity || o.Status == OrderStatusCancelled
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() uint64 {
	return o.Quantity - o.Filled
}

// Fill records a partial or full match against this order.
func (o *Order) Fill(quantity uint64) {
	o.Filled += quantity
	if o.Filled >= o.Quantity {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartialFilled
	}
}

// Cancel marks the order as cancelled.
func (o *Order) Cancel() {
	o.Status = OrderStatusCancelled
}

// Release returns the order to the pool. The caller must have already
// copied out anything it still needs (e.g. an open-orders snapshot).
func (o *Order) Release() {
	*o = Order{}
	orderPool.Put(o)
}

// Snapshot is an immutable copy of an order's public fields, safe to hand to
// callers outside the engine (e.g. an open-orders reply) after the backing
// *Order has been released to the pool.
type Snapshot struct {
	ID       string
	Market   string
	UserID   string
	Side     Side
	Price    uint64
	Quantity uint64
	Filled   uint64
}

// Snapshot copies the order's public fields.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:       o.ID,
		Market:   o.Market,
		UserID:   o.UserID,
		Side:     o.Side,
		Price:    o.Price,
		Quantity: o.Quantity,
		Filled:   o.Filled,
	}
}
