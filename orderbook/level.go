package orderbook

import (
	"container/list"

	"tradecore/domain"
)

// priceLevel holds every resting order at one price on one side, in FIFO
// (time-priority) order. Volume is the depth cache for this level: the sum
// of (quantity - filled) across every resting order (spec.md §3, §4.1).
type priceLevel struct {
	Price  uint64
	Orders *list.List
	Volume uint64

	// next/prev order this level by price within its backing tree (within
	// one bucket for shardedTree); asks chain ascending, bids chain
	// descending, so a walk can step from one level to the next without a
	// lookup by price.
	next *priceLevel
	prev *priceLevel
}

func newPriceLevel(price uint64) *priceLevel {
	return &priceLevel{Price: price, Orders: list.New()}
}

// push appends an order to the level's FIFO queue and adjusts Volume.
func (lvl *priceLevel) push(order *domain.Order) {
	elem := lvl.Orders.PushBack(order)
	order.ListElement = elem
	lvl.Volume += order.Remaining()
}

// removeElem removes a specific element (by the order's stored
// list.Element) and adjusts Volume by the order's remaining quantity at the
// time of removal. The caller must pass the order's remaining quantity
// before mutating it further.
func (lvl *priceLevel) removeElem(elem *list.Element, remaining uint64) {
	lvl.Orders.Remove(elem)
	if remaining > lvl.Volume {
		lvl.Volume = 0
	} else {
		lvl.Volume -= remaining
	}
}

// fill decrements the level's depth cache by a matched quantity, without
// touching the FIFO queue itself (the matched order may still be resting,
// partially filled).
func (lvl *priceLevel) fill(qty uint64) {
	if qty > lvl.Volume {
		lvl.Volume = 0
	} else {
		lvl.Volume -= qty
	}
}

// front returns the oldest resting order at this level, or nil if empty.
func (lvl *priceLevel) front() *domain.Order {
	e := lvl.Orders.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*domain.Order)
}
