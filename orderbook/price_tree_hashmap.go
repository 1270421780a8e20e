package orderbook

import (
	"container/list"

	"tradecore/domain"
)

// hashMapTree is a HashMap of price -> priceLevel, with levels chained by
// price priority through priceLevel.next/prev so the best level and its
// neighbors are reachable without consulting the map again.
//
// Adapted from the teacher's HashMapListPriceTree: same O(1) best-price
// access and O(1) single-order removal; new price-level insertion is O(n)
// in the number of existing levels (rare in practice, since most orders
// land near the best price). Good for markets with a shallow book; see
// shardedTree for the alternative used when level count grows large.
type hashMapTree struct {
	levels     map[uint64]*priceLevel
	bestLevel  *priceLevel
	descending bool // true for bids (best = highest), false for asks (best = lowest)
}

var _ priceTree = (*hashMapTree)(nil)

func newHashMapTree(descending bool) *hashMapTree {
	return &hashMapTree{
		levels:     make(map[uint64]*priceLevel),
		descending: descending,
	}
}

func (t *hashMapTree) betterPrice(a, b uint64) bool {
	if t.descending {
		return a > b
	}
	return a < b
}

func (t *hashMapTree) insert(order *domain.Order) {
	lvl, ok := t.levels[order.Price]
	if !ok {
		lvl = newPriceLevel(order.Price)
		t.levels[order.Price] = lvl
		t.link(lvl)
	}
	lvl.push(order)
}

func (t *hashMapTree) link(lvl *priceLevel) {
	if t.bestLevel == nil {
		t.bestLevel = lvl
		return
	}
	if t.betterPrice(lvl.Price, t.bestLevel.Price) {
		lvl.next = t.bestLevel
		t.bestLevel.prev = lvl
		t.bestLevel = lvl
		return
	}
	cur := t.bestLevel
	for cur.next != nil && !t.betterPrice(lvl.Price, cur.next.Price) {
		cur = cur.next
	}
	lvl.next = cur.next
	lvl.prev = cur
	if cur.next != nil {
		cur.next.prev = lvl
	}
	cur.next = lvl
}

func (t *hashMapTree) unlink(lvl *priceLevel) {
	delete(t.levels, lvl.Price)
	if lvl.prev != nil {
		lvl.prev.next = lvl.next
	}
	if lvl.next != nil {
		lvl.next.prev = lvl.prev
	}
	if t.bestLevel == lvl {
		t.bestLevel = lvl.next
	}
	lvl.next, lvl.prev = nil, nil
}

func (t *hashMapTree) remove(order *domain.Order) *priceLevel {
	lvl, ok := t.levels[order.Price]
	if !ok || order.ListElement == nil {
		return nil
	}
	elem, ok := order.ListElement.(*list.Element)
	if !ok {
		return nil
	}
	lvl.removeElem(elem, order.Remaining())
	order.ListElement = nil
	if lvl.Orders.Len() == 0 {
		t.unlink(lvl)
	}
	return lvl
}

func (t *hashMapTree) best() *priceLevel {
	return t.bestLevel
}

func (t *hashMapTree) walk(visit func(*priceLevel) bool) {
	for lvl := t.bestLevel; lvl != nil; lvl = lvl.next {
		if !visit(lvl) {
			return
		}
	}
}

func (t *hashMapTree) isEmpty() bool {
	return t.bestLevel == nil
}
