package orderbook

import "tradecore/domain"

// priceTree indexes the resting orders of one side (bids or asks) of one
// market by price, walkable in price priority. Two implementations are
// provided (see price_tree_hashmap.go, price_tree_sharded.go); OrderBook
// picks one per side at construction time via newPriceTree.
type priceTree interface {
	// insert adds order to its price level, creating the level if absent.
	insert(order *domain.Order)

	// remove takes order out of its price level; a no-op if the order is
	// not present. Returns the level the order was removed from, or nil.
	remove(order *domain.Order) *priceLevel

	// best returns the best (first-priority) price level, or nil if empty.
	best() *priceLevel

	// walk visits price levels in priority order starting from best,
	// stopping early if visit returns false.
	walk(visit func(*priceLevel) bool)

	// isEmpty reports whether the tree holds no resting orders.
	isEmpty() bool
}
