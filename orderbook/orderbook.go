// Package orderbook implements the price-time priority limit order book:
// one instance per market, matching a taker order against resting orders on
// the opposite side and resting any unfilled remainder.
package orderbook

import (
	"tradecore/domain"
)

// restingRef records the side and price a resting order occupies; cancel
// uses it to pick the tree and the level, then finds the order itself by
// walking the tree's levels up to that price and scanning that level's list.
type restingRef struct {
	price uint64
	side  domain.Side
}

// OrderCreated is the result of OrderBook.Add: how much of the incoming
// order matched immediately, and the fills that produced it.
type OrderCreated struct {
	ExecutedQuantity uint64
	Fills            []domain.Fill
}

// OrderBook holds one market's resting orders and matches incoming orders
// against them in strict price-time priority.
type OrderBook struct {
	Market string

	bids priceTree // descending: best bid = highest price
	asks priceTree // ascending: best ask = lowest price

	// resting indexes every order currently in the book by id, so
	// cancellation knows the order's side and price without searching both
	// trees; it still walks levels in priority order to reach that price
	// and scans the level's orders for the id.
	resting map[string]restingRef

	lastTradeID    uint64
	lastTradePrice uint64
}

// New builds an empty order book for market, using kind as the backing
// price-tree implementation for both sides.
func New(market string, kind TreeKind) *OrderBook {
	return &OrderBook{
		Market:  market,
		bids:    newPriceTree(kind, true),
		asks:    newPriceTree(kind, false),
		resting: make(map[string]restingRef),
	}
}

// Ticker returns the market symbol this book serves.
func (b *OrderBook) Ticker() string {
	return b.Market
}

// Add matches order against the opposite side of the book and rests any
// unfilled remainder on order's own side. order.Filled is updated in place.
func (b *OrderBook) Add(order *domain.Order) OrderCreated {
	var result OrderCreated
	if order.Side == domain.SideBuy {
		result = b.matchAsks(order)
	} else {
		result = b.matchBids(order)
	}
	order.Filled = result.ExecutedQuantity

	if result.ExecutedQuantity < order.Quantity {
		if order.Side == domain.SideBuy {
			b.bids.insert(order)
		} else {
			b.asks.insert(order)
		}
		b.resting[order.ID] = restingRef{price: order.Price, side: order.Side}
	}
	return result
}

// matchAsks consumes resting asks on behalf of a buy-side taker, starting
// from the lowest ask and stopping at the taker's limit price or once the
// taker is fully filled.
func (b *OrderBook) matchAsks(taker *domain.Order) OrderCreated {
	return b.match(b.asks, taker, func(lvl *priceLevel) bool {
		return lvl.Price <= taker.Price
	})
}

// matchBids is matchAsks's mirror for a sell-side taker: consumes resting
// bids from the highest price down to the taker's limit.
func (b *OrderBook) matchBids(taker *domain.Order) OrderCreated {
	return b.match(b.bids, taker, func(lvl *priceLevel) bool {
		return lvl.Price >= taker.Price
	})
}

// match walks tree in price priority, consuming resting orders into taker
// while withinLimit holds for the level's price, then removes every maker
// left fully filled.
func (b *OrderBook) match(tree priceTree, taker *domain.Order, withinLimit func(*priceLevel) bool) OrderCreated {
	var result OrderCreated
	var done []*domain.Order

	tree.walk(func(lvl *priceLevel) bool {
		if result.ExecutedQuantity >= taker.Quantity || !withinLimit(lvl) {
			return false
		}
		for e := lvl.Orders.Front(); e != nil && result.ExecutedQuantity < taker.Quantity; e = e.Next() {
			maker := e.Value.(*domain.Order)
			fillQty := min(maker.Remaining(), taker.Quantity-result.ExecutedQuantity)

			b.lastTradeID++
			maker.Fill(fillQty)
			lvl.fill(fillQty)
			b.lastTradePrice = lvl.Price
			result.ExecutedQuantity += fillQty
			result.Fills = append(result.Fills, domain.Fill{
				TradeID:      b.lastTradeID,
				Price:        lvl.Price,
				Qty:          fillQty,
				MakerOrderID: maker.ID,
				MakerUserID:  maker.UserID,
				MakerFilled:  maker.Filled,
				TakerOrderID: taker.ID,
				TakerUserID:  taker.UserID,
				Market:       b.Market,
				TakerSide:    taker.Side,
			})

			if maker.IsDone() {
				done = append(done, maker)
			}
		}
		return true
	})

	for _, maker := range done {
		tree.remove(maker)
		delete(b.resting, maker.ID)
		maker.Release()
	}
	return result
}

// CancelBid removes a resting buy order by id. Returns the order's
// remaining quantity and true if it was found and removed.
func (b *OrderBook) CancelBid(orderID string) (remaining uint64, ok bool) {
	res, ok := b.cancel(orderID, domain.SideBuy)
	return res.Remaining, ok
}

// CancelAsk removes a resting sell order by id. Returns the order's
// remaining quantity and true if it was found and removed.
func (b *OrderBook) CancelAsk(orderID string) (remaining uint64, ok bool) {
	res, ok := b.cancel(orderID, domain.SideSell)
	return res.Remaining, ok
}

// CancelResult is everything a caller needs to refund the cancelled
// order's locked balance, without having to already know which side of
// the book (or which user) the order belonged to.
type CancelResult struct {
	UserID    string
	Side      domain.Side
	Price     uint64
	Filled    uint64
	Remaining uint64
}

// Cancel removes a resting order by id, looking up its side itself. Returns
// the zero CancelResult and false if the order is unknown or already done.
func (b *OrderBook) Cancel(orderID string) (CancelResult, bool) {
	ref, found := b.resting[orderID]
	if !found {
		return CancelResult{}, false
	}
	return b.cancel(orderID, ref.side)
}

func (b *OrderBook) cancel(orderID string, side domain.Side) (CancelResult, bool) {
	ref, found := b.resting[orderID]
	if !found || ref.side != side {
		return CancelResult{}, false
	}
	tree := b.asks
	if side == domain.SideBuy {
		tree = b.bids
	}

	var target *domain.Order
	tree.walk(func(lvl *priceLevel) bool {
		if lvl.Price != ref.price {
			return true // keep scanning other levels
		}
		for e := lvl.Orders.Front(); e != nil; e = e.Next() {
			if o := e.Value.(*domain.Order); o.ID == orderID {
				target = o
				break
			}
		}
		return false // found the target level either way, stop here
	})
	if target == nil {
		delete(b.resting, orderID)
		return CancelResult{}, false
	}

	result := CancelResult{
		UserID:    target.UserID,
		Side:      side,
		Price:     target.Price,
		Filled:    target.Filled,
		Remaining: target.Remaining(),
	}
	tree.remove(target)
	delete(b.resting, orderID)
	target.Cancel()
	target.Release()
	return result, true
}

// DepthLevel is one price/quantity pair in a Depth snapshot.
type DepthLevel struct {
	Price    uint64
	Quantity uint64
}

// Depth returns the current resting volume at every open price level, bids
// best-to-worst (descending) then asks best-to-worst (ascending).
func (b *OrderBook) Depth() (bids, asks []DepthLevel) {
	b.bids.walk(func(lvl *priceLevel) bool {
		if lvl.Volume > 0 {
			bids = append(bids, DepthLevel{Price: lvl.Price, Quantity: lvl.Volume})
		}
		return true
	})
	b.asks.walk(func(lvl *priceLevel) bool {
		if lvl.Volume > 0 {
			asks = append(asks, DepthLevel{Price: lvl.Price, Quantity: lvl.Volume})
		}
		return true
	})
	return bids, asks
}

// OpenOrders returns every resting order belonging to userID, across both
// sides, as immutable snapshots.
func (b *OrderBook) OpenOrders(userID string) []domain.Snapshot {
	var out []domain.Snapshot
	collect := func(lvl *priceLevel) bool {
		for e := lvl.Orders.Front(); e != nil; e = e.Next() {
			if o := e.Value.(*domain.Order); o.UserID == userID {
				out = append(out, o.Snapshot())
			}
		}
		return true
	}
	b.bids.walk(collect)
	b.asks.walk(collect)
	return out
}

// LastTrade returns the most recent trade price and the running trade-id
// counter for this book.
func (b *OrderBook) LastTrade() (price uint64, tradeID uint64) {
	return b.lastTradePrice, b.lastTradeID
}
