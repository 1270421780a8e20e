package domain

import "time"

// Fill is one matching event produced by OrderBook.Add: one maker order
// consuming part or all of a taker's remaining quantity. Trade price is
// always the maker's price (spec.md §4.1 tie-break rule).
type Fill struct {
	TradeID uint64
	Price   uint64
	Qty     uint64

	MakerOrderID string
	MakerUserID  string
	MakerFilled  uint64 // maker's cumulative filled quantity after this fill
	TakerOrderID string
	TakerUserID  string

	Market    string
	TakerSide Side
	Timestamp time.Time
}

// IsBuyerMaker reports whether the resting (maker) side was the buyer.
// spec.md §9: true when the taker sells (the resting buyer is then the
// maker); kept verbatim from the original source's convention.
func (f Fill) IsBuyerMaker() bool {
	return f.TakerSide == SideSell
}
