package domain

import "github.com/shopspring/decimal"

// Balance is a user's holding of one asset: funds that can be locked for a
// new order (Available) and funds already committed to a resting order
// (Locked). Both must stay >= 0 (spec.md §3).
type Balance struct {
	Available decimal.Decimal
	Locked    decimal.Decimal
}

// NewBalance returns a zeroed balance.
func NewBalance() Balance {
	return Balance{Available: decimal.Zero, Locked: decimal.Zero}
}

// UserBalances is a user's holdings across every asset it has touched,
// created lazily on first on-ramp (spec.md §3).
type UserBalances map[string]Balance
