// Package ledger owns every user's per-asset balances and the fund-locking
// operations the engine performs around order placement, matching, and
// cancellation.
package ledger

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"tradecore/domain"
)

// ErrInsufficientFunds is returned by Lock when the requesting user's
// available balance can't cover the requested amount.
var ErrInsufficientFunds = errors.New("ledger: insufficient available balance")

// Ledger tracks every user's holdings across every asset it has touched.
// The engine owns the single instance for its lifetime; nothing outside the
// engine ever mutates it directly (spec's single-owner balance rule).
type Ledger struct {
	mu    sync.Mutex
	users map[string]domain.UserBalances
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{users: make(map[string]domain.UserBalances)}
}

// Credit increases userID's available balance of asset by amount, creating
// the user/asset entry if absent. Used for on-ramp deposits, the one
// operation the spec excludes from the conservation invariant.
func (l *Ledger) Credit(userID, asset string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := l.users[userID]
	if holdings == nil {
		holdings = make(domain.UserBalances)
		l.users[userID] = holdings
	}
	bal := holdings[asset]
	bal.Available = bal.Available.Add(amount)
	holdings[asset] = bal
}

// Lock moves amount from userID's available balance of asset into locked,
// failing with ErrInsufficientFunds if available can't cover it. Used when
// placing an order: the full notional is locked up front so a later fill
// never needs to re-check solvency.
func (l *Ledger) Lock(userID, asset string, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := l.users[userID]
	bal, ok := holdingsBalance(holdings, asset)
	if !ok || bal.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	bal.Available = bal.Available.Sub(amount)
	bal.Locked = bal.Locked.Add(amount)
	holdings[asset] = bal
	return nil
}

// Unlock moves amount from userID's locked balance of asset back to
// available, without crediting new funds. Used to refund the unfilled
// remainder of a cancelled order.
func (l *Ledger) Unlock(userID, asset string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := l.users[userID]
	if holdings == nil {
		return
	}
	bal := holdings[asset]
	bal.Locked = bal.Locked.Sub(amount)
	bal.Available = bal.Available.Add(amount)
	holdings[asset] = bal
}

// Settle moves amount out of userID's locked balance of asset, crediting
// nothing back — used on the side of a fill whose funds are leaving the
// user entirely (the maker's base on a sell fill, the taker's quote lock on
// a buy fill).
func (l *Ledger) Settle(userID, asset string, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := l.users[userID]
	if holdings == nil {
		return
	}
	bal := holdings[asset]
	bal.Locked = bal.Locked.Sub(amount)
	holdings[asset] = bal
}

// CreditAvailable increases userID's available balance of asset by amount
// without touching locked — used on the receiving side of a fill (the
// maker's quote on a sell fill, the taker's base on a buy fill).
func (l *Ledger) CreditAvailable(userID, asset string, amount decimal.Decimal) {
	l.Credit(userID, asset, amount)
}

// Balance returns a copy of userID's balance of asset, the zero balance if
// the user or asset has never been touched.
func (l *Ledger) Balance(userID, asset string) domain.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings := l.users[userID]
	bal, _ := holdingsBalance(holdings, asset)
	return bal
}

func holdingsBalance(holdings domain.UserBalances, asset string) (domain.Balance, bool) {
	if holdings == nil {
		return domain.NewBalance(), false
	}
	bal, ok := holdings[asset]
	if !ok {
		return domain.NewBalance(), false
	}
	return bal, true
}
