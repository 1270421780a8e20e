package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLockRequiresSufficientAvailable(t *testing.T) {
	l := New()
	if err := l.Lock("u1", "INR", decimal.NewFromInt(100)); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds on empty balance, got %v", err)
	}

	l.Credit("u1", "INR", decimal.NewFromInt(1000))
	if err := l.Lock("u1", "INR", decimal.NewFromInt(400)); err != nil {
		t.Fatalf("unexpected lock error: %v", err)
	}

	bal := l.Balance("u1", "INR")
	if !bal.Available.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected available 600, got %s", bal.Available)
	}
	if !bal.Locked.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected locked 400, got %s", bal.Locked)
	}
}

func TestUnlockRefundsWithoutCreditingNewFunds(t *testing.T) {
	l := New()
	l.Credit("u1", "INR", decimal.NewFromInt(1000))
	_ = l.Lock("u1", "INR", decimal.NewFromInt(1000))

	l.Unlock("u1", "INR", decimal.NewFromInt(400))

	bal := l.Balance("u1", "INR")
	if !bal.Available.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected available 400, got %s", bal.Available)
	}
	if !bal.Locked.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("expected locked 600, got %s", bal.Locked)
	}
}

func TestSettleMovesLockedOutWithoutCreditingReceiver(t *testing.T) {
	l := New()
	l.Credit("maker", "TATA", decimal.NewFromInt(10))
	_ = l.Lock("maker", "TATA", decimal.NewFromInt(10))

	l.Settle("maker", "TATA", decimal.NewFromInt(10))

	bal := l.Balance("maker", "TATA")
	if !bal.Locked.IsZero() {
		t.Fatalf("expected locked drained to zero, got %s", bal.Locked)
	}
	if !bal.Available.IsZero() {
		t.Fatalf("settle must not credit available, got %s", bal.Available)
	}
}

// Conservation: a full lock/settle/credit cycle across two users must leave
// the combined available+locked total unchanged (spec's Balance invariant).
func TestFillSettlementConservesTotal(t *testing.T) {
	l := New()
	l.Credit("buyer", "INR", decimal.NewFromInt(10000))
	l.Credit("seller", "TATA", decimal.NewFromInt(100))

	if err := l.Lock("buyer", "INR", decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("lock buyer quote: %v", err)
	}
	if err := l.Lock("seller", "TATA", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("lock seller base: %v", err)
	}

	// one fill of qty=10 at price=100: quote notional 1000
	l.Settle("buyer", "INR", decimal.NewFromInt(1000))
	l.CreditAvailable("seller", "INR", decimal.NewFromInt(1000))
	l.Settle("seller", "TATA", decimal.NewFromInt(10))
	l.CreditAvailable("buyer", "TATA", decimal.NewFromInt(10))

	buyerINR := l.Balance("buyer", "INR")
	sellerINR := l.Balance("seller", "INR")
	totalINR := buyerINR.Available.Add(buyerINR.Locked).Add(sellerINR.Available).Add(sellerINR.Locked)
	if !totalINR.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("INR not conserved: got %s", totalINR)
	}

	buyerTATA := l.Balance("buyer", "TATA")
	sellerTATA := l.Balance("seller", "TATA")
	totalTATA := buyerTATA.Available.Add(buyerTATA.Locked).Add(sellerTATA.Available).Add(sellerTATA.Locked)
	if !totalTATA.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("TATA not conserved: got %s", totalTATA)
	}
}
