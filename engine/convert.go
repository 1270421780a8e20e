package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// errBadAmount covers any decimal string that fails to parse, is not
// positive, or is finer than the market's increment.
var errBadAmount = errors.New("engine: invalid price or quantity")

// toUnits converts a decimal wire amount into the market's integer
// representation: amount expressed as a count of scale (the market's
// minimum increment, e.g. 100 for a quote asset priced to the cent).
func toUnits(amount string, scale uint64) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadAmount, amount)
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("%w: must be positive", errBadAmount)
	}
	scaled := d.Mul(decimal.NewFromInt(int64(scale)))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: finer than the market's increment", errBadAmount)
	}
	return uint64(scaled.IntPart()), nil
}

// fromUnits is toUnits's inverse, used when rendering integer state back
// onto the wire.
func fromUnits(units uint64, scale uint64) decimal.Decimal {
	return decimal.NewFromInt(int64(units)).Div(decimal.NewFromInt(int64(scale)))
}

// notional returns price * quantity in the market's quote-asset decimal
// representation, computed from integer units to avoid the rounding a
// float multiplication would accumulate.
func notional(priceUnits, qtyUnits uint64, priceScale, qtyScale uint64) decimal.Decimal {
	price := fromUnits(priceUnits, priceScale)
	qty := fromUnits(qtyUnits, qtyScale)
	return price.Mul(qty)
}
