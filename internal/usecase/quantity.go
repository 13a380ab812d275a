package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dyoh/upbitwatch/internal/domain"
)

// DefaultMinOrderKRW is Upbit's minimum order value in quote currency.
const DefaultMinOrderKRW = 5000

// fullSellThreshold: percent sells at or above this are treated as "sell
// everything" and map to the exact held quantity, so rounding never leaves an
// unsellable dust remainder.
const fullSellThreshold = 99.999999

// Normalizer converts a quantity spec plus live price/balance context into a
// concrete order size, enforcing the exchange minimum and holdings limits.
type Normalizer struct {
	MinOrderKRW float64
}

func NewNormalizer(minOrderKRW float64) *Normalizer {
	if minOrderKRW <= 0 {
		minOrderKRW = DefaultMinOrderKRW
	}
	return &Normalizer{MinOrderKRW: minOrderKRW}
}

// ParseNumber parses a spreadsheet numeric cell, tolerating thousands
// separators, percent signs, currency marks and whitespace.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	for _, cut := range []string{",", "%", "원", "₩", "KRW", " "} {
		s = strings.ReplaceAll(s, cut, "")
	}
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

// Round8 rounds to the exchange lot precision of 8 decimal places.
func Round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// scalePercent applies the fraction shorthand (0.1 == 10%) and validates the
// result against (0, 100].
func scalePercent(v float64) (float64, error) {
	if v > 0 && v <= 1.0 {
		v *= 100
	}
	if v <= 0 || v > 100 {
		return 0, &domain.RangeError{Value: v}
	}
	return v, nil
}

// NormalizeBuyAmount sizes a market buy as a whole-KRW amount.
func (n *Normalizer) NormalizeBuyAmount(unit domain.QuantityUnit, value, marketPrice, krwBalance float64) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("buy quantity must be positive, got %v", value)
	}
	var amount float64
	switch unit {
	case domain.UnitFiat:
		amount = value
	case domain.UnitPercent:
		pct, err := scalePercent(value)
		if err != nil {
			return 0, err
		}
		amount = krwBalance * pct / 100
	default:
		amount = value * marketPrice
	}
	amount = math.Trunc(amount)
	if amount < n.MinOrderKRW {
		return 0, &domain.BelowMinimumError{Amount: amount, Minimum: n.MinOrderKRW}
	}
	return amount, nil
}

// NormalizeBuyQuantity sizes a limit buy as an asset quantity at limitPrice,
// still enforcing the minimum on the implied order value.
func (n *Normalizer) NormalizeBuyQuantity(unit domain.QuantityUnit, value, limitPrice, krwBalance float64) (float64, error) {
	if value <= 0 {
		return 0, fmt.Errorf("buy quantity must be positive, got %v", value)
	}
	if limitPrice <= 0 {
		return 0, fmt.Errorf("limit price must be positive, got %v", limitPrice)
	}
	var qty float64
	switch unit {
	case domain.UnitFiat:
		qty = value / limitPrice
	case domain.UnitPercent:
		pct, err := scalePercent(value)
		if err != nil {
			return 0, err
		}
		qty = krwBalance * pct / 100 / limitPrice
	default:
		qty = value
	}
	qty = Round8(qty)
	if amount := math.Trunc(qty * limitPrice); amount < n.MinOrderKRW {
		return 0, &domain.BelowMinimumError{Amount: amount, Minimum: n.MinOrderKRW}
	}
	return qty, nil
}

// NormalizeSell sizes a sell as an asset quantity.
//
// Percent sells scale like buys and clamp to holdings; a request at or above
// fullSellThreshold returns heldQty exactly. KRW sells divide by the market
// price and also clamp. Count sells are taken literally: asking for more
// than is held rejects the order outright instead of clamping.
func (n *Normalizer) NormalizeSell(unit domain.QuantityUnit, value, heldQty, marketPrice float64) (float64, error) {
	if value <= 0 {
		return 0, domain.ErrSkipOrder
	}
	var qty float64
	switch unit {
	case domain.UnitPercent:
		pct, err := scalePercent(value)
		if err != nil {
			return 0, err
		}
		if pct >= fullSellThreshold {
			return heldQty, nil
		}
		qty = Round8(heldQty * pct / 100)
	case domain.UnitFiat:
		if marketPrice <= 0 {
			return 0, fmt.Errorf("market price unavailable, cannot size KRW sell")
		}
		qty = Round8(value / marketPrice)
	default:
		qty = Round8(value)
		if qty > heldQty {
			return 0, &domain.ExceedsHoldingsError{Requested: qty, Held: heldQty}
		}
	}
	if qty <= 0 {
		return 0, domain.ErrSkipOrder
	}
	if qty > heldQty {
		qty = heldQty
	}
	if qty < heldQty {
		return Round8(qty), nil
	}
	return heldQty, nil
}
