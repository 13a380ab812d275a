package domain

import (
	"strings"
	"time"
)

// TradeType is the action a watch row takes when it fires.
type TradeType string

const (
	TradeTypeBuy  TradeType = "buy"
	TradeTypeSell TradeType = "sell"
	// TradeTypeBaseCandleSell is a take-profit sell whose target price is
	// derived from the lowest daily low since a reference date.
	TradeTypeBaseCandleSell TradeType = "base_candle_sell"
)

// Watch conditions. For base-candle rows the Condition field carries the
// reference date until the target is resolved, after which it is rewritten
// to ConditionAtLeast.
const (
	ConditionAtLeast = "at_least"
	ConditionAtMost  = "at_most"
)

// QuantityUnit selects how the quantity cell is interpreted.
type QuantityUnit string

const (
	UnitCount   QuantityUnit = "count" // asset units
	UnitFiat    QuantityUnit = "krw"   // quote-currency amount
	UnitPercent QuantityUnit = "%"     // percent of balance (buy) / holdings (sell)
)

// DeriveUnit resolves the quantity unit from the unit cell, falling back to
// the quantity cell's number format when the unit cell is blank. A percent
// format means percent, a currency format means KRW, everything else counts
// asset units. The format fallback is load-bearing: the same raw number
// means different things depending on cell formatting.
func DeriveUnit(unitRaw, formatHint string) QuantityUnit {
	switch strings.ToUpper(strings.TrimSpace(unitRaw)) {
	case "개", "COUNT":
		return UnitCount
	case "KRW", "원":
		return UnitFiat
	case "%":
		return UnitPercent
	}
	if strings.Contains(formatHint, "%") {
		return UnitPercent
	}
	if strings.Contains(formatHint, "KRW") || strings.Contains(formatHint, "원") || strings.Contains(formatHint, "₩") {
		return UnitFiat
	}
	return UnitCount
}

// OrderPriceMarket is the literal in the order-price cell that requests a
// market order; anything else is parsed as a limit price.
const OrderPriceMarket = "market"

// WatchRow is one monitored trade instruction loaded from the watch list.
// Active is the sole gate for evaluation; once the row fires an order attempt
// or hits a terminal error it is flipped to false and never re-armed.
type WatchRow struct {
	Name   string // asset name, symbol, or market code
	Reason string // free text, carried into notifications

	TradeType TradeType

	// Condition holds ConditionAtLeast/ConditionAtMost, or the raw reference
	// date for base-candle rows before resolution.
	Condition string

	// TargetRaw is the watch-price cell as entered; TargetFormat is the
	// cell's number format. The format is load-bearing: a percent format
	// changes how the raw number is scaled.
	TargetRaw    string
	TargetFormat string

	QuantityRaw    string
	QuantityFormat string
	Unit           QuantityUnit // empty means "derive from QuantityFormat"

	// OrderPrice is OrderPriceMarket or a numeric limit price.
	OrderPrice string

	ValidUntil string // raw expiry cell, parsed each cycle

	Active bool

	fingerprint string
}

// Fingerprint identifies a row across reloads for the fired-row journal.
// Two rows with the same name, reason, trade type and target are the same
// intent. The value is pinned on first use: base-candle resolution rewrites
// Condition in place, and a fingerprint taken afterwards would no longer
// match the one computed from the reloaded sheet.
func (r *WatchRow) Fingerprint() string {
	if r.fingerprint == "" {
		r.fingerprint = r.Name + "|" + r.Reason + "|" + string(r.TradeType) + "|" + r.TargetRaw + "|" + r.Condition
	}
	return r.fingerprint
}

// ResolvedTarget is the output of target resolution, consumed immediately by
// the condition evaluator.
type ResolvedTarget struct {
	Price float64
	Label string // human-readable trade-type label for notifications
}

// Market is one tradable instrument from the exchange listing.
type Market struct {
	Code        string // e.g. "KRW-BTC"
	KoreanName  string
	EnglishName string
}

// DayCandle is a daily candle reduced to the fields target resolution needs.
type DayCandle struct {
	Date time.Time
	Low  float64
}

// MarketQuote is the ephemeral per-row price context for one evaluation.
// HaveRange reports whether RecentHigh/RecentLow are usable; when false the
// evaluator falls back to Price alone.
type MarketQuote struct {
	Price      float64
	RecentHigh float64
	RecentLow  float64
	HaveRange  bool
}
