package usecase

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dyoh/upbitwatch/internal/domain"
)

// dayCandleLookback is how many daily candles the base-candle strategy
// fetches before filtering by the reference date.
const dayCandleLookback = 100

var parenSuffix = regexp.MustCompile(`\s*\([^)]*\)`)

// TargetResolver turns a row's target-price spec into a numeric trigger
// price. Three mutually exclusive strategies: literal fiat price,
// percent-of-average-cost, and base-candle (lowest daily low since a
// reference date plus a fixed offset).
type TargetResolver struct {
	exchange domain.Exchange
	now      func() time.Time
}

func NewTargetResolver(exchange domain.Exchange) *TargetResolver {
	return &TargetResolver{exchange: exchange, now: time.Now}
}

// Resolve computes the trigger price for row on market. The only shared
// state it mutates is the row itself, and only on the base-candle path:
// a blank reference date is filled with today, and after resolution the
// condition cell is rewritten to at-least (the resolved target is a floor).
func (r *TargetResolver) Resolve(ctx context.Context, row *domain.WatchRow, market string, accounts domain.AccountSnapshot) (domain.ResolvedTarget, error) {
	switch {
	case row.TradeType == domain.TradeTypeBaseCandleSell:
		return r.resolveBaseCandle(ctx, row, market)
	case strings.Contains(row.TargetFormat, "%") || strings.Contains(row.TargetRaw, "%"):
		return r.resolvePercentOfCost(row, market, accounts)
	default:
		return r.resolveLiteral(row)
	}
}

func (r *TargetResolver) resolveLiteral(row *domain.WatchRow) (domain.ResolvedTarget, error) {
	v, err := ParseNumber(row.TargetRaw)
	if err != nil {
		return domain.ResolvedTarget{}, &domain.ParseError{Field: "target price", Value: row.TargetRaw, Err: err}
	}
	return domain.ResolvedTarget{
		Price: math.Trunc(v),
		Label: tradeLabel(row.TradeType),
	}, nil
}

func (r *TargetResolver) resolvePercentOfCost(row *domain.WatchRow, market string, accounts domain.AccountSnapshot) (domain.ResolvedTarget, error) {
	pct, err := ParseNumber(row.TargetRaw)
	if err != nil {
		return domain.ResolvedTarget{}, &domain.ParseError{Field: "target percent", Value: row.TargetRaw, Err: err}
	}
	// Percent-formatted cells store 7% as 0.07; a plain cell stores it as 7.
	// The format hint is the only way to tell the two apart.
	if strings.Contains(row.TargetFormat, "%") {
		pct *= 100
	}
	currency := strings.TrimPrefix(market, "KRW-")
	held, ok := accounts.Find(currency)
	if !ok {
		return domain.ResolvedTarget{}, &domain.NotHeldError{Currency: currency}
	}
	target := math.Trunc(held.AvgBuyPrice * (1 + pct/100))
	return domain.ResolvedTarget{Price: target, Label: tradeLabel(row.TradeType)}, nil
}

func (r *TargetResolver) resolveBaseCandle(ctx context.Context, row *domain.WatchRow, market string) (domain.ResolvedTarget, error) {
	refRaw := strings.TrimSpace(row.Condition)
	if refRaw == "" || refRaw == "None" || refRaw == "NaT" {
		refRaw = r.now().Format("2006-01-02")
		row.Condition = refRaw
	}
	refDate, err := ParseDate(refRaw)
	if err != nil {
		return domain.ResolvedTarget{}, &domain.ParseError{Field: "reference date", Value: refRaw, Err: err}
	}
	offset, err := ParseNumber(row.TargetRaw)
	if err != nil {
		return domain.ResolvedTarget{}, &domain.ParseError{Field: "target offset", Value: row.TargetRaw, Err: err}
	}

	candles, err := r.exchange.GetDayCandles(ctx, market, dayCandleLookback)
	if err != nil || len(candles) == 0 {
		return domain.ResolvedTarget{}, &domain.NoDataError{Market: market, What: "daily candles"}
	}

	lowest := math.Inf(1)
	for _, c := range candles {
		if !dayOf(c.Date).Before(refDate) && c.Low < lowest {
			lowest = c.Low
		}
	}
	if math.IsInf(lowest, 1) {
		return domain.ResolvedTarget{}, &domain.NoDataError{Market: market, What: "candles since reference date"}
	}

	// The target is a floor; downstream comparison is always at-least.
	row.Condition = domain.ConditionAtLeast

	return domain.ResolvedTarget{
		Price: math.Trunc(lowest) + math.Trunc(offset),
		Label: "sell (base candle)",
	}, nil
}

func tradeLabel(t domain.TradeType) string {
	switch t {
	case domain.TradeTypeBuy:
		return "buy"
	case domain.TradeTypeSell:
		return "sell"
	case domain.TradeTypeBaseCandleSell:
		return "sell (base candle)"
	}
	return string(t)
}

// ParseDate parses a spreadsheet date cell, tolerating a parenthesized
// weekday suffix like "2025-02-01 (토)". The result is truncated to the day.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(parenSuffix.ReplaceAllString(raw, ""))
	layouts := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006.01.02",
		"2006/01/02",
		"01-02-06",
		time.RFC3339,
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return dayOf(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
