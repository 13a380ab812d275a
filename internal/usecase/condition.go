package usecase

import "github.com/dyoh/upbitwatch/internal/domain"

// ConditionEvaluator decides whether a resolved target is currently met.
//
// The preferred signal is the recent minute-candle high/low: an at-least
// condition fires when the recent high touched the target even if the price
// has since fallen back, and an at-most condition fires on the recent low.
// When candle data is unavailable the single current trade price is compared
// directly with the same operators.
type ConditionEvaluator struct{}

func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{}
}

func (e *ConditionEvaluator) Evaluate(condition string, target float64, quote domain.MarketQuote) (bool, error) {
	if quote.HaveRange {
		switch condition {
		case domain.ConditionAtLeast:
			return quote.RecentHigh >= target, nil
		case domain.ConditionAtMost:
			return quote.RecentLow <= target, nil
		default:
			return false, domain.ErrUnknownCondition
		}
	}
	switch condition {
	case domain.ConditionAtLeast:
		return quote.Price >= target, nil
	case domain.ConditionAtMost:
		return quote.Price <= target, nil
	default:
		return false, domain.ErrUnknownCondition
	}
}
