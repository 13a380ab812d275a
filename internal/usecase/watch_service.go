package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dyoh/upbitwatch/internal/domain"
	"go.uber.org/zap"
)

// WatchService runs one watch row through its per-cycle pipeline:
// expiry check -> market resolution -> target resolution -> condition
// evaluation -> quantity normalization -> order submission -> deactivation.
//
// Every terminal error is caught here, converted to a notification and a
// deactivation; a single row can never take down the poll loop. A fired row
// is deactivated whether or not its order succeeds, so one instruction
// triggers at most one order attempt across its lifetime.
type WatchService struct {
	exchange   domain.Exchange
	notifier   domain.Notifier
	journal    domain.RowJournal // may be nil
	markets    *MarketIndex
	resolver   *TargetResolver
	evaluator  *ConditionEvaluator
	normalizer *Normalizer
	rec        Recorder
	logger     *zap.Logger

	// candleWindow is how many recent 1-minute candles feed the high/low
	// comparison tier.
	candleWindow int

	now func() time.Time
}

func NewWatchService(
	exchange domain.Exchange,
	notifier domain.Notifier,
	journal domain.RowJournal,
	markets *MarketIndex,
	normalizer *Normalizer,
	candleWindow int,
	rec Recorder,
	logger *zap.Logger,
) *WatchService {
	if candleWindow <= 0 {
		candleWindow = 1
	}
	if rec == nil {
		rec = NopRecorder{}
	}
	return &WatchService{
		exchange:     exchange,
		notifier:     notifier,
		journal:      journal,
		markets:      markets,
		resolver:     NewTargetResolver(exchange),
		evaluator:    NewConditionEvaluator(),
		normalizer:   normalizer,
		rec:          rec,
		logger:       logger,
		candleWindow: candleWindow,
		now:          time.Now,
	}
}

// Outcome summarizes one row evaluation for the driver and for tests.
type Outcome struct {
	Fired       bool
	Deactivated bool
	Err         error
}

// EvaluateRow runs the full pipeline for one row. An inactive row is a
// strict no-op: no fetches, no notifications.
func (s *WatchService) EvaluateRow(ctx context.Context, row *domain.WatchRow, accounts domain.AccountSnapshot) (out Outcome) {
	if !row.Active {
		return Outcome{}
	}
	// Pin the journal identity before target resolution, which may rewrite
	// the condition cell in place.
	row.Fingerprint()
	s.rec.RowEvaluated()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("row evaluation panicked: %v", r)
			s.logger.Error("row panic", zap.String("row", row.Name), zap.Any("panic", r))
			out = s.terminate(ctx, row, err)
		}
	}()

	// Expiry. A missing or unparsable expiry never deactivates the row; a
	// human may still fix the sheet before the next load. An expired row
	// also stays active and just skips every cycle.
	switch s.checkExpiry(row) {
	case expiryMissing:
		s.logger.Warn("row has no expiry, skipping", zap.String("row", row.Name), zap.String("reason", row.Reason))
		return Outcome{}
	case expiryUnparsable:
		s.logger.Warn("cannot parse expiry, skipping",
			zap.String("row", row.Name), zap.String("expiry", row.ValidUntil))
		return Outcome{}
	case expiryPast:
		s.logger.Info("row expired, skipping", zap.String("row", row.Name), zap.String("expiry", row.ValidUntil))
		return Outcome{}
	}

	market, ok := s.markets.Resolve(row.Name)
	if !ok {
		return s.terminate(ctx, row, fmt.Errorf("no market code found for %q", row.Name))
	}

	target, err := s.resolver.Resolve(ctx, row, market, accounts)
	if err != nil {
		return s.terminate(ctx, row, err)
	}

	price, err := s.exchange.GetPrice(ctx, market)
	if err != nil || price <= 0 {
		// Retry next cycle.
		s.rec.RowError("transient")
		s.logger.Warn("price unavailable, retrying next cycle",
			zap.String("market", market), zap.Error(err))
		return Outcome{Err: &domain.TransientError{Op: "get price", Err: err}}
	}

	quote := domain.MarketQuote{Price: price}
	if high, low, haveRange, hlErr := s.exchange.GetMinuteHighLow(ctx, market, s.candleWindow); hlErr == nil && haveRange {
		quote.RecentHigh, quote.RecentLow, quote.HaveRange = high, low, true
	}

	fired, err := s.evaluator.Evaluate(row.Condition, target.Price, quote)
	if err != nil {
		// Unknown comparison operator: skip without deactivating, matching
		// the original behavior for this error kind.
		s.rec.RowError("unknown_condition")
		s.logger.Error("unknown watch condition, skipping",
			zap.String("row", row.Name), zap.String("condition", row.Condition))
		return Outcome{Err: err}
	}
	if !fired {
		return Outcome{}
	}

	s.rec.ConditionFired(target.Label)
	s.notifier.Notify(ctx, s.fireMessage(row, market, target, quote))

	out = s.executeOrder(ctx, row, market, target, quote, accounts)
	return out
}

type expiryState int

const (
	expiryOK expiryState = iota
	expiryMissing
	expiryUnparsable
	expiryPast
)

func (s *WatchService) checkExpiry(row *domain.WatchRow) expiryState {
	raw := strings.TrimSpace(row.ValidUntil)
	if raw == "" || raw == "None" || raw == "NaT" {
		return expiryMissing
	}
	expiry, err := ParseDate(raw)
	if err != nil {
		return expiryUnparsable
	}
	today := dayOf(s.now())
	if expiry.Before(today) {
		return expiryPast
	}
	return expiryOK
}

// executeOrder sizes and submits the order for a fired row, then deactivates
// the row regardless of the submission outcome.
func (s *WatchService) executeOrder(ctx context.Context, row *domain.WatchRow, market string, target domain.ResolvedTarget, quote domain.MarketQuote, accounts domain.AccountSnapshot) Outcome {
	value, err := ParseNumber(row.QuantityRaw)
	if err != nil {
		return s.terminate(ctx, row, &domain.ParseError{Field: "quantity", Value: row.QuantityRaw, Err: err})
	}
	unit := row.Unit
	if unit == "" {
		unit = domain.DeriveUnit("", row.QuantityFormat)
	}

	var intent *domain.OrderIntent
	switch row.TradeType {
	case domain.TradeTypeBuy:
		intent, err = s.sizeBuy(row, market, unit, value, quote.Price, accounts.KRWBalance())
	case domain.TradeTypeSell, domain.TradeTypeBaseCandleSell:
		intent, err = s.sizeSell(row, market, unit, value, quote.Price, accounts)
	default:
		return s.terminate(ctx, row, fmt.Errorf("unknown trade type %q", row.TradeType))
	}
	if err != nil {
		return s.terminate(ctx, row, err)
	}

	// Fire-once: from here on the row is spent no matter what the exchange
	// says.
	out := Outcome{Fired: true, Deactivated: true}
	row.Active = false

	result, err := s.exchange.SubmitOrder(ctx, intent)
	if err != nil || result == nil {
		s.rec.OrderSubmitted(string(intent.Side), false)
		subErr := &domain.OrderSubmissionError{Market: market, Err: err}
		s.record(ctx, row, "order_failed")
		s.notifier.Notify(ctx, fmt.Sprintf("🔴 [order result] [*%s*] %s: submission failed", row.Name, row.Reason))
		s.logger.Error("order submission failed", zap.String("market", market), zap.Error(err))
		out.Err = subErr
		return out
	}

	s.rec.OrderSubmitted(string(intent.Side), true)
	s.record(ctx, row, "ordered")
	s.notifier.Notify(ctx, fmt.Sprintf("🟢 [order result] [*%s*] %s:\n%s", row.Name, row.Reason, formatOrderResult(result)))
	s.logger.Info("order submitted",
		zap.String("market", market),
		zap.String("side", string(intent.Side)),
		zap.String("mode", string(intent.PriceMode)),
		zap.Float64("quantity", intent.Quantity),
		zap.Float64("amount", intent.Amount))

	// Report updated holdings for the affected asset only.
	if after, err := s.exchange.GetAccounts(ctx); err == nil {
		table := FormatHoldings(ctx, s.exchange, after, market)
		s.notifier.Notify(ctx, fmt.Sprintf("📊 [holdings] [*%s*] after order:\n%s", row.Name, table))
	}
	return out
}

func (s *WatchService) sizeBuy(row *domain.WatchRow, market string, unit domain.QuantityUnit, value, price, krwBalance float64) (*domain.OrderIntent, error) {
	if strings.EqualFold(strings.TrimSpace(row.OrderPrice), domain.OrderPriceMarket) {
		amount, err := s.normalizer.NormalizeBuyAmount(unit, value, price, krwBalance)
		if err != nil {
			return nil, err
		}
		return &domain.OrderIntent{
			Market:    market,
			Side:      domain.SideBid,
			PriceMode: domain.PriceModeMarket,
			Amount:    amount,
		}, nil
	}

	limitPrice, err := ParseNumber(row.OrderPrice)
	if err != nil {
		return nil, &domain.ParseError{Field: "limit price", Value: row.OrderPrice, Err: err}
	}
	limitPrice = math.Trunc(limitPrice)
	qty, err := s.normalizer.NormalizeBuyQuantity(unit, value, limitPrice, krwBalance)
	if err != nil {
		return nil, err
	}
	return &domain.OrderIntent{
		Market:     market,
		Side:       domain.SideBid,
		PriceMode:  domain.PriceModeLimit,
		Quantity:   qty,
		LimitPrice: limitPrice,
	}, nil
}

func (s *WatchService) sizeSell(row *domain.WatchRow, market string, unit domain.QuantityUnit, value, price float64, accounts domain.AccountSnapshot) (*domain.OrderIntent, error) {
	currency := strings.TrimPrefix(market, "KRW-")
	held, ok := accounts.Find(currency)
	if !ok || held.Held() <= 0 {
		return nil, &domain.NotHeldError{Currency: currency}
	}

	qty, err := s.normalizer.NormalizeSell(unit, value, held.Held(), price)
	if err != nil {
		return nil, err
	}

	mode := domain.PriceModeMarket
	var limitPrice float64
	if !strings.EqualFold(strings.TrimSpace(row.OrderPrice), domain.OrderPriceMarket) {
		limitPrice, err = ParseNumber(row.OrderPrice)
		if err != nil {
			return nil, &domain.ParseError{Field: "limit price", Value: row.OrderPrice, Err: err}
		}
		limitPrice = math.Trunc(limitPrice)
		mode = domain.PriceModeLimit
	}

	// The minimum applies to the order's KRW value regardless of mode.
	ref := price
	if mode == domain.PriceModeLimit {
		ref = limitPrice
	}
	if amount := math.Trunc(qty * ref); amount < s.normalizer.MinOrderKRW {
		return nil, &domain.BelowMinimumError{Amount: amount, Minimum: s.normalizer.MinOrderKRW}
	}

	return &domain.OrderIntent{
		Market:     market,
		Side:       domain.SideAsk,
		PriceMode:  mode,
		Quantity:   qty,
		LimitPrice: limitPrice,
	}, nil
}

// terminate handles every row-terminal error: deactivate, journal, notify.
func (s *WatchService) terminate(ctx context.Context, row *domain.WatchRow, err error) Outcome {
	row.Active = false
	s.rec.RowError(errorKind(err))
	s.record(ctx, row, errorKind(err))
	if errors.Is(err, domain.ErrSkipOrder) {
		s.notifier.Notify(ctx, fmt.Sprintf("⚠️ [*%s*] %s: order skipped (zero quantity)", row.Name, row.Reason))
	} else {
		s.notifier.Notify(ctx, fmt.Sprintf("🚨 [*%s*] %s: %v", row.Name, row.Reason, err))
	}
	s.logger.Warn("row deactivated", zap.String("row", row.Name), zap.Error(err))
	return Outcome{Deactivated: true, Err: err}
}

func (s *WatchService) record(ctx context.Context, row *domain.WatchRow, outcome string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, row.Fingerprint(), outcome); err != nil {
		s.logger.Warn("journal write failed", zap.String("row", row.Name), zap.Error(err))
	}
}

func (s *WatchService) fireMessage(row *domain.WatchRow, market string, target domain.ResolvedTarget, quote domain.MarketQuote) string {
	basis := fmt.Sprintf("current %s (fallback)", FormatKRW(quote.Price))
	if quote.HaveRange {
		if row.Condition == domain.ConditionAtMost {
			basis = fmt.Sprintf("recent %dm low %s", s.candleWindow, FormatKRW(quote.RecentLow))
		} else {
			basis = fmt.Sprintf("recent %dm high %s", s.candleWindow, FormatKRW(quote.RecentHigh))
		}
	}
	link := fmt.Sprintf("<https://upbit.com/exchange?code=CRIX.UPBIT.%s|%s>", market, row.Name)
	return fmt.Sprintf(
		"🔍 [*condition met*] %s - %s (%s)\n"+
			"    type: *%s*   target: *%s %s*\n"+
			"    price: *%s* [%s]\n"+
			"    quantity: %s | valid until: %s",
		link, row.Reason, s.now().Format("01-02 15:04:05"),
		target.Label, FormatKRW(target.Price), conditionLabel(row.Condition),
		FormatKRW(quote.Price), basis,
		QuantityDisplay(row), strings.TrimSpace(row.ValidUntil))
}

func conditionLabel(cond string) string {
	switch cond {
	case domain.ConditionAtLeast:
		return "or above"
	case domain.ConditionAtMost:
		return "or below"
	}
	return cond
}

func errorKind(err error) string {
	var (
		parseErr   *domain.ParseError
		notHeld    *domain.NotHeldError
		noData     *domain.NoDataError
		rangeErr   *domain.RangeError
		belowMin   *domain.BelowMinimumError
		exceeds    *domain.ExceedsHoldingsError
		transient  *domain.TransientError
		submission *domain.OrderSubmissionError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &notHeld):
		return "not_held"
	case errors.As(err, &noData):
		return "no_data"
	case errors.As(err, &rangeErr):
		return "range"
	case errors.As(err, &belowMin):
		return "below_minimum"
	case errors.As(err, &exceeds):
		return "exceeds_holdings"
	case errors.As(err, &transient):
		return "transient"
	case errors.As(err, &submission):
		return "order_failed"
	case errors.Is(err, domain.ErrSkipOrder):
		return "skip"
	}
	return "other"
}
