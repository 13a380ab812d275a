package domain

import "context"

// Exchange defines the interface for interacting with a crypto exchange.
// Transport-level retries live behind this interface; callers treat "all
// retries exhausted" as a single failed call.
type Exchange interface {
	// ListMarkets returns every tradable instrument, used to build the
	// name -> market-code index once at startup.
	ListMarkets(ctx context.Context) ([]Market, error)

	// GetPrice returns the current trade price for a market.
	GetPrice(ctx context.Context, market string) (float64, error)

	// GetPrices returns last prices for several markets, skipping the ones
	// that fail individually.
	GetPrices(ctx context.Context, markets []string) (map[string]float64, error)

	// GetMinuteHighLow returns the high/low over the most recent 1-minute
	// candles. ok is false when candle data is unavailable or too short.
	GetMinuteHighLow(ctx context.Context, market string, periods int) (high, low float64, ok bool, err error)

	// GetDayCandles returns up to count most recent daily candles, newest
	// first.
	GetDayCandles(ctx context.Context, market string, count int) ([]DayCandle, error)

	// GetAccounts returns the full balance snapshot.
	GetAccounts(ctx context.Context) (AccountSnapshot, error)

	// SubmitOrder places the order and returns the exchange acknowledgement.
	SubmitOrder(ctx context.Context, intent *OrderIntent) (*OrderResult, error)
}

// Notifier is a fire-and-forget message sink. Delivery failures are logged
// by implementations and never propagate into core logic.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// RowSource loads the watch list into typed rows.
type RowSource interface {
	Load() ([]*WatchRow, error)
}

// RowJournal records rows that have fired (or died on a terminal error) so a
// restart never re-arms them. It stores only the row fingerprint and the
// outcome, no fills or balances.
type RowJournal interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Record(ctx context.Context, fingerprint, outcome string) error
	Close() error
}
