package exchange

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TickerStream keeps a live last-price cache from Upbit's public websocket.
// The daemon is a polling system; the stream only exists so a mid-cycle REST
// ticker failure can degrade to the last streamed price instead of skipping
// the row.
type TickerStream struct {
	wsURL   string
	markets []string
	logger  *zap.Logger

	mu         sync.RWMutex
	lastPrices map[string]float64
}

func NewTickerStream(wsURL string, markets []string, logger *zap.Logger) *TickerStream {
	if wsURL == "" {
		wsURL = UpbitWSURL
	}
	return &TickerStream{
		wsURL:      wsURL,
		markets:    markets,
		logger:     logger,
		lastPrices: make(map[string]float64),
	}
}

// LastPrice returns the most recent streamed trade price for a market.
func (s *TickerStream) LastPrice(market string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.lastPrices[market]
	return price, ok && price > 0
}

// Run connects and reads until the context is cancelled, reconnecting with a
// short backoff on any failure.
func (s *TickerStream) Run(ctx context.Context) {
	if len(s.markets) == 0 {
		return
	}
	for {
		if err := s.readLoop(ctx); err != nil {
			s.logger.Warn("ticker stream disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *TickerStream) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := []any{
		map[string]string{"ticket": uuid.NewString()},
		map[string]any{"type": "ticker", "codes": s.markets},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	s.logger.Info("ticker stream subscribed", zap.Strings("markets", s.markets))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var tick struct {
			Code       string  `json:"code"`
			TradePrice float64 `json:"trade_price"`
		}
		if err := json.Unmarshal(data, &tick); err != nil || tick.Code == "" {
			continue
		}
		s.mu.Lock()
		s.lastPrices[tick.Code] = tick.TradePrice
		s.mu.Unlock()
	}
}
