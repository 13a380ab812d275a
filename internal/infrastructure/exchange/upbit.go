package exchange

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	jose "gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"

	"github.com/dyoh/upbitwatch/internal/domain"
)

const (
	UpbitBaseURL = "https://api.upbit.com/v1"
	UpbitWSURL   = "wss://api.upbit.com/websocket/v1"
)

const (
	maxRetries = 3
	retryDelay = 1 * time.Second
	// batchPacing throttles the per-market ticker loop; a dead market would
	// otherwise 404 the whole batch request.
	batchPacing = 80 * time.Millisecond
)

// UpbitAdapter talks to the Upbit REST API. Authenticated endpoints carry a
// JWT (HS256) whose payload includes a SHA512 hash of the query string.
type UpbitAdapter struct {
	accessKey string
	baseURL   string
	client    *http.Client
	signer    jose.Signer
	limiter   *rate.Limiter
	logger    *zap.Logger

	stream *TickerStream // optional live last-price fallback
}

func NewUpbitAdapter(accessKey, secretKey, baseURL string, logger *zap.Logger) (*UpbitAdapter, error) {
	if baseURL == "" {
		baseURL = UpbitBaseURL
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secretKey)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return &UpbitAdapter{
		accessKey: accessKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		signer:    signer,
		// Upbit allows 30 req/s on quotation endpoints; stay well under.
		limiter: rate.NewLimiter(rate.Limit(8), 8),
		logger:  logger,
	}, nil
}

// AttachStream wires a websocket ticker stream whose last-price cache is
// consulted when the REST ticker fails.
func (u *UpbitAdapter) AttachStream(s *TickerStream) { u.stream = s }

// --- auth ---

func (u *UpbitAdapter) token(query url.Values) (string, error) {
	claims := map[string]any{
		"access_key": u.accessKey,
		"nonce":      uuid.NewString(),
	}
	if len(query) > 0 {
		qs := strings.ReplaceAll(query.Encode(), "%5B%5D=", "[]=")
		sum := sha512.Sum512([]byte(qs))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	return jwt.Signed(u.signer).Claims(claims).CompactSerialize()
}

// --- transport ---

func (u *UpbitAdapter) do(ctx context.Context, method, path string, query url.Values, body any, authed bool) ([]byte, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	// For POSTs the params ride in the JSON body; the query values are only
	// hashed into the JWT.
	endpoint := u.baseURL + path
	if len(query) > 0 && body == nil {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if authed {
		tok, err := u.token(query)
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upbit %s %s: %d %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// doRetry retries transient failures a few times with a short fixed delay.
func (u *UpbitAdapter) doRetry(ctx context.Context, method, path string, query url.Values, body any, authed bool) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		data, err := u.do(ctx, method, path, query, body, authed)
		if err == nil {
			return data, nil
		}
		lastErr = err
		u.logger.Warn("upbit request failed",
			zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

// --- market data ---

func (u *UpbitAdapter) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	q := url.Values{"isDetails": {"true"}}
	data, err := u.doRetry(ctx, http.MethodGet, "/market/all", q, nil, false)
	if err != nil {
		return nil, err
	}
	var raw []struct {
		Market      string `json:"market"`
		KoreanName  string `json:"korean_name"`
		EnglishName string `json:"english_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	markets := make([]domain.Market, 0, len(raw))
	for _, m := range raw {
		markets = append(markets, domain.Market{
			Code:        m.Market,
			KoreanName:  m.KoreanName,
			EnglishName: m.EnglishName,
		})
	}
	return markets, nil
}

type tickerResp struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}

func (u *UpbitAdapter) GetPrice(ctx context.Context, market string) (float64, error) {
	q := url.Values{"markets": {market}}
	data, err := u.doRetry(ctx, http.MethodGet, "/ticker", q, nil, false)
	if err != nil {
		if u.stream != nil {
			if price, ok := u.stream.LastPrice(market); ok {
				u.logger.Warn("REST ticker failed, using stream price",
					zap.String("market", market), zap.Float64("price", price))
				return price, nil
			}
		}
		return 0, err
	}
	var ticks []tickerResp
	if err := json.Unmarshal(data, &ticks); err != nil {
		return 0, err
	}
	if len(ticks) == 0 {
		return 0, fmt.Errorf("empty ticker response for %s", market)
	}
	return ticks[0].TradePrice, nil
}

func (u *UpbitAdapter) GetPrices(ctx context.Context, markets []string) (map[string]float64, error) {
	result := make(map[string]float64, len(markets))
	for i, market := range markets {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(batchPacing):
			}
		}
		price, err := u.GetPrice(ctx, market)
		if err != nil {
			u.logger.Warn("skipping market in batch ticker", zap.String("market", market), zap.Error(err))
			continue
		}
		result[market] = price
	}
	return result, nil
}

type minuteCandle struct {
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
}

func (u *UpbitAdapter) GetMinuteHighLow(ctx context.Context, market string, periods int) (float64, float64, bool, error) {
	count := periods
	if count < 5 {
		count = 5
	}
	q := url.Values{"market": {market}, "count": {strconv.Itoa(count)}}
	data, err := u.do(ctx, http.MethodGet, "/candles/minutes/1", q, nil, false)
	if err != nil {
		return 0, 0, false, err
	}
	var candles []minuteCandle
	if err := json.Unmarshal(data, &candles); err != nil {
		return 0, 0, false, err
	}
	if len(candles) < periods {
		return 0, 0, false, nil
	}
	high, low := candles[0].HighPrice, candles[0].LowPrice
	for _, c := range candles[:periods] {
		if c.HighPrice > high {
			high = c.HighPrice
		}
		if c.LowPrice < low {
			low = c.LowPrice
		}
	}
	return high, low, true, nil
}

type dayCandle struct {
	DateKST  string  `json:"candle_date_time_kst"`
	LowPrice float64 `json:"low_price"`
}

func (u *UpbitAdapter) GetDayCandles(ctx context.Context, market string, count int) ([]domain.DayCandle, error) {
	q := url.Values{"market": {market}, "count": {strconv.Itoa(count)}}
	data, err := u.doRetry(ctx, http.MethodGet, "/candles/days", q, nil, false)
	if err != nil {
		return nil, err
	}
	var raw []dayCandle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	candles := make([]domain.DayCandle, 0, len(raw))
	for _, c := range raw {
		if len(c.DateKST) < 10 {
			continue
		}
		date, err := time.Parse("2006-01-02", c.DateKST[:10])
		if err != nil {
			continue
		}
		candles = append(candles, domain.DayCandle{Date: date, Low: c.LowPrice})
	}
	return candles, nil
}

// --- account ---

type accountResp struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	Locked      string `json:"locked"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

func (u *UpbitAdapter) GetAccounts(ctx context.Context) (domain.AccountSnapshot, error) {
	data, err := u.doRetry(ctx, http.MethodGet, "/accounts", nil, nil, true)
	if err != nil {
		return nil, err
	}
	var raw []accountResp
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	snapshot := make(domain.AccountSnapshot, 0, len(raw))
	for _, a := range raw {
		snapshot = append(snapshot, domain.AccountBalance{
			Currency:    a.Currency,
			Balance:     parseFloat(a.Balance),
			Locked:      parseFloat(a.Locked),
			AvgBuyPrice: parseFloat(a.AvgBuyPrice),
		})
	}
	return snapshot, nil
}

// --- orders ---

// SubmitOrder maps the intent onto Upbit's order vocabulary: a market buy is
// ord_type "price" (spend KRW), a market sell is ord_type "market" (sell
// volume), and limit orders carry both price and volume.
func (u *UpbitAdapter) SubmitOrder(ctx context.Context, intent *domain.OrderIntent) (*domain.OrderResult, error) {
	q := url.Values{
		"market": {intent.Market},
		"side":   {string(intent.Side)},
	}
	switch {
	case intent.PriceMode == domain.PriceModeLimit:
		q.Set("ord_type", "limit")
		q.Set("price", strconv.FormatInt(int64(intent.LimitPrice), 10))
		q.Set("volume", strconv.FormatFloat(intent.Quantity, 'f', -1, 64))
	case intent.Side == domain.SideBid:
		q.Set("ord_type", "price")
		q.Set("price", strconv.FormatInt(int64(intent.Amount), 10))
	default:
		q.Set("ord_type", "market")
		q.Set("volume", strconv.FormatFloat(intent.Quantity, 'f', -1, 64))
	}

	body := make(map[string]string, len(q))
	for k := range q {
		body[k] = q.Get(k)
	}

	// No transport retry here: an ambiguous failure after the exchange
	// accepted the order would double-submit.
	data, err := u.do(ctx, http.MethodPost, "/orders", q, body, true)
	if err != nil {
		return nil, err
	}
	var result domain.OrderResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
