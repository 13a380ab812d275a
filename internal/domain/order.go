package domain

// OrderSide follows the exchange wire vocabulary.
type OrderSide string

const (
	SideBid OrderSide = "bid" // buy
	SideAsk OrderSide = "ask" // sell
)

// PriceMode selects market vs limit execution.
type PriceMode string

const (
	PriceModeMarket PriceMode = "market"
	PriceModeLimit  PriceMode = "limit"
)

// OrderIntent is a fully sized order ready for submission. For a market buy
// Amount carries the KRW to spend and Quantity is zero; for everything else
// Quantity carries the asset amount, plus LimitPrice when PriceMode is limit.
type OrderIntent struct {
	Market     string
	Side       OrderSide
	PriceMode  PriceMode
	Quantity   float64
	Amount     float64
	LimitPrice float64
}

// OrderResult is the exchange's acknowledgement of a submitted order.
type OrderResult struct {
	UUID      string  `json:"uuid"`
	Market    string  `json:"market"`
	Side      string  `json:"side"`
	OrdType   string  `json:"ord_type"`
	Price     string  `json:"price"`
	Volume    string  `json:"volume"`
	State     string  `json:"state"`
	CreatedAt string  `json:"created_at"`
	PaidFee   string  `json:"paid_fee"`
	Locked    string  `json:"locked"`
}
