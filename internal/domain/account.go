package domain

// AccountBalance is one asset's holdings as reported by the exchange.
type AccountBalance struct {
	Currency    string  // asset symbol, e.g. "BTC" or "KRW"
	Balance     float64 // free amount
	Locked      float64
	AvgBuyPrice float64 // cost basis in quote currency per unit
}

// Held returns free plus locked quantity.
func (a AccountBalance) Held() float64 {
	return a.Balance + a.Locked
}

// AccountSnapshot is a read-only batch of balances fetched once per poll
// cycle. It is never mutated locally, only re-fetched.
type AccountSnapshot []AccountBalance

// Find returns the balance entry for a currency, if held.
func (s AccountSnapshot) Find(currency string) (AccountBalance, bool) {
	for _, a := range s {
		if a.Currency == currency {
			return a, true
		}
	}
	return AccountBalance{}, false
}

// KRWBalance returns the total quote-currency balance including locked funds.
func (s AccountSnapshot) KRWBalance() float64 {
	var total float64
	for _, a := range s {
		if a.Currency == "KRW" {
			total += a.Held()
		}
	}
	return total
}
