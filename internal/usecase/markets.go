package usecase

import (
	"strings"

	"github.com/dyoh/upbitwatch/internal/domain"
)

// MarketIndex maps the names a watch row may use (Korean name, English name,
// bare symbol, market code, "SYM/KRX" alias) to the exchange market code.
// Built once at startup from the exchange listing; only KRW markets are
// indexed.
type MarketIndex struct {
	byName map[string]string
}

func NewMarketIndex(markets []domain.Market) *MarketIndex {
	ix := &MarketIndex{byName: make(map[string]string)}
	for _, m := range markets {
		if !strings.HasPrefix(m.Code, "KRW-") {
			continue
		}
		symbol := strings.TrimPrefix(m.Code, "KRW-")
		if m.KoreanName != "" {
			ix.byName[m.KoreanName] = m.Code
		}
		if m.EnglishName != "" {
			ix.byName[m.EnglishName] = m.Code
		}
		ix.byName[symbol] = m.Code
		ix.byName[m.Code] = m.Code
		ix.byName[symbol+"/KRX"] = m.Code
	}
	return ix
}

// Resolve looks a name up exactly, then case-insensitively.
func (ix *MarketIndex) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if code, ok := ix.byName[name]; ok {
		return code, true
	}
	for k, v := range ix.byName {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Len reports how many aliases are indexed.
func (ix *MarketIndex) Len() int { return len(ix.byName) }
