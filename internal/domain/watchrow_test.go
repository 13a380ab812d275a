package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dyoh/upbitwatch/internal/domain"
)

func TestDeriveUnit(t *testing.T) {
	tests := []struct {
		name   string
		unit   string
		format string
		want   domain.QuantityUnit
	}{
		{"explicit count", "개", "", domain.UnitCount},
		{"explicit krw", "KRW", "", domain.UnitFiat},
		{"explicit won", "원", "", domain.UnitFiat},
		{"explicit percent", "%", "", domain.UnitPercent},
		{"percent format fallback", "", "0.00%", domain.UnitPercent},
		{"currency format fallback", "", `#,##0"원"`, domain.UnitFiat},
		{"plain number defaults to count", "", "#,##0.00", domain.UnitCount},
		{"unit cell wins over format", "개", "0%", domain.UnitCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveUnit(tt.unit, tt.format))
		})
	}
}

func TestFingerprintDistinguishesRows(t *testing.T) {
	a := &domain.WatchRow{Name: "비트코인", Reason: "tp", TradeType: domain.TradeTypeSell, TargetRaw: "1000", Condition: domain.ConditionAtLeast}
	b := &domain.WatchRow{Name: "비트코인", Reason: "tp", TradeType: domain.TradeTypeSell, TargetRaw: "2000", Condition: domain.ConditionAtLeast}
	c := &domain.WatchRow{Name: "비트코인", Reason: "tp", TradeType: domain.TradeTypeSell, TargetRaw: "1000", Condition: domain.ConditionAtLeast}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprintStableAfterConditionRewrite(t *testing.T) {
	row := &domain.WatchRow{
		Name:      "비트코인",
		Reason:    "base candle tp",
		TradeType: domain.TradeTypeBaseCandleSell,
		TargetRaw: "5",
		Condition: "2025-01-02",
	}
	loaded := row.Fingerprint()

	// Base-candle resolution rewrites the condition cell in place; the
	// journal identity must not move with it.
	row.Condition = domain.ConditionAtLeast
	assert.Equal(t, loaded, row.Fingerprint())

	reloaded := &domain.WatchRow{
		Name:      "비트코인",
		Reason:    "base candle tp",
		TradeType: domain.TradeTypeBaseCandleSell,
		TargetRaw: "5",
		Condition: "2025-01-02",
	}
	assert.Equal(t, loaded, reloaded.Fingerprint())
}

func TestAccountSnapshotHelpers(t *testing.T) {
	snap := domain.AccountSnapshot{
		{Currency: "KRW", Balance: 100000},
		{Currency: "BTC", Balance: 1.5, Locked: 0.5},
	}

	assert.Equal(t, 100000.0, snap.KRWBalance())

	btc, ok := snap.Find("BTC")
	assert.True(t, ok)
	assert.Equal(t, 2.0, btc.Held()) // free plus locked

	_, ok = snap.Find("ETH")
	assert.False(t, ok)
}
