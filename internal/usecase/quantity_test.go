package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyoh/upbitwatch/internal/domain"
	"github.com/dyoh/upbitwatch/internal/usecase"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"1,000,000", 1000000, false},
		{"50%", 50, false},
		{"5000원", 5000, false},
		{"₩5,000", 5000, false},
		{"0.5", 0.5, false},
		{" 42 ", 42, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := usecase.ParseNumber(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBuyAmount(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	tests := []struct {
		name    string
		unit    domain.QuantityUnit
		value   float64
		price   float64
		balance float64
		want    float64
		wantErr error
	}{
		{"count buys value times price", domain.UnitCount, 0.5, 100000, 1000000, 50000, nil},
		{"fiat buys the literal amount", domain.UnitFiat, 30000, 100000, 1000000, 30000, nil},
		{"percent of balance", domain.UnitPercent, 10, 100000, 1000000, 100000, nil},
		{"fraction shorthand scales to percent", domain.UnitPercent, 0.1, 100000, 1000000, 100000, nil},
		{"amount truncated to whole krw", domain.UnitFiat, 5000.9, 100000, 1000000, 5000, nil},
		{"below minimum rejected", domain.UnitFiat, 4999, 100000, 1000000, 0, &domain.BelowMinimumError{}},
		{"percent above 100 rejected", domain.UnitPercent, 150, 100000, 1000000, 0, &domain.RangeError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.NormalizeBuyAmount(tt.unit, tt.value, tt.price, tt.balance)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeBuyQuantity(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	qty, err := n.NormalizeBuyQuantity(domain.UnitFiat, 100000, 50000000, 1000000)
	require.NoError(t, err)
	assert.Equal(t, 0.002, qty)

	qty, err = n.NormalizeBuyQuantity(domain.UnitCount, 0.001, 50000000, 1000000)
	require.NoError(t, err)
	assert.Equal(t, 0.001, qty)

	// 0.0000001 * 50_000_000 = 5 KRW, under the minimum
	_, err = n.NormalizeBuyQuantity(domain.UnitCount, 0.0000001, 50000000, 1000000)
	var belowMin *domain.BelowMinimumError
	require.ErrorAs(t, err, &belowMin)
}

func TestNormalizeSellPercent(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	tests := []struct {
		name  string
		value float64
		held  float64
		want  float64
	}{
		{"half of holdings", 50, 10, 5},
		{"fraction shorthand", 0.5, 10, 5},
		{"full sell returns exact holdings", 100, 0.123456789, 0.123456789},
		{"shorthand full sell", 1.0, 0.123456789, 0.123456789},
		{"near-full threshold returns exact holdings", 99.9999995, 0.123456789, 0.123456789},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.NormalizeSell(domain.UnitPercent, tt.value, tt.held, 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := n.NormalizeSell(domain.UnitPercent, 120, 10, 1000)
	var rangeErr *domain.RangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestNormalizeSellCount(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	qty, err := n.NormalizeSell(domain.UnitCount, 3, 10, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3.0, qty)

	// Count oversell is rejected, never clamped.
	_, err = n.NormalizeSell(domain.UnitCount, 11, 10, 1000)
	var exceeds *domain.ExceedsHoldingsError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, 11.0, exceeds.Requested)
	assert.Equal(t, 10.0, exceeds.Held)
}

func TestNormalizeSellFiat(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	qty, err := n.NormalizeSell(domain.UnitFiat, 50000, 10, 10000)
	require.NoError(t, err)
	assert.Equal(t, 5.0, qty)

	// KRW sells clamp to holdings instead of rejecting.
	qty, err = n.NormalizeSell(domain.UnitFiat, 1000000, 10, 10000)
	require.NoError(t, err)
	assert.Equal(t, 10.0, qty)

	_, err = n.NormalizeSell(domain.UnitFiat, 50000, 10, 0)
	assert.Error(t, err)
}

func TestNormalizeSellZeroQuantitySkips(t *testing.T) {
	n := usecase.NewNormalizer(5000)

	_, err := n.NormalizeSell(domain.UnitCount, 0, 10, 1000)
	assert.ErrorIs(t, err, domain.ErrSkipOrder)

	_, err = n.NormalizeSell(domain.UnitCount, -1, 10, 1000)
	assert.ErrorIs(t, err, domain.ErrSkipOrder)
}

func TestRound8(t *testing.T) {
	assert.Equal(t, 0.12345679, usecase.Round8(0.123456789))
	assert.Equal(t, 1.0, usecase.Round8(0.999999999))
}
