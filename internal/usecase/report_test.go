package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dyoh/upbitwatch/internal/domain"
	"github.com/dyoh/upbitwatch/internal/usecase"
)

func TestFormatKRW(t *testing.T) {
	assert.Equal(t, "1,234,567 KRW", usecase.FormatKRW(1234567))
	assert.Equal(t, "0 KRW", usecase.FormatKRW(0))
	assert.Equal(t, "500 KRW", usecase.FormatKRW(500.4))
	assert.Equal(t, "-12,000 KRW", usecase.FormatKRW(-12000))
}

func TestQuantityDisplay(t *testing.T) {
	assert.Equal(t, "50%", usecase.QuantityDisplay(&domain.WatchRow{QuantityRaw: "50", Unit: domain.UnitPercent}))
	assert.Equal(t, "30,000 KRW", usecase.QuantityDisplay(&domain.WatchRow{QuantityRaw: "30000", Unit: domain.UnitFiat}))
	assert.Equal(t, "0.5 units", usecase.QuantityDisplay(&domain.WatchRow{QuantityRaw: "0.5", Unit: domain.UnitCount}))
	assert.Equal(t, "???", usecase.QuantityDisplay(&domain.WatchRow{QuantityRaw: "???"}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m", usecase.FormatDuration(30*time.Second))
	assert.Equal(t, "5m", usecase.FormatDuration(5*time.Minute))
	assert.Equal(t, "2h 5m", usecase.FormatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "1d 1h", usecase.FormatDuration(25*time.Hour))
}
