package sheet_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/domain"
	"github.com/dyoh/upbitwatch/internal/infrastructure/sheet"
)

func writeWatchList(t *testing.T, rows [][]any, percentCells []string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)

	header := []any{"종목명", "감시사유", "매매구분", "감시조건", "감시가격", "매매수량", "매매단위", "매매가격", "유효기간", "감시중"}
	require.NoError(t, f.SetSheetRow(name, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(name, cell, &row))
	}

	if len(percentCells) > 0 {
		styleID, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		require.NoError(t, err)
		for _, cell := range percentCells {
			require.NoError(t, f.SetCellStyle(name, cell, cell, styleID))
		}
	}

	path := filepath.Join(t.TempDir(), "watchlist.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadWatchList(t *testing.T) {
	path := writeWatchList(t, [][]any{
		{"비트코인", "take profit", "매도", "이상", 1000000, 0.5, "", "market", "2099-12-31", "O"},
		{"이더리움", "dip buy", "매수", "이하", 3000000, 30000, "KRW", "market", "2099-12-31", "O"},
		{"비트코인", "done", "매도", "이상", 2000000, 1, "개", "market", "2099-12-31", "X"},
	}, []string{"F2"})

	rows, err := sheet.NewXLSXSource(path, zap.NewNop()).Load()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	sell := rows[0]
	assert.Equal(t, "비트코인", sell.Name)
	assert.Equal(t, "take profit", sell.Reason)
	assert.Equal(t, domain.TradeTypeSell, sell.TradeType)
	assert.Equal(t, domain.ConditionAtLeast, sell.Condition)
	assert.Equal(t, "1000000", sell.TargetRaw)
	assert.Equal(t, "0.5", sell.QuantityRaw)
	// Blank unit cell, percent-formatted quantity cell.
	assert.Equal(t, "0%", sell.QuantityFormat)
	assert.Equal(t, domain.UnitPercent, sell.Unit)
	assert.True(t, sell.Active)

	buy := rows[1]
	assert.Equal(t, domain.TradeTypeBuy, buy.TradeType)
	assert.Equal(t, domain.ConditionAtMost, buy.Condition)
	assert.Equal(t, domain.UnitFiat, buy.Unit)

	done := rows[2]
	assert.Equal(t, domain.UnitCount, done.Unit)
	assert.False(t, done.Active)
}

func TestLoadBaseCandleRowKeepsReferenceDate(t *testing.T) {
	path := writeWatchList(t, [][]any{
		{"비트코인", "trailing", "기준봉익절", "2025-01-02", 5, 100, "%", "market", "2099-12-31", "O"},
	}, nil)

	rows, err := sheet.NewXLSXSource(path, zap.NewNop()).Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, domain.TradeTypeBaseCandleSell, row.TradeType)
	// An unrecognized condition token is the base-candle reference date.
	assert.Equal(t, "2025-01-02", row.Condition)
	assert.Equal(t, domain.UnitPercent, row.Unit)
}

func TestLoadSkipsUnknownTradeType(t *testing.T) {
	path := writeWatchList(t, [][]any{
		{"비트코인", "??", "???", "이상", 1000, 1, "개", "market", "2099-12-31", "O"},
		{"이더리움", "ok", "매도", "이상", 1000, 1, "개", "market", "2099-12-31", "O"},
	}, nil)

	rows, err := sheet.NewXLSXSource(path, zap.NewNop()).Load()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "이더리움", rows[0].Name)
}

func TestLoadMissingColumnFails(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	name := f.GetSheetName(0)
	header := []any{"종목명", "감시사유"}
	require.NoError(t, f.SetSheetRow(name, "A1", &header))
	require.NoError(t, f.SetSheetRow(name, "A2", &[]any{"비트코인", "x"}))
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := sheet.NewXLSXSource(path, zap.NewNop()).Load()
	assert.Error(t, err)
}
