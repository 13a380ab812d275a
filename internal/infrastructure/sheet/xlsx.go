package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/domain"
)

// XLSXSource loads the watch list from an Excel workbook. Besides the raw
// cell values, it captures each numeric cell's number format: a percent
// format changes how the target and quantity columns are interpreted, so the
// hint must survive into the typed row.
type XLSXSource struct {
	path   string
	logger *zap.Logger
}

func NewXLSXSource(path string, logger *zap.Logger) *XLSXSource {
	return &XLSXSource{path: path, logger: logger}
}

// Column header vocabulary. The original watch lists are Korean; English
// aliases are accepted for new sheets.
var headerAliases = map[string]string{
	"종목명":  "name",
	"name": "name",

	"감시사유":   "reason",
	"reason": "reason",

	"매매구분":       "trade_type",
	"type":       "trade_type",
	"trade_type": "trade_type",

	"감시조건":      "condition",
	"condition": "condition",

	"감시가격":         "target",
	"target":       "target",
	"target_price": "target",

	"매매수량":     "quantity",
	"quantity": "quantity",

	"매매단위": "unit",
	"unit": "unit",

	"매매가격":        "order_price",
	"order_price": "order_price",

	"유효기간":        "valid_until",
	"valid_until": "valid_until",
	"expiry":      "valid_until",

	"감시중":    "active",
	"active": "active",
}

// Builtin number format IDs that matter here; custom formats are read as-is.
var builtinNumFmt = map[int]string{
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	44: `_("₩"* #,##0.00_)`,
}

func (s *XLSXSource) Load() ([]*domain.WatchRow, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open watch list: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read watch list: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("watch list %q has no data rows", s.path)
	}

	// Map canonical field -> column index.
	cols := make(map[string]int)
	for i, h := range raw[0] {
		if field, ok := headerAliases[strings.TrimSpace(h)]; ok {
			cols[field] = i
		}
	}
	for _, required := range []string{"name", "trade_type", "target", "quantity", "active"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("watch list %q missing column %q", s.path, required)
		}
	}

	var rows []*domain.WatchRow
	for i := 1; i < len(raw); i++ {
		cells := raw[i]
		get := func(field string) string {
			idx, ok := cols[field]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}
		if get("name") == "" {
			continue
		}

		tradeType, err := parseTradeType(get("trade_type"))
		if err != nil {
			s.logger.Warn("skipping row with unknown trade type",
				zap.Int("row", i+1), zap.String("name", get("name")), zap.Error(err))
			continue
		}

		row := &domain.WatchRow{
			Name:           get("name"),
			Reason:         get("reason"),
			TradeType:      tradeType,
			Condition:      parseCondition(get("condition")),
			TargetRaw:      get("target"),
			TargetFormat:   s.numberFormat(f, sheetName, cols["target"], i),
			QuantityRaw:    get("quantity"),
			QuantityFormat: s.numberFormat(f, sheetName, cols["quantity"], i),
			OrderPrice:     get("order_price"),
			ValidUntil:     get("valid_until"),
			Active:         strings.EqualFold(get("active"), "O"),
		}
		row.Unit = domain.DeriveUnit(get("unit"), row.QuantityFormat)
		// Pin the journal identity to the cell values as loaded.
		row.Fingerprint()
		rows = append(rows, row)
	}
	return rows, nil
}

// numberFormat returns the cell's number format string, or "" when the cell
// has no explicit format.
func (s *XLSXSource) numberFormat(f *excelize.File, sheetName string, col, rowIdx int) string {
	cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err != nil {
		return ""
	}
	styleID, err := f.GetCellStyle(sheetName, cell)
	if err != nil {
		return ""
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return ""
	}
	if style.CustomNumFmt != nil {
		return *style.CustomNumFmt
	}
	return builtinNumFmt[style.NumFmt]
}

func parseTradeType(raw string) (domain.TradeType, error) {
	switch strings.ToLower(raw) {
	case "매수", "buy":
		return domain.TradeTypeBuy, nil
	case "매도", "sell":
		return domain.TradeTypeSell, nil
	case "기준봉익절", "base_candle", "base candle":
		return domain.TradeTypeBaseCandleSell, nil
	}
	return "", fmt.Errorf("unknown trade type %q", raw)
}

// parseCondition maps the comparison vocabulary; anything unrecognized is
// kept verbatim (base-candle rows carry their reference date here).
func parseCondition(raw string) string {
	switch strings.ToLower(raw) {
	case "이상", "at_least", ">=":
		return domain.ConditionAtLeast
	case "이하", "at_most", "<=":
		return domain.ConditionAtMost
	}
	return raw
}
