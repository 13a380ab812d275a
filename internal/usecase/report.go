package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dyoh/upbitwatch/internal/domain"
)

// Message formatting for the notification channel. Everything here is
// cosmetic; formatting failures must never affect the evaluation pipeline.

// FormatKRW renders a quote-currency amount with thousands separators.
func FormatKRW(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + " KRW"
	if neg {
		out = "-" + out
	}
	return out
}

// QuantityDisplay renders a row's quantity spec for notifications.
func QuantityDisplay(row *domain.WatchRow) string {
	v, err := ParseNumber(row.QuantityRaw)
	if err != nil {
		return row.QuantityRaw
	}
	unit := row.Unit
	if unit == "" {
		unit = domain.DeriveUnit("", row.QuantityFormat)
	}
	switch unit {
	case domain.UnitPercent:
		return fmt.Sprintf("%.0f%%", v)
	case domain.UnitFiat:
		return FormatKRW(v)
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " units"
}

func formatOrderResult(result *domain.OrderResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", result)
	}
	return string(data)
}

// FormatHoldings renders a per-asset holdings table (quantity, current
// value, P&L percent against cost basis) styled after the exchange's own
// balance screen. When market is non-empty only that asset is listed.
func FormatHoldings(ctx context.Context, ex domain.Exchange, accounts domain.AccountSnapshot, market string) string {
	type holding struct {
		currency string
		qty      float64
		buyAmt   float64
		market   string
		value    float64
		plPct    string
	}

	var rows []holding
	for _, a := range accounts {
		if a.Currency == "KRW" || a.Held() <= 0 {
			continue
		}
		code := "KRW-" + a.Currency
		if market != "" && market != code {
			continue
		}
		rows = append(rows, holding{
			currency: a.Currency,
			qty:      a.Held(),
			buyAmt:   a.Held() * a.AvgBuyPrice,
			market:   code,
		})
	}
	if len(rows) == 0 {
		return "        (no holdings)"
	}

	codes := make([]string, 0, len(rows))
	for _, r := range rows {
		codes = append(codes, r.market)
	}
	prices, err := ex.GetPrices(ctx, codes)
	if err != nil {
		prices = map[string]float64{}
	}

	for i := range rows {
		price := prices[rows[i].market]
		rows[i].value = rows[i].qty * price
		if rows[i].buyAmt > 0 && price > 0 {
			pl := (rows[i].value - rows[i].buyAmt) / rows[i].buyAmt * 100
			sign := ""
			if pl >= 0 {
				sign = "+"
			}
			rows[i].plPct = fmt.Sprintf("%s%.2f%%", sign, pl)
		} else {
			rows[i].plPct = "-"
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].value > rows[j].value })

	var b strings.Builder
	b.WriteString("| asset  |       quantity |        value |       P&L |\n")
	b.WriteString("|--------|----------------|--------------|-----------|\n")
	for _, r := range rows {
		qty := strconv.FormatFloat(r.qty, 'f', 8, 64)
		qty = strings.TrimRight(strings.TrimRight(qty, "0"), ".")
		fmt.Fprintf(&b, "| %-6s | %14s | %12s | %9s |\n", r.currency, qty, FormatKRW(r.value), r.plPct)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatDuration renders an uptime as days/hours/minutes.
func FormatDuration(d time.Duration) string {
	total := int(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// RuntimeInfo describes the process for lifecycle notifications.
func RuntimeInfo() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "(runtime info unavailable)"
	}
	ip := "?"
	if addrs, err := net.LookupHost(hostname); err == nil && len(addrs) > 0 {
		ip = addrs[0]
	}
	inDocker := "no"
	if _, err := os.Stat("/.dockerenv"); err == nil {
		inDocker = "yes"
	}
	return fmt.Sprintf("%s, %s, PID: %d, Docker: %s", hostname, ip, os.Getpid(), inDocker)
}
