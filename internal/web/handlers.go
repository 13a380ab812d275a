package web

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dyoh/upbitwatch/internal/usecase"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	rows := s.driver.Rows()
	watching := 0
	for _, row := range rows {
		if row.Active {
			watching++
		}
	}
	status := map[string]any{
		"status":     "running",
		"started_at": s.driver.Started().Format(time.RFC3339),
		"uptime":     usecase.FormatDuration(time.Since(s.driver.Started())),
		"rows":       len(rows),
		"watching":   watching,
	}
	s.writeJSON(w, status)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	type rowView struct {
		Name       string `json:"name"`
		Reason     string `json:"reason"`
		TradeType  string `json:"trade_type"`
		Condition  string `json:"condition"`
		Target     string `json:"target"`
		Quantity   string `json:"quantity"`
		Unit       string `json:"unit"`
		OrderPrice string `json:"order_price"`
		ValidUntil string `json:"valid_until"`
		Active     bool   `json:"active"`
	}

	rows := s.driver.Rows()
	views := make([]rowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, rowView{
			Name:       row.Name,
			Reason:     row.Reason,
			TradeType:  string(row.TradeType),
			Condition:  row.Condition,
			Target:     row.TargetRaw,
			Quantity:   row.QuantityRaw,
			Unit:       string(row.Unit),
			OrderPrice: row.OrderPrice,
			ValidUntil: row.ValidUntil,
			Active:     row.Active,
		})
	}
	s.writeJSON(w, views)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}
