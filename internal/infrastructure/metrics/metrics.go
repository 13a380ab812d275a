package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upbitwatch_cycles_total",
		Help: "Completed polling cycles.",
	})
	rowsEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upbitwatch_rows_evaluated_total",
		Help: "Watch rows evaluated.",
	})
	rowErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upbitwatch_row_errors_total",
		Help: "Row evaluation errors by kind.",
	}, []string{"kind"})
	conditionsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upbitwatch_conditions_fired_total",
		Help: "Watch conditions that fired, by trade label.",
	}, []string{"label"})
	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upbitwatch_orders_total",
		Help: "Order submissions by side and result.",
	}, []string{"side", "result"})
)

// PromRecorder exports pipeline counters as Prometheus metrics.
type PromRecorder struct{}

func NewPromRecorder() *PromRecorder { return &PromRecorder{} }

func (*PromRecorder) CycleCompleted() { cyclesTotal.Inc() }
func (*PromRecorder) RowEvaluated()   { rowsEvaluatedTotal.Inc() }

func (*PromRecorder) RowError(kind string) {
	rowErrorsTotal.WithLabelValues(kind).Inc()
}

func (*PromRecorder) ConditionFired(label string) {
	conditionsFiredTotal.WithLabelValues(label).Inc()
}

func (*PromRecorder) OrderSubmitted(side string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	ordersTotal.WithLabelValues(side, result).Inc()
}

// Handler serves the metrics endpoint.
func Handler() http.Handler { return promhttp.Handler() }
