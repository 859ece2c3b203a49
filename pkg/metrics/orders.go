package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pos"

// Placement outcomes. Rejections carry the error code as the outcome label.
const (
	OutcomePlaced = "placed"
)

// PlacementMetrics tracks order placement attempts.
type PlacementMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stock    *prometheus.CounterVec
}

// NewPlacementMetrics registers the placement metrics on reg.
func NewPlacementMetrics(reg prometheus.Registerer) *PlacementMetrics {
	if reg == nil {
		return &PlacementMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "placements_total",
		Help:      "Order placement attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "placement_duration_seconds",
		Help:      "Wall time of order placement including lock waits.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})
	stock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "insufficient_stock_total",
		Help:      "Placements rejected for lack of a given ingredient.",
	}, []string{"ingredient_id"})
	reg.MustRegister(attempts, duration, stock)
	return &PlacementMetrics{attempts: attempts, duration: duration, stock: stock}
}

// Observe records one placement attempt.
func (m *PlacementMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncInsufficientStock counts a shortfall against the ingredient.
func (m *PlacementMetrics) IncInsufficientStock(ingredientID string) {
	if m == nil || m.stock == nil {
		return
	}
	m.stock.WithLabelValues(normalizeLabel(ingredientID)).Inc()
}
