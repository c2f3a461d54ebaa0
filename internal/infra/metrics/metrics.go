package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Spok95/material-tracker/internal/domain/materials"
)

type Metrics struct {
	ops        *prometheus.CounterVec
	nearExpiry prometheus.Gauge
}

// New регистрирует коллекторы в reg (обычно prometheus.DefaultRegisterer).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "materials",
			Name:      "operations_total",
			Help:      "Inventory store operations by result.",
		}, []string{"op", "result"}),
		nearExpiry: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "materials",
			Name:      "near_expiry",
			Help:      "Materials expiring within the next 30 days, including expired ones.",
		}),
	}
	reg.MustRegister(m.ops, m.nearExpiry)
	return m
}

func (m *Metrics) ObserveOp(op string, err error) {
	m.ops.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) SetNearExpiry(n int) {
	m.nearExpiry.Set(float64(n))
}

// Result метка результата операции.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, materials.ErrNotFound):
		return "not_found"
	case errors.Is(err, materials.ErrDuplicateCode):
		return "duplicate"
	case errors.Is(err, materials.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}
