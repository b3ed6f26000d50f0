// Package metrics exports pool engine activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/benodiwal/dexy/internal/amm"
)

const namespace = "dexy"

// Metrics implements amm.Observer.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
	SwapVolume      *prometheus.CounterVec
	SwapFees        *prometheus.CounterVec
}

var _ amm.Observer = (*Metrics)(nil)

// New registers the pool metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Pool operations by operation and result",
			},
			[]string{"op", "result"},
		),
		SwapVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swap_volume_total",
				Help:      "Swapped amounts in base units",
			},
			[]string{"direction", "side"}, // side: in, out
		),
		SwapFees: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "swap_fees_total",
				Help:      "Swap fees taken from the input before the curve, by asset",
			},
			[]string{"asset"},
		),
	}
}

func (m *Metrics) OperationDone(op string, err error) {
	m.OperationsTotal.WithLabelValues(op, amm.Kind(err)).Inc()
}

func (m *Metrics) SwapDone(res amm.SwapResult) {
	dir := res.Direction.String()
	m.SwapVolume.WithLabelValues(dir, "in").Add(float64(res.AmountIn))
	m.SwapVolume.WithLabelValues(dir, "out").Add(float64(res.AmountOut))

	asset := "a"
	if res.Direction == amm.BToA {
		asset = "b"
	}
	m.SwapFees.WithLabelValues(asset).Add(float64(res.FeeAmount))
}

// WriteTextfile writes everything gathered by g in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
