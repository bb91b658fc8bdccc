package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	// tracker
	Synced  prometheus.Counter
	Dropped prometheus.Counter

	// transition protocol
	Transitions        prometheus.Counter
	TransitionFailures prometheus.Counter
	StockDecrements    prometheus.Counter
	TransitionSec      prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	synced := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracking_orders_synced_total"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "tracking_orders_dropped_total"})
	transitions := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_transitions_total"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{Name: "order_transition_failures_total"})
	decrements := prometheus.NewCounter(prometheus.CounterOpts{Name: "stock_decrements_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_transition_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(synced, dropped, transitions, failures, decrements, latency)
	return &Registry{
		reg:                r,
		Synced:             synced,
		Dropped:            dropped,
		Transitions:        transitions,
		TransitionFailures: failures,
		StockDecrements:    decrements,
		TransitionSec:      latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
