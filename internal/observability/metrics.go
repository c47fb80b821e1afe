// Package observability provides Prometheus collectors for the station.
//
// All methods are nil-receiver safe so the controller can run without a
// metrics registry in tests and in minimal deployments.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the station's Prometheus collectors.
type Metrics struct {
	printsTotal      *prometheus.CounterVec
	counterNextID    prometheus.Gauge
	scaleReadings    prometheus.Counter
	dispatchFailures prometheus.Counter
}

// NewMetrics creates and registers collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		printsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labelstation_prints_total",
			Help: "Print transactions by terminal outcome.",
		}, []string{"outcome"}),
		counterNextID: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "labelstation_counter_next_id",
			Help: "Cached next can identifier.",
		}),
		scaleReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labelstation_scale_readings_total",
			Help: "Successfully parsed scale readings.",
		}),
		dispatchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "labelstation_printer_dispatch_failures_total",
			Help: "Label payloads that failed hand-off to the printer.",
		}),
	}
	reg.MustRegister(m.printsTotal, m.counterNextID, m.scaleReadings, m.dispatchFailures)
	return m
}

// ObservePrint records one terminal transaction outcome.
func (m *Metrics) ObservePrint(outcome string) {
	if m == nil {
		return
	}
	m.printsTotal.WithLabelValues(outcome).Inc()
}

// SetCounter tracks the cached counter value.
func (m *Metrics) SetCounter(nextID int) {
	if m == nil {
		return
	}
	m.counterNextID.Set(float64(nextID))
}

// ObserveScaleReading records one parsed weight.
func (m *Metrics) ObserveScaleReading() {
	if m == nil {
		return
	}
	m.scaleReadings.Inc()
}

// ObserveDispatchFailure records one failed printer hand-off.
func (m *Metrics) ObserveDispatchFailure() {
	if m == nil {
		return
	}
	m.dispatchFailures.Inc()
}
