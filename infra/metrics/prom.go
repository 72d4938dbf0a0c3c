package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/splan/core/metrics"
)

// PromSink records resolution and fetch events in Prometheus metrics.
type PromSink struct {
	resolutions *prometheus.CounterVec
	errors      prometheus.Counter
	rows        prometheus.Gauge
	fetches     *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splan_resolutions_total",
			Help: "Resolution passes by winning source",
		}, []string{"source"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "splan_resolution_errors_total",
			Help: "Resolution passes carrying a source error",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "splan_rows",
			Help: "Rows in the last resolved timetable",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "splan_fetch_total",
			Help: "Upstream document requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splan_fetch_duration_seconds",
			Help:    "Upstream document request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	var err error
	if s.resolutions, err = register(reg, s.resolutions); err != nil {
		return nil, err
	}
	if s.errors, err = register(reg, s.errors); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, s.rows); err != nil {
		return nil, err
	}
	if s.fetches, err = register(reg, s.fetches); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordResolution counts the pass and updates the row gauge.
func (s *PromSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	src := ev.Source
	if src == "" {
		src = "none"
	}
	s.resolutions.WithLabelValues(src).Inc()
	if ev.Err != "" {
		s.errors.Inc()
	}
	s.rows.Set(float64(ev.Rows))
	return nil
}

// RecordFetch counts the request and observes its latency.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	s.fetches.WithLabelValues(ev.Kind, ev.Outcome()).Inc()
	s.latency.WithLabelValues(ev.Kind).Observe(ev.Latency.Seconds())
	return nil
}
