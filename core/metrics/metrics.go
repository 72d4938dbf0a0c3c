package metrics

import "time"

// ResolutionEvent describes one resolution pass.
type ResolutionEvent struct {
	PassID   string
	Source   string
	Week     string
	Rows     int
	Err      string
	Changed  bool
	Duration time.Duration
	Time     time.Time
}

// FetchEvent describes one upstream document request.
type FetchEvent struct {
	// Kind is the document family: basis, weekplan, substitution, mobile or
	// mobdaten.
	Kind    string
	URL     string
	OK      bool
	Status  int
	Latency time.Duration
	Err     string
	Time    time.Time
}

// Outcome returns "ok" or "error".
func (e FetchEvent) Outcome() string {
	if e.OK {
		return "ok"
	}
	return "error"
}

// MetricsSink records resolution passes.
type MetricsSink interface {
	RecordResolution(ev ResolutionEvent) error
}

// FetchRecorder is implemented by sinks able to record upstream fetches.
type FetchRecorder interface {
	RecordFetch(ev FetchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordResolution(ResolutionEvent) error { return nil }
func (NopSink) RecordFetch(FetchEvent) error           { return nil }

// MultiSink fans events out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordResolution forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordResolution(ev ResolutionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordResolution(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFetch forwards fetch events to the sinks supporting them.
func (m *MultiSink) RecordFetch(ev FetchEvent) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(FetchRecorder); ok {
			if err := fr.RecordFetch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
