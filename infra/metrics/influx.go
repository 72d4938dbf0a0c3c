package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/splan/core/metrics"
	"github.com/kilianp07/splan/infra/logger"
)

// InfluxSink writes resolution and fetch events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// InfluxConfig configures an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordResolution writes a timetable_resolution point.
func (s *InfluxSink) RecordResolution(ev coremetrics.ResolutionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, resolutionPoint(ev))
}

// RecordFetch writes a timetable_fetch point.
func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, fetchPoint(ev))
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func resolutionPoint(ev coremetrics.ResolutionEvent) *write.Point {
	src := ev.Source
	if src == "" {
		src = "none"
	}
	week := ev.Week
	if week == "" {
		week = "-"
	}
	return write.NewPointWithMeasurement("timetable_resolution").
		AddTag("source", src).
		AddTag("week", week).
		AddTag("component", "resolver").
		AddField("pass_id", ev.PassID).
		AddField("rows", ev.Rows).
		AddField("changed", ev.Changed).
		AddField("error", ev.Err).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
}

func fetchPoint(ev coremetrics.FetchEvent) *write.Point {
	return write.NewPointWithMeasurement("timetable_fetch").
		AddTag("kind", ev.Kind).
		AddTag("outcome", ev.Outcome()).
		AddTag("component", "loader").
		AddField("url", ev.URL).
		AddField("status", ev.Status).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		AddField("error", ev.Err).
		SetTime(ev.Time)
}
