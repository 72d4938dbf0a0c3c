// Package metrics defines the sinks recording resolution passes and
// upstream fetches. Sinks such as the Prometheus and InfluxDB ones live in
// infra/metrics and register themselves under a type name; NewMetricsSink
// builds a MultiSink when several are configured.
package metrics
