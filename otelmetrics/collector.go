// Package otelmetrics provides OpenTelemetry integration for
// stratacache's MetricsCollector hook.
//
// This package implements stratacache.MetricsCollector using
// OpenTelemetry, enabling automatic percentile calculation (p50, p95,
// p99) and multi-backend export (Prometheus, Jaeger, DataDog, Grafana).
// Every metric carries a "tier" attribute so a multi-tier deployment's
// memory, shared, and disk tiers are distinguishable in the same
// dashboard.
//
// # Usage
//
//	import (
//	    "github.com/distryx/stratacache"
//	    "github.com/distryx/stratacache/otelmetrics"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//
//	collector, _ := otelmetrics.NewOTelMetricsCollector(provider)
//
//	cfg := stratacache.DefaultConfig()
//	cfg.MetricsCollector = collector
//	engine, _ := stratacache.New(cfg)
//
// # Metrics Exposed
//
//   - stratacache_get_latency_ns: histogram of Get latencies, tagged by tier
//   - stratacache_set_latency_ns: histogram of Set latencies, tagged by tier
//   - stratacache_delete_latency_ns: histogram of Delete latencies, tagged by tier
//   - stratacache_get_hits_total: counter of hits, tagged by tier
//   - stratacache_get_misses_total: counter of misses, tagged by tier
//   - stratacache_evictions_total: counter of evictions, tagged by tier
//   - stratacache_expirations_total: counter of TTL expirations, tagged by tier
//   - stratacache_errors_total: counter of errors, tagged by category
package otelmetrics

import (
	"context"
	"errors"

	"github.com/distryx/stratacache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements stratacache.MetricsCollector using
// OpenTelemetry. Every instrument is thread-safe and lock-free, the way
// the OTEL SDK's own instruments are documented to be.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	expirations   metric.Int64Counter
	errors        metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/distryx/stratacache"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple engine instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a collector backed by provider. opts
// may override the meter name.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/distryx/stratacache"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.getLatency, err = meter.Int64Histogram(
		"stratacache_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.setLatency, err = meter.Int64Histogram(
		"stratacache_set_latency_ns",
		metric.WithDescription("Latency of Set operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.deleteLatency, err = meter.Int64Histogram(
		"stratacache_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.hits, err = meter.Int64Counter(
		"stratacache_get_hits_total",
		metric.WithDescription("Total number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	collector.misses, err = meter.Int64Counter(
		"stratacache_get_misses_total",
		metric.WithDescription("Total number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	collector.evictions, err = meter.Int64Counter(
		"stratacache_evictions_total",
		metric.WithDescription("Total number of evictions"),
	)
	if err != nil {
		return nil, err
	}

	collector.expirations, err = meter.Int64Counter(
		"stratacache_expirations_total",
		metric.WithDescription("Total number of TTL-based expirations"),
	)
	if err != nil {
		return nil, err
	}

	collector.errors, err = meter.Int64Counter(
		"stratacache_errors_total",
		metric.WithDescription("Total number of errors, by category"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordGet records a Get outcome for tier.
func (c *OTelMetricsCollector) RecordGet(tier string, latencyNs int64, hit bool) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("tier", tier))

	c.getLatency.Record(ctx, latencyNs, attrs)
	if hit {
		c.hits.Add(ctx, 1, attrs)
	} else {
		c.misses.Add(ctx, 1, attrs)
	}
}

// RecordSet records a Set outcome for tier.
func (c *OTelMetricsCollector) RecordSet(tier string, latencyNs int64, ok bool) {
	c.setLatency.Record(context.Background(), latencyNs, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.Bool("ok", ok),
	))
}

// RecordDelete records a Delete outcome for tier.
func (c *OTelMetricsCollector) RecordDelete(tier string, latencyNs int64, existed bool) {
	c.deleteLatency.Record(context.Background(), latencyNs, metric.WithAttributes(
		attribute.String("tier", tier),
		attribute.Bool("existed", existed),
	))
}

// RecordEviction records one entry evicted from tier.
func (c *OTelMetricsCollector) RecordEviction(tier string) {
	c.evictions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordExpiration records one entry expiring (TTL) in tier.
func (c *OTelMetricsCollector) RecordExpiration(tier string) {
	c.expirations.Add(context.Background(), 1, metric.WithAttributes(attribute.String("tier", tier)))
}

// RecordError records an error in the given category.
func (c *OTelMetricsCollector) RecordError(category string) {
	c.errors.Add(context.Background(), 1, metric.WithAttributes(attribute.String("category", category)))
}

var _ stratacache.MetricsCollector = (*OTelMetricsCollector)(nil)
