// Package otelmetrics provides OpenTelemetry integration for stratacache
// metrics.
//
// # Overview
//
// This package implements the stratacache.MetricsCollector interface using
// OpenTelemetry, enabling automatic percentile calculation and multi-backend
// support (Prometheus, Jaeger, DataDog, Grafana). Every metric is tagged with
// the tier that produced it, so a memory/shared/disk deployment shows up as
// distinguishable series in the same dashboard.
//
// The package is separate from the core module to keep stratacache itself
// free of OTEL dependencies. Applications that don't need metrics collection
// don't pay for them.
//
// # Features
//
//   - Automatic Percentiles: OTEL Histograms calculate p50, p95, p99, p99.9 latencies
//   - Multi-Backend Support: Works with Prometheus, Jaeger, DataDog, any OTEL-compatible backend
//   - Per-Tier Attribution: every metric carries a "tier" attribute
//   - Hit Ratio Tracking: Real-time cache hit/miss monitoring per tier
//   - Eviction and Expiration Monitoring: Track cache pressure per tier
//   - Thread-Safe: Lock-free, safe for concurrent use
//
// # Installation
//
//	go get github.com/distryx/stratacache/otelmetrics
//
// # Quick Start
//
// Basic setup with Prometheus exporter:
//
//	import (
//	    "github.com/distryx/stratacache"
//	    "github.com/distryx/stratacache/otelmetrics"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, err := prometheus.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := otelmetrics.NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := stratacache.DefaultConfig()
//	cfg.MetricsCollector = collector
//	engine, err := stratacache.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine.Set(ctx, "key", value, 0)
//	engine.Get(ctx, "key")
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":2112", nil))
//
// # Metrics Exposed
//
// Histograms (with automatic percentiles), each tagged by tier:
//   - stratacache_get_latency_ns
//   - stratacache_set_latency_ns
//   - stratacache_delete_latency_ns
//
// Counters, each tagged by tier (errors tagged by category instead):
//   - stratacache_get_hits_total
//   - stratacache_get_misses_total
//   - stratacache_evictions_total
//   - stratacache_expirations_total
//   - stratacache_errors_total
//
// All metrics are thread-safe and use lock-free OTEL instruments.
//
// # Configuration
//
// Custom meter name, useful for distinguishing multiple engine instances:
//
//	collector, err := otelmetrics.NewOTelMetricsCollector(
//	    provider,
//	    otelmetrics.WithMeterName("myapp_session_cache"),
//	)
//
// Custom histogram buckets for better percentile accuracy:
//
//	provider := metric.NewMeterProvider(
//	    metric.WithReader(exporter),
//	    metric.WithView(metric.NewView(
//	        metric.Instrument{Name: "stratacache_get_latency_ns"},
//	        metric.Stream{
//	            Aggregation: metric.AggregationExplicitBucketHistogram{
//	                Boundaries: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
//	            },
//	        },
//	    )),
//	)
//
// # Prometheus Queries
//
// P95 latency for the memory tier over 5 minutes:
//
//	histogram_quantile(0.95, rate(stratacache_get_latency_ns_bucket{tier="memory"}[5m]))
//
// Hit ratio across all tiers:
//
//	sum(rate(stratacache_get_hits_total[5m])) /
//	(sum(rate(stratacache_get_hits_total[5m])) + sum(rate(stratacache_get_misses_total[5m])))
//
// Evictions per minute, by tier:
//
//	sum by (tier) (rate(stratacache_evictions_total[1m])) * 60
//
// # Architecture
//
// Separation of concerns:
//
//	┌─────────────────────────────────────┐
//	│   stratacache Engine (Core Module)  │
//	│  • No OTEL dependencies             │
//	│  • MetricsCollector interface       │
//	│  • NoOpMetricsCollector (default)   │
//	└──────────────┬──────────────────────┘
//	               │ implements
//	               ▼
//	┌─────────────────────────────────────┐
//	│  stratacache/otelmetrics (here)     │
//	│  • OTelMetricsCollector             │
//	│  • OTEL SDK dependencies            │
//	│  • Histograms + Counters, per tier  │
//	└──────────────┬──────────────────────┘
//	               │ exports to
//	               ▼
//	┌─────────────────────────────────────┐
//	│      OTEL MeterProvider             │
//	└──────────────┬──────────────────────┘
//	     ┌─────────┴──────┬────────┐
//	     ▼                ▼        ▼
//	Prometheus        Jaeger   DataDog
//
// # Thread Safety
//
// All methods are thread-safe and use lock-free OTEL instruments:
//
//	collector, _ := otelmetrics.NewOTelMetricsCollector(provider)
//
//	go func() { collector.RecordGet("memory", 1000, true) }()
//	go func() { collector.RecordSet("disk", 2000, true) }()
//	go func() { collector.RecordDelete("memory", 500, true) }()
//	go func() { collector.RecordEviction("memory") }()
//
// # Best Practices
//
// 1. Reuse one MeterProvider across collector instances:
//
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector1, _ := otelmetrics.NewOTelMetricsCollector(provider)
//	collector2, _ := otelmetrics.NewOTelMetricsCollector(provider,
//	    otelmetrics.WithMeterName("cache2"))
//
// 2. Always shut down the MeterProvider on exit.
//
// 3. Watch the errors counter's category attribute for a rising
// "integrity" rate — it usually means a signing or encryption key
// mismatch between writer and reader processes.
package otelmetrics
