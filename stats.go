// stats.go: the stats collector (§3 "Statistics record", §4.6
// "Statistics"). Two concerns are kept separate, the way the teacher
// keeps Cache.Stats() (always-on atomic counters) distinct from the
// optional MetricsCollector hook used for richer external telemetry:
//
//   - Stats is the engine's own snapshot, returned by get_stats().
//   - MetricsCollector is an optional external sink (e.g. otelmetrics)
//     that every operation also reports to, for histograms and
//     multi-backend export.
package stratacache

import "sync/atomic"

// MetricsCollector receives a callback for every cache operation. The
// default, NoOpMetricsCollector, makes this zero overhead when no
// external sink is configured.
type MetricsCollector interface {
	// RecordGet reports a get() outcome for the named tier. latencyNs is
	// the operation's wall-clock duration in nanoseconds.
	RecordGet(tier string, latencyNs int64, hit bool)
	// RecordSet reports a set() outcome for the named tier.
	RecordSet(tier string, latencyNs int64, ok bool)
	// RecordDelete reports a delete() outcome for the named tier.
	RecordDelete(tier string, latencyNs int64, existed bool)
	// RecordEviction reports one entry evicted from the named tier.
	RecordEviction(tier string)
	// RecordExpiration reports one entry expiring (TTL) in the named tier.
	RecordExpiration(tier string)
	// RecordError reports an error in the given category (see the
	// taxonomy in errors.go): "key", "serialization", "integrity",
	// "tier_unavailable", "config", "internal".
	RecordError(category string)
}

// NoOpMetricsCollector discards every call. It is the default when
// Config.MetricsCollector is nil.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordGet(tier string, latencyNs int64, hit bool)        {}
func (NoOpMetricsCollector) RecordSet(tier string, latencyNs int64, ok bool)         {}
func (NoOpMetricsCollector) RecordDelete(tier string, latencyNs int64, existed bool) {}
func (NoOpMetricsCollector) RecordEviction(tier string)                             {}
func (NoOpMetricsCollector) RecordExpiration(tier string)                           {}
func (NoOpMetricsCollector) RecordError(category string)                            {}

// Stats is the snapshot returned by Engine.GetStats(). Counters are
// monotonic for the lifetime of the engine; latencies are a simple
// running average per operation kind, which is sufficient to observe
// trend without pulling in a histogram library for the engine's own
// built-in counters (richer percentiles are the job of an attached
// MetricsCollector such as otelmetrics).
type Stats struct {
	HitsByTier   map[string]uint64
	Misses       uint64
	Sets         uint64
	Deletes      uint64
	Evictions    uint64
	Expirations  uint64
	ErrorsByCategory map[string]uint64

	AvgGetLatencyNs    int64
	AvgSetLatencyNs    int64
	AvgDeleteLatencyNs int64
}

// HitRatio returns the aggregate hit ratio across every tier, as a
// fraction in [0, 1].
func (s Stats) HitRatio() float64 {
	var hits uint64
	for _, h := range s.HitsByTier {
		hits += h
	}
	total := hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// statsRecorder is the engine's always-on, lock-free statistics
// collector. Per-tier hit counters and the error-category table use a
// mutex-guarded map (updated rarely compared to the hot counters, which
// are plain atomics), following the teacher's "lock-free counters where
// possible" guidance from the concurrency model.
type statsRecorder struct {
	misses      atomic.Uint64
	sets        atomic.Uint64
	deletes     atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64

	hitsByTier syncCounterMap
	errors     syncCounterMap

	getLatencySum   atomic.Int64
	getLatencyCount atomic.Int64
	setLatencySum   atomic.Int64
	setLatencyCount atomic.Int64
	delLatencySum   atomic.Int64
	delLatencyCount atomic.Int64
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{
		hitsByTier: newSyncCounterMap(),
		errors:     newSyncCounterMap(),
	}
}

func (s *statsRecorder) recordGet(tier string, latencyNs int64, hit bool) {
	s.getLatencySum.Add(latencyNs)
	s.getLatencyCount.Add(1)
	if hit {
		s.hitsByTier.incr(tier)
	} else {
		s.misses.Add(1)
	}
}

func (s *statsRecorder) recordSet(latencyNs int64) {
	s.setLatencySum.Add(latencyNs)
	s.setLatencyCount.Add(1)
	s.sets.Add(1)
}

func (s *statsRecorder) recordDelete(latencyNs int64) {
	s.delLatencySum.Add(latencyNs)
	s.delLatencyCount.Add(1)
	s.deletes.Add(1)
}

func (s *statsRecorder) recordEviction() { s.evictions.Add(1) }

func (s *statsRecorder) recordExpiration() { s.expirations.Add(1) }

func (s *statsRecorder) recordError(category string) { s.errors.incr(category) }

func avgOf(sum, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return sum.Load() / c
}

func (s *statsRecorder) snapshot() Stats {
	return Stats{
		HitsByTier:         s.hitsByTier.copyMap(),
		Misses:             s.misses.Load(),
		Sets:               s.sets.Load(),
		Deletes:            s.deletes.Load(),
		Evictions:          s.evictions.Load(),
		Expirations:        s.expirations.Load(),
		ErrorsByCategory:   s.errors.copyMap(),
		AvgGetLatencyNs:    avgOf(&s.getLatencySum, &s.getLatencyCount),
		AvgSetLatencyNs:    avgOf(&s.setLatencySum, &s.setLatencyCount),
		AvgDeleteLatencyNs: avgOf(&s.delLatencySum, &s.delLatencyCount),
	}
}
