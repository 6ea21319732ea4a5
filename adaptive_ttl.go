// adaptive_ttl.go: the adaptive TTL policy (§4.7) — per-key access
// statistics drive the effective TTL computed on write.
package stratacache

import (
	"math"
	"sync"
	"time"
)

// accessStat is the bounded per-key table entry: (access_count,
// last_access_at) from §4.7.
type accessStat struct {
	count      uint64
	lastAccess int64
}

// adaptiveTTLTracker implements the closed form in §4.7:
//
//	base = ttl_override ?? cache_ttl
//	if access_count >= access_count_threshold:
//	    eff = clamp(base * adjustment_factor^k, ttl_min, ttl_max)
//	    where k = floor(log(access_count/threshold) / log(2))
//	else:
//	    eff = base
//
// The table is size-bounded: when a new key arrives with the table at
// CacheMaxSize, the least recently touched entry is dropped. Entries are
// also aged out by a time-based sweep. The contract only requires
// monotonicity, not exactness.
type adaptiveTTLTracker struct {
	cfg   Config
	clock TimeProvider

	mu    sync.Mutex
	stats map[string]*accessStat
}

func newAdaptiveTTLTracker(cfg Config, clock TimeProvider) *adaptiveTTLTracker {
	return &adaptiveTTLTracker{
		cfg:   cfg,
		clock: clock,
		stats: make(map[string]*accessStat),
	}
}

// touch records one access to key and returns the effective TTL to use
// for this write, given ttlOverride (0 means "no override, use
// Config.CacheTTL").
func (t *adaptiveTTLTracker) touch(key string, ttlOverride time.Duration) time.Duration {
	base := ttlOverride
	if base == 0 {
		base = t.cfg.CacheTTL
	}
	if !t.cfg.EnableAdaptiveTTL {
		return base
	}

	t.mu.Lock()
	st, ok := t.stats[key]
	if !ok {
		if len(t.stats) >= t.cfg.CacheMaxSize {
			t.evictOldestLocked()
		}
		st = &accessStat{}
		t.stats[key] = st
	}
	st.count++
	st.lastAccess = t.clock.Now()
	count := st.count
	t.mu.Unlock()

	if base <= 0 {
		return base
	}
	if count < t.cfg.AccessCountThreshold {
		return base
	}

	threshold := float64(t.cfg.AccessCountThreshold)
	if threshold <= 0 {
		threshold = 1
	}
	k := math.Floor(math.Log(float64(count)/threshold) / math.Log(2))
	if k < 0 {
		k = 0
	}
	factor := math.Pow(t.cfg.AdaptiveTTLAdjustmentFactor, k)
	eff := time.Duration(float64(base) * factor)

	if eff < t.cfg.AdaptiveTTLMin {
		eff = t.cfg.AdaptiveTTLMin
	}
	if eff > t.cfg.AdaptiveTTLMax {
		eff = t.cfg.AdaptiveTTLMax
	}
	return eff
}

// evictOldestLocked drops the least-recently-touched entry to keep the
// table at or under CacheMaxSize. Caller must hold t.mu.
func (t *adaptiveTTLTracker) evictOldestLocked() {
	var oldestKey string
	var oldestAt int64
	first := true
	for k, st := range t.stats {
		if first || st.lastAccess < oldestAt {
			oldestKey, oldestAt, first = k, st.lastAccess, false
		}
	}
	if !first {
		delete(t.stats, oldestKey)
	}
}

// sweep drops entries untouched since cutoff, bounding the table's
// memory footprint even under a working set that never hits CacheMaxSize.
func (t *adaptiveTTLTracker) sweep(cutoff int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, st := range t.stats {
		if st.lastAccess < cutoff {
			delete(t.stats, k)
		}
	}
}
