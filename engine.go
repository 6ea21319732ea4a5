// engine.go: the orchestrator (§4.6) — assembles the configured tiers
// in order, wires the codec pipeline, adaptive TTL, failure guard,
// stats, invalidation bus, and warmup loader around them, and exposes
// the public Get/Set/Delete/Clear/GetStats/Close surface.
package stratacache

import (
	"context"
	goerrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/distryx/stratacache/codec"
	"github.com/distryx/stratacache/disktier"
	"github.com/distryx/stratacache/memtier"
)

var errEngineClosed = goerrors.New("stratacache: engine is closed")

// orderedTier pairs a Tier with the breaker guarding calls to it and the
// resolver that namespaces keys before they cross into it. local is
// true for tiers this instance privately caches into (currently only
// the memory tier) — the persistent tier and any caller-supplied shared
// tier are excluded, since §4.10/§5 scope an incoming invalidation's
// local reaction to the faster, privately-cached tiers only.
type orderedTier struct {
	tier     Tier
	breaker  *circuitBreaker
	resolver namespaceResolver
	local    bool
}

// Engine is the tier orchestrator described in §4.6. The zero value is
// not usable; construct with New.
type Engine struct {
	cfg Config

	tiers []orderedTier // ordered fastest-to-slowest: memory, shared, disk

	codecOpts codec.Options
	adaptive  *adaptiveTTLTracker
	stats     *statsRecorder
	metrics   MetricsCollector

	invalidationBus InvalidationBus
	invalBusKey     string
	invalSub        *invalidationSubscription
	instanceID      string

	janitor *janitor

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

var instanceCounter int
var instanceCounterMu sync.Mutex

func nextInstanceID() string {
	instanceCounterMu.Lock()
	defer instanceCounterMu.Unlock()
	instanceCounter++
	return fmt.Sprintf("stratacache-%d", instanceCounter)
}

// New validates cfg, assembles the tier chain, and starts the optional
// warmup and invalidation subscriptions. The returned Engine owns every
// tier it created internally (memory, disk); a caller-supplied
// Config.SharedTier remains owned by the caller and is never closed by
// Engine.Close.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		stats:      newStatsRecorder(),
		metrics:    cfg.MetricsCollector,
		instanceID: nextInstanceID(),
	}

	e.codecOpts = codec.Options{
		CompressionEnabled: cfg.EnableCompression,
		CompressionMinSize: cfg.CompressionMinSize,
		CompressionLevel:   cfg.CompressionLevel,
		EncryptionEnabled:  cfg.EnableEncryption,
		EncryptionKey:      cfg.EncryptionKey,
		EncryptionSalt:     cfg.EncryptionSalt,
		SigningEnabled:     cfg.EnableDataSigning,
		SigningKey:         cfg.SigningKey,
		SigningAlgorithm:   string(cfg.SigningAlgorithm),
	}

	if cfg.EnableAdaptiveTTL {
		e.adaptive = newAdaptiveTTLTracker(cfg, cfg.TimeProvider)
	}

	if err := e.assembleTiers(); err != nil {
		return nil, err
	}

	if cfg.EnableInvalidation {
		e.invalBusKey = invalidationBusKey(cfg)
		e.invalidationBus = acquireInvalidationBus(e.invalBusKey)
		e.invalSub = startInvalidationSubscription(e)
	}

	if cfg.EnableWarmup {
		runWarmup(context.Background(), e)
	}

	e.janitor = startJanitor(e, cfg.JanitorInterval)

	return e, nil
}

func (e *Engine) assembleTiers() error {
	if e.cfg.UseLayeredCache && len(e.cfg.CacheLayers) > 0 {
		return e.assembleLayeredTiers()
	}
	return e.assembleDefaultTiers()
}

// assembleDefaultTiers builds the [memory?, shared?, disk?] chain
// described in §4.6 from the simple boolean toggles.
func (e *Engine) assembleDefaultTiers() error {
	if e.cfg.MemoryCacheEnabled {
		mem, err := e.newMemoryTier("memory", e.cfg.CacheMaxSize, e.cfg.EvictionPolicy, e.cfg.MemoryCacheTTL)
		if err != nil {
			return err
		}
		e.addTier(mem, "memory", true)
	}

	if e.cfg.SharedTier != nil {
		e.addTier(e.cfg.SharedTier, e.cfg.SharedTier.Name(), false)
	}

	if e.cfg.DiskCacheEnabled {
		disk, err := e.newDiskTier(e.cfg.Namespace, e.cfg.DiskCacheTTL)
		if err != nil {
			return err
		}
		e.addTier(disk, "disk", false)
	}

	return nil
}

// assembleLayeredTiers builds the chain from an explicit cache_layers
// list, preserving list order as tier precedence.
func (e *Engine) assembleLayeredTiers() error {
	for _, layer := range e.cfg.CacheLayers {
		if !layer.Enabled {
			continue
		}
		ttl := layer.TTL
		switch layer.Type {
		case "memory":
			maxSize := layer.MaxSize
			if maxSize <= 0 {
				maxSize = e.cfg.CacheMaxSize
			}
			mem, err := e.newMemoryTier("memory", maxSize, e.cfg.EvictionPolicy, ttl)
			if err != nil {
				return err
			}
			e.addTier(mem, "memory", true)
		case "disk":
			disk, err := e.newDiskTier(e.cfg.Namespace, ttl)
			if err != nil {
				return err
			}
			e.addTier(disk, "disk", false)
		case "shared":
			if e.cfg.SharedTier == nil {
				return NewErrInvalidConfig("cache_layers", "layer type \"shared\" requires Config.SharedTier")
			}
			e.addTier(e.cfg.SharedTier, e.cfg.SharedTier.Name(), false)
		default:
			return NewErrInvalidConfig("cache_layers", fmt.Sprintf("unknown layer type %q", layer.Type))
		}
	}
	if len(e.tiers) == 0 {
		return NewErrInvalidConfig("cache_layers", "at least one layer must be enabled")
	}
	return nil
}

func (e *Engine) addTier(t Tier, name string, local bool) {
	e.tiers = append(e.tiers, orderedTier{
		tier:     t,
		breaker:  newCircuitBreaker(name, e.cfg),
		resolver: newNamespaceResolver(e.cfg.Namespace),
		local:    local,
	})
}

func (e *Engine) newMemoryTier(name string, maxSize int, policy EvictionPolicy, ttl time.Duration) (Tier, error) {
	m, err := memtier.New(memtier.Config{
		Name:       name,
		MaxSize:    maxSize,
		Policy:     memtier.Policy(policy),
		DefaultTTL: ttl,
		Clock:      e.cfg.TimeProvider,
		Logger:     e.cfg.Logger,
		OnEvict: func(key string) {
			e.stats.recordEviction()
			e.metrics.RecordEviction(name)
			if e.cfg.OnEvict != nil {
				e.cfg.OnEvict(key, name)
			}
		},
		OnExpire: func(key string) {
			e.stats.recordExpiration()
			e.metrics.RecordExpiration(name)
			if e.cfg.OnExpire != nil {
				e.cfg.OnExpire(key, name)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("stratacache: memory tier: %w", err)
	}
	return m, nil
}

func (e *Engine) newDiskTier(namespace string, ttl time.Duration) (Tier, error) {
	d, err := disktier.Open(disktier.Config{
		Name:               "disk",
		Dir:                e.cfg.CacheDir,
		Basename:           e.cfg.CacheFile,
		Namespace:          namespace,
		DefaultTTL:         ttl,
		Clock:              e.cfg.TimeProvider,
		Logger:             e.cfg.Logger,
		RetentionDays:      e.cfg.DiskRetentionDays,
		AggressiveFraction: e.cfg.DiskAggressiveFraction,
		CriticalThreshold:  e.cfg.DiskCriticalThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("stratacache: disk tier: %w", err)
	}
	return d, nil
}

// GetStats returns a snapshot of the engine's built-in counters (§4.6).
func (e *Engine) GetStats() Stats {
	return e.stats.snapshot()
}

// RunMaintenance runs one background-maintenance pass on demand: the
// persistent tier's retention sweep (escalating to aggressive eviction
// under disk pressure, §4.4) and compaction, the memory tier's
// expired-entry sweep, and the adaptive TTL tracker's aging sweep (§4.7).
// New starts a janitor that calls this on an interval (Config.
// JanitorInterval); callers needing a different cadence, or a
// synchronous pass before an operational event, can call it directly.
func (e *Engine) RunMaintenance(ctx context.Context) error {
	var lastErr error
	for _, ot := range e.tiers {
		switch t := ot.tier.(type) {
		case *memtier.Memory:
			t.SweepExpired()
		case *disktier.Disk:
			usage, err := t.UsageFraction()
			if err != nil {
				e.cfg.Logger.Warn("stratacache: disk usage check failed", "tier", t.Name(), "error", err)
				usage = 0
			}
			if _, err := t.Sweep(ctx, usage); err != nil {
				e.cfg.Logger.Warn("stratacache: retention sweep failed", "tier", t.Name(), "error", err)
				lastErr = err
				continue
			}
			if err := t.Compact(ctx); err != nil {
				e.cfg.Logger.Warn("stratacache: compaction failed", "tier", t.Name(), "error", err)
				lastErr = err
			}
		}
	}
	if e.adaptive != nil {
		cutoff := e.cfg.TimeProvider.Now() - int64(e.cfg.AdaptiveTTLMax)
		e.adaptive.sweep(cutoff)
	}
	return lastErr
}

// Close shuts down every internally-created tier and the invalidation
// subscription, and releases this engine's reference to the shared
// invalidation bus (the bus itself closes when its last engine releases
// it). It is idempotent. Caller-owned tiers (Config.SharedTier) are left
// open.
func (e *Engine) Close() error {
	var firstErr error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		if e.janitor != nil {
			e.janitor.Stop()
		}
		if e.invalSub != nil {
			e.invalSub.Stop()
		}
		if e.invalidationBus != nil {
			releaseInvalidationBus(e.invalBusKey)
		}
		for _, ot := range e.tiers {
			if ot.tier == e.cfg.SharedTier {
				continue
			}
			if err := ot.tier.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
