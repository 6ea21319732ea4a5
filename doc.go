// Package stratacache provides a multi-tier caching engine that
// orchestrates an in-process memory tier, an on-disk persistent tier,
// and an optional caller-supplied shared tier behind one read-through /
// write-through API.
//
// # Overview
//
// stratacache is designed for services that outgrow a single in-process
// cache but don't want a hard dependency on an external store for every
// deployment:
//
//   - Tiering: memory -> shared -> disk, consulted in order on read,
//     with promotion of slower-tier hits back into faster tiers
//   - Pluggable eviction: LRU, FIFO, or LFU for the memory tier
//   - A codec pipeline: typed binary serialization, optional
//     compression, optional AEAD encryption, optional HMAC signing
//   - Adaptive TTL: frequently-accessed keys earn longer effective TTLs
//   - A per-tier circuit breaker with retry-with-backoff, so a slow or
//     failing tier degrades gracefully instead of blocking callers
//   - Cross-instance invalidation for processes sharing a persistent
//     cache file
//   - Startup warmup from an external key list
//
// # Quick Start
//
//	cfg := stratacache.DefaultConfig()
//	cfg.DiskCacheEnabled = true
//	cfg.CacheDir = "/var/lib/myapp/cache"
//
//	engine, err := stratacache.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	ctx := context.Background()
//	if err := engine.Set(ctx, "user:123", user, 0); err != nil {
//	    log.Printf("set failed: %v", err)
//	}
//	if value, found, err := engine.Get(ctx, "user:123"); found {
//	    fmt.Printf("User: %+v\n", value)
//	}
//
// # Type-Safe Generic API
//
// Typed wraps an *Engine for callers who want a type-safe surface
// instead of interface{}:
//
//	cache, _ := stratacache.New(stratacache.DefaultConfig())
//	users := stratacache.NewTyped[string, User](cache)
//	users.Set(ctx, "user:123", User{ID: 123, Name: "Alice"}, 0)
//	if user, found, _ := users.Get(ctx, "user:123"); found {
//	    fmt.Printf("User: %s\n", user.Name)
//	}
//
// # Tiering and Promotion
//
// By default the engine assembles [memory?, shared?, disk?] from the
// MemoryCacheEnabled / SharedTier / DiskCacheEnabled toggles, in that
// precedence order. UseLayeredCache plus an explicit CacheLayers list
// overrides this with caller-specified ordering and per-layer TTLs.
//
// On a read-through Get, tiers are tried fastest-first. A hit in a
// slower tier is decoded once and, when ReadThrough is enabled, written
// back into every faster tier that missed — each promotion happens
// exactly once per tier per read. A failing tier is skipped rather than
// treated as authoritative: it never hides a value a slower tier still
// holds.
//
// # Codec Pipeline
//
// Every value crosses a tier boundary as framed bytes: serialize, then
// optionally compress (klauspost/compress/flate), encrypt (AES-GCM,
// keyed via HKDF-SHA256), and sign (HMAC-SHA256/384/512), in that order.
// Decoding reverses the pipeline: verify, decrypt, decompress,
// deserialize. A tampered signature or a rejected ciphertext surfaces as
// a distinct integrity error rather than a generic decode failure.
//
// # Adaptive TTL
//
// When EnableAdaptiveTTL is set, each key's access count drives its
// effective TTL upward in powers of AdaptiveTTLAdjustmentFactor once the
// key is hit AccessCountThreshold times, clamped to
// [AdaptiveTTLMin, AdaptiveTTLMax]. Infrequently accessed keys keep the
// configured base TTL.
//
// # Failure Guard
//
// Each tier is wrapped in its own circuit breaker: closed under normal
// operation, opening after BreakerFailureThreshold consecutive failures,
// and probing back to closed after BreakerCooldown via a single
// half-open call. Each call is attempted up to RetryAttempts times in
// all, with exponential backoff starting at RetryDelay between attempts,
// before the breaker records a failure; an error not marked retryable
// ends the attempts at once.
//
// # Cross-Instance Invalidation
//
// When multiple engine instances in one process share a persistent
// cache location (the same CacheDir and CacheFile), EnableInvalidation
// connects them through an in-process publish/subscribe bus; engines in
// other processes are not reached. A Delete or Clear on one instance
// notifies the others to drop
// the same key (or everything, for a wildcard) from their own faster
// tiers, keeping the persistent tier as the single source of truth.
//
// # Statistics
//
// GetStats returns an always-on snapshot: per-tier hit counts, overall
// misses/sets/deletes/evictions/expirations, per-category error counts,
// and running average latencies. Config.MetricsCollector is a separate,
// optional hook (see the otelmetrics subpackage) for exporting the same
// events as OpenTelemetry histograms and counters.
//
// # Error Handling
//
// stratacache builds structured errors over go-errors: every failure
// carries an error code and a context map, and the taxonomy predicates
// (IsKeyError, IsSerializationError, IsIntegrityError, IsTierUnavailable,
// IsConfigError, IsRetryable) classify a returned error without string
// matching.
//
// # Packages
//
//   - github.com/distryx/stratacache: the orchestrator, codec pipeline,
//     and public API
//   - github.com/distryx/stratacache/memtier: the memory tier
//   - github.com/distryx/stratacache/disktier: the persistent tier
//   - github.com/distryx/stratacache/codec: serialize/compress/encrypt/sign
//   - github.com/distryx/stratacache/otelmetrics: OpenTelemetry MetricsCollector
package stratacache
