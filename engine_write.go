// engine_write.go: the write path (§4.6) — write-through across every
// tier, delete, clear, with adaptive TTL and cross-instance invalidation
// wired in.
package stratacache

import (
	"context"
	"time"

	"github.com/distryx/stratacache/codec"
)

// Set encodes value through the codec pipeline and writes it to every
// tier when WriteThrough is enabled, or only the fastest tier otherwise.
// ttl of zero means "use the configured default (possibly adjusted by
// adaptive TTL when enabled)".
func (e *Engine) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		e.stats.recordError("key")
		e.metrics.RecordError("key")
		return err
	}
	if e.isClosed() {
		return NewErrInternal("set", errEngineClosed)
	}

	raw, err := codec.EncodeValue(value, e.codecOpts)
	if err != nil {
		e.stats.recordError("serialization")
		e.metrics.RecordError("serialization")
		return NewErrEncodeFailed(err)
	}

	effectiveTTL := ttl
	if e.adaptive != nil {
		effectiveTTL = e.adaptive.touch(key, ttl)
	} else if effectiveTTL == 0 {
		effectiveTTL = e.cfg.CacheTTL
	}

	targets := e.tiers
	if !e.cfg.WriteThrough && len(targets) > 1 {
		targets = targets[:1]
	}

	var lastErr error
	wrote := false
	for _, ot := range targets {
		start := e.cfg.TimeProvider.Now()
		tierKey := ot.resolver.toTier(key)

		err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			_, err := ot.tier.Set(ctx, tierKey, raw, effectiveTTL)
			return err
		})

		latency := e.cfg.TimeProvider.Now() - start
		e.stats.recordSet(latency)
		e.metrics.RecordSet(ot.tier.Name(), latency, err == nil)

		if err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			lastErr = err
			continue
		}
		wrote = true
	}

	if !wrote {
		return lastErr
	}

	if e.cfg.EnableInvalidation && e.invalidationBus != nil {
		e.invalidationBus.Publish(e.instanceID, key)
	}

	return nil
}

// SetMany encodes every value once and delegates to each enabled tier's
// batched tier.SetMany (§4.6), preserving the disk tier's all-or-nothing
// transactional guarantee (§4.5) instead of looping single-key Set
// calls. It is used directly by the warmup loader.
//
// Adaptive TTL computes a per-key effective TTL, which the tier batch
// contract's single ttl-per-call shape cannot carry; when adaptive TTL
// is enabled, SetMany falls back to per-key Set so each entry still
// gets its own access-driven TTL.
func (e *Engine) SetMany(ctx context.Context, values map[string]interface{}, ttl time.Duration) error {
	if e.isClosed() {
		return NewErrInternal("set_many", errEngineClosed)
	}
	if len(values) == 0 {
		return nil
	}
	for k := range values {
		if err := ValidateKey(k); err != nil {
			e.stats.recordError("key")
			e.metrics.RecordError("key")
			return err
		}
	}

	if e.adaptive != nil {
		for k, v := range values {
			if err := e.Set(ctx, k, v, ttl); err != nil {
				return err
			}
		}
		return nil
	}

	effectiveTTL := ttl
	if effectiveTTL == 0 {
		effectiveTTL = e.cfg.CacheTTL
	}

	encoded := make(map[string][]byte, len(values))
	for k, v := range values {
		raw, err := codec.EncodeValue(v, e.codecOpts)
		if err != nil {
			e.stats.recordError("serialization")
			e.metrics.RecordError("serialization")
			return NewErrEncodeFailed(err)
		}
		encoded[k] = raw
	}

	targets := e.tiers
	if !e.cfg.WriteThrough && len(targets) > 1 {
		targets = targets[:1]
	}

	var lastErr error
	wrote := false
	for _, ot := range targets {
		tierValues := make(map[string][]byte, len(encoded))
		for k, raw := range encoded {
			tierValues[ot.resolver.toTier(k)] = raw
		}

		start := e.cfg.TimeProvider.Now()
		err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			_, err := ot.tier.SetMany(ctx, tierValues, effectiveTTL)
			return err
		})

		latency := e.cfg.TimeProvider.Now() - start
		e.stats.recordSet(latency)
		e.metrics.RecordSet(ot.tier.Name(), latency, err == nil)

		if err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			lastErr = err
			continue
		}
		wrote = true
	}

	if !wrote {
		return lastErr
	}

	if e.cfg.EnableInvalidation && e.invalidationBus != nil {
		for k := range values {
			e.invalidationBus.Publish(e.instanceID, k)
		}
	}

	return nil
}

// Delete removes key from every tier. It reports whether the key existed
// in at least one tier and publishes an invalidation when enabled.
func (e *Engine) Delete(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		e.stats.recordError("key")
		e.metrics.RecordError("key")
		return false, err
	}
	if e.isClosed() {
		return false, NewErrInternal("delete", errEngineClosed)
	}

	existed := false
	var lastErr error
	for _, ot := range e.tiers {
		start := e.cfg.TimeProvider.Now()
		tierKey := ot.resolver.toTier(key)

		var did bool
		err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			d, err := ot.tier.Delete(ctx, tierKey)
			did = d
			return err
		})

		latency := e.cfg.TimeProvider.Now() - start
		e.stats.recordDelete(latency)
		e.metrics.RecordDelete(ot.tier.Name(), latency, did)

		if err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			lastErr = err
			continue
		}
		existed = existed || did
	}

	if e.cfg.EnableInvalidation && e.invalidationBus != nil {
		e.invalidationBus.Publish(e.instanceID, key)
	}

	if lastErr != nil && !existed {
		return false, lastErr
	}
	return existed, nil
}

// Clear empties every tier's namespace and, when enabled, broadcasts a
// wildcard invalidation.
func (e *Engine) Clear(ctx context.Context) error {
	if e.isClosed() {
		return NewErrInternal("clear", errEngineClosed)
	}

	var lastErr error
	for _, ot := range e.tiers {
		if err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			_, err := ot.tier.Clear(ctx)
			return err
		}); err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			lastErr = err
		}
	}

	if e.cfg.EnableInvalidation && e.invalidationBus != nil {
		e.invalidationBus.Publish(e.instanceID, invalidationWildcard)
	}

	return lastErr
}

// localDeleteFasterTiers removes key from every local (faster) tier
// without publishing a further invalidation — called when this instance
// receives another instance's invalidation message (§4.10/§5: only the
// faster, locally-cached tiers need to react, since the persistent tier
// is the shared source of truth and caller-supplied shared tiers are not
// this instance's private cache to evict from).
func (e *Engine) localDeleteFasterTiers(key string) {
	ctx := context.Background()
	for _, ot := range e.tiers {
		if !ot.local {
			continue
		}
		tierKey := ot.resolver.toTier(key)
		_, _ = ot.tier.Delete(ctx, tierKey)
	}
}

// localClearFasterTiers handles an incoming wildcard invalidation the
// same way.
func (e *Engine) localClearFasterTiers() {
	ctx := context.Background()
	for _, ot := range e.tiers {
		if !ot.local {
			continue
		}
		_, _ = ot.tier.Clear(ctx)
	}
}
