// engine_read.go: the read path (§4.6) — read-through across tiers with
// promotion-on-hit into every faster tier that missed.
package stratacache

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/distryx/stratacache/codec"
)

// Get performs a read-through lookup: tiers are consulted in order; the
// first hit is decoded and, when ReadThrough is enabled, promoted into
// every faster tier that missed, exactly once per tier (§4.6, testable
// property "promotion happens exactly once").
func (e *Engine) Get(ctx context.Context, key string) (interface{}, bool, error) {
	if err := ValidateKey(key); err != nil {
		e.stats.recordError("key")
		e.metrics.RecordError("key")
		return nil, false, err
	}
	if e.isClosed() {
		return nil, false, NewErrInternal("get", errEngineClosed)
	}

	for i, ot := range e.tiers {
		start := e.cfg.TimeProvider.Now()
		tierKey := ot.resolver.toTier(key)

		var raw []byte
		var found bool
		var remainingTTL time.Duration
		err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			v, f, rem, err := ot.tier.Get(ctx, tierKey)
			raw, found, remainingTTL = v, f, rem
			return err
		})

		latency := e.cfg.TimeProvider.Now() - start
		e.stats.recordGet(ot.tier.Name(), latency, found)
		e.metrics.RecordGet(ot.tier.Name(), latency, found)

		if err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			continue // a failing tier must not hide data held by a slower one (§5)
		}
		if !found {
			continue
		}

		value, decErr := codec.DecodeValue(raw, e.codecOpts)
		if decErr != nil {
			var integrityErr *codec.IntegrityError
			if goerrors.As(decErr, &integrityErr) {
				e.stats.recordError("integrity")
				e.metrics.RecordError("integrity")
				return nil, false, NewErrSignatureInvalid(key)
			}
			e.stats.recordError("serialization")
			e.metrics.RecordError("serialization")
			return nil, false, NewErrDecodeFailed(decErr)
		}

		if e.adaptive != nil {
			e.adaptive.touch(key, 0)
		}

		if e.cfg.ReadThrough {
			e.promoteToFasterTiers(ctx, key, raw, i, remainingTTL)
		}

		return value, true, nil
	}

	return nil, false, nil
}

// promoteToFasterTiers writes raw (already-encoded) into every tier
// faster than missIndex, carrying the value's remaining TTL (§4.6 read
// step 3) so a promoted entry is not truncated to the destination
// tier's own default. remainingTTL of 0 means the value never expires;
// that is promoted as NoExpiry rather than 0, since 0 would otherwise be
// read by Set as "use the tier default".
func (e *Engine) promoteToFasterTiers(ctx context.Context, key string, raw []byte, missIndex int, remainingTTL time.Duration) {
	promoteTTL := remainingTTL
	if promoteTTL == 0 {
		promoteTTL = NoExpiry
	}
	for i := 0; i < missIndex; i++ {
		ot := e.tiers[i]
		tierKey := ot.resolver.toTier(key)
		_ = guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			_, err := ot.tier.Set(ctx, tierKey, raw, promoteTTL)
			return err
		})
	}
}

// GetMany cascades a batched tier.GetMany call across tiers in order:
// each tier is asked only for the keys still outstanding after the
// faster tiers' passes, and every tier's hits are promoted into the
// faster tiers with one batched tier.SetMany call each (§4.6). Misses
// are simply absent from the returned map (§4.5).
//
// tier.GetMany does not surface a per-key remaining TTL (unlike
// tier.Get), so batched promotion applies each destination tier's own
// default TTL rather than carrying one through; a caller that needs
// exact per-key remaining TTL on promotion should use Get.
func (e *Engine) GetMany(ctx context.Context, keys []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pending := make(map[string]bool, len(keys))
	for _, k := range keys {
		pending[k] = true
	}

	for i, ot := range e.tiers {
		if len(pending) == 0 {
			break
		}

		tierKeyToKey := make(map[string]string, len(pending))
		tierKeys := make([]string, 0, len(pending))
		for k := range pending {
			tk := ot.resolver.toTier(k)
			tierKeyToKey[tk] = k
			tierKeys = append(tierKeys, tk)
		}

		start := e.cfg.TimeProvider.Now()
		var raws map[string][]byte
		err := guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			m, err := ot.tier.GetMany(ctx, tierKeys)
			raws = m
			return err
		})

		latency := e.cfg.TimeProvider.Now() - start
		e.stats.recordGet(ot.tier.Name(), latency, len(raws) > 0)
		e.metrics.RecordGet(ot.tier.Name(), latency, len(raws) > 0)

		if err != nil {
			e.stats.recordError("tier_unavailable")
			e.metrics.RecordError("tier_unavailable")
			continue // a failing tier must not hide data held by a slower one (§5)
		}

		hits := make(map[string][]byte, len(raws))
		for tierKey, raw := range raws {
			k := tierKeyToKey[tierKey]
			value, decErr := codec.DecodeValue(raw, e.codecOpts)
			if decErr != nil {
				var integrityErr *codec.IntegrityError
				if goerrors.As(decErr, &integrityErr) {
					e.stats.recordError("integrity")
					e.metrics.RecordError("integrity")
					return nil, NewErrSignatureInvalid(k)
				}
				e.stats.recordError("serialization")
				e.metrics.RecordError("serialization")
				return nil, NewErrDecodeFailed(decErr)
			}
			out[k] = value
			hits[k] = raw
			delete(pending, k)
		}

		if e.cfg.ReadThrough && len(hits) > 0 {
			e.promoteManyToFasterTiers(ctx, hits, i)
		}
	}

	return out, nil
}

// promoteManyToFasterTiers writes the already-encoded hits map into
// every tier faster than missIndex via one batched tier.SetMany call
// per tier, preserving the disk tier's all-or-nothing batch guarantee.
func (e *Engine) promoteManyToFasterTiers(ctx context.Context, hits map[string][]byte, missIndex int) {
	for i := 0; i < missIndex; i++ {
		ot := e.tiers[i]
		tierValues := make(map[string][]byte, len(hits))
		for k, raw := range hits {
			tierValues[ot.resolver.toTier(k)] = raw
		}
		_ = guardedCall(ctx, ot.breaker, e.cfg, func(ctx context.Context) error {
			_, err := ot.tier.SetMany(ctx, tierValues, 0)
			return err
		})
	}
}
