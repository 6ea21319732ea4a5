// cache_generic.go: a type-safe generic wrapper over Engine, adapted
// from the teacher's GenericCache[K, V] to this engine's
// context-carrying, error-returning operations.
package stratacache

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Typed wraps an Engine with a type-safe API for a single value type V,
// keyed by any comparable K. Keys are converted to string the same way
// the teacher's GenericCache does: zero-allocation fast paths for the
// common integer and string kinds, fmt.Sprintf fallback otherwise.
//
// V must be a type the codec package encodes (see codec.Encode); Set
// returns an encode error for any other type, such as a struct.
//
// Example:
//
//	cache, _ := stratacache.New(stratacache.DefaultConfig())
//	users := stratacache.NewTyped[string, map[string]interface{}](cache)
//	users.Set(ctx, "user:123", map[string]interface{}{"name": "Alice"}, 0)
//	if u, found, _ := users.Get(ctx, "user:123"); found {
//	    fmt.Printf("User: %+v\n", u)
//	}
type Typed[K comparable, V any] struct {
	engine *Engine
}

// NewTyped wraps an existing Engine. The caller retains ownership of
// engine and must Close it; Typed adds no resources of its own.
func NewTyped[K comparable, V any](engine *Engine) *Typed[K, V] {
	return &Typed[K, V]{engine: engine}
}

func keyToString[K comparable](key K) string {
	switch v := any(key).(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return fmt.Sprintf("%v", key)
	}
}

// Set stores value under key. A zero ttl uses the engine's configured
// default.
func (t *Typed[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) error {
	return t.engine.Set(ctx, keyToString(key), value, ttl)
}

// Get retrieves a value, type-asserting it back to V. A stored value
// that does not assert to V is reported as a miss rather than a panic.
func (t *Typed[K, V]) Get(ctx context.Context, key K) (value V, found bool, err error) {
	raw, found, err := t.engine.Get(ctx, keyToString(key))
	if err != nil || !found {
		var zero V
		return zero, false, err
	}
	typed, ok := raw.(V)
	if !ok {
		var zero V
		return zero, false, nil
	}
	return typed, true, nil
}

// Delete removes key, reporting whether it existed.
func (t *Typed[K, V]) Delete(ctx context.Context, key K) (bool, error) {
	return t.engine.Delete(ctx, keyToString(key))
}

// Has reports whether key exists, without the cost of type-asserting
// the value.
func (t *Typed[K, V]) Has(ctx context.Context, key K) (bool, error) {
	_, found, err := t.engine.Get(ctx, keyToString(key))
	return found, err
}

// Clear empties the underlying engine.
func (t *Typed[K, V]) Clear(ctx context.Context) error {
	return t.engine.Clear(ctx)
}

// Stats returns the underlying engine's statistics snapshot.
func (t *Typed[K, V]) Stats() Stats {
	return t.engine.GetStats()
}
