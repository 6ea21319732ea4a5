// tier.go: the tier contract (§4.5) — the abstract operations shared by
// every concrete tier (memtier, disktier, and any networked shared tier a
// caller plugs in).
package stratacache

import (
	"context"
	"time"
)

// Tier is the polymorphism point of the system. Every concrete store —
// the in-process memory tier, the on-disk persistent tier, or a
// networked shared tier composed on top — implements this interface.
// Tier keys crossing this boundary are already namespaced by the caller
// (the orchestrator or a test harness), per §4.5.
//
// Every method may suspend; implementations must accept ctx cancellation
// at their I/O boundaries without leaving partial on-disk state (§5).
type Tier interface {
	// Name identifies the tier for statistics and logging, e.g. "memory",
	// "disk", or a caller-supplied name for a shared tier.
	Name() string

	// Get returns found=false on miss or expiry; it never returns an
	// error for a plain miss. remainingTTL is the time left before the
	// entry expires, or 0 if it never expires — callers promoting the
	// value into a faster tier use it (or NoExpiry) to avoid truncating
	// it to the destination tier's own default TTL.
	Get(ctx context.Context, tierKey string) (value []byte, found bool, remainingTTL time.Duration, err error)

	// Set stores value under tierKey. If ttl is zero, the tier's default
	// TTL applies (zero default means "never expires"). On return, the
	// entry is durable (persistent tiers) or present (memory tier).
	Set(ctx context.Context, tierKey string, value []byte, ttl time.Duration) (bool, error)

	// Delete is idempotent: it reports whether the key existed.
	Delete(ctx context.Context, tierKey string) (bool, error)

	// GetMany returns partial results: keys absent from the returned map
	// are misses, not errors.
	GetMany(ctx context.Context, tierKeys []string) (map[string][]byte, error)

	// SetMany applies ttl (or the tier default) to every entry. It
	// reports true only if every entry was applied; on false the caller
	// may retry the whole batch.
	SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) (bool, error)

	// Clear removes only this tier instance's namespace.
	Clear(ctx context.Context) (bool, error)

	// Close is idempotent and releases every resource the tier holds.
	Close() error
}

// NoExpiry is a ttl sentinel meaning "never expires, regardless of the
// tier's own default TTL." Tier.Set and Tier.SetMany already treat any
// ttl < 0 this way (only ttl == 0 means "use the tier default"); NoExpiry
// just names the convention for callers carrying a remaining TTL of 0
// ("never expires") across a promotion into a tier whose own default
// might otherwise truncate it.
const NoExpiry time.Duration = -1
