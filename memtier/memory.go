// Package memtier implements the memory tier (§4.3): a bounded
// in-process store with pluggable eviction disciplines and TTL
// enforcement, grounded on the map+container/list janitor pattern from
// the retrieval pack's tempuscache-style caches, generalized to the
// three disciplines §4.3 requires and to the bulk/namespace operations
// the tier contract (§4.5) demands.
package memtier

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Clock supplies the current time in nanoseconds since the Unix epoch.
type Clock interface {
	Now() int64
}

// Logger is the minimal structured logging interface the tier reports
// through.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

// Policy names the eviction discipline (§4.3).
type Policy string

const (
	LRU  Policy = "lru"
	FIFO Policy = "fifo"
	LFU  Policy = "lfu"
)

// Config configures a Memory tier instance.
type Config struct {
	Name       string // tier name reported by Tier.Name(), e.g. "memory"
	MaxSize    int
	Policy     Policy
	DefaultTTL time.Duration
	Clock      Clock
	Logger     Logger

	// OnEvict and OnExpire are called synchronously, under the tier's
	// lock, whenever an entry is evicted or expires. They must be fast.
	OnEvict  func(key string)
	OnExpire func(key string)
}

// record is the memory tier's realization of the §3 Entry tuple.
type record struct {
	key          string
	value        []byte
	expiresAt    int64 // 0 = never
	insertedAt   int64
	accessCount  uint64
	lastAccessAt int64
}

func (r *record) expired(now int64) bool {
	return r.expiresAt != 0 && now >= r.expiresAt
}

// evictionPolicy is the pluggable bookkeeping each discipline in §4.3
// implements on top of the shared record map.
type evictionPolicy interface {
	onInsert(rec *record)
	onAccess(rec *record)
	onRemove(key string)
	evict() (key string, ok bool)
	clear()
}

// Memory is the bounded in-process store. It satisfies the Tier
// contract structurally (see tier.go at the module root).
type Memory struct {
	name       string
	maxSize    int
	defaultTTL time.Duration
	clock      Clock
	log        Logger
	onEvict    func(string)
	onExpire   func(string)

	mu      sync.RWMutex
	records map[string]*record
	policy  evictionPolicy
	closed  bool
}

// New constructs a Memory tier per cfg.
func New(cfg Config) (*Memory, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("memtier: max size must be > 0")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("memtier: clock is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Name == "" {
		cfg.Name = "memory"
	}

	m := &Memory{
		name:       cfg.Name,
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		onEvict:    cfg.OnEvict,
		onExpire:   cfg.OnExpire,
		records:    make(map[string]*record, cfg.MaxSize),
	}

	switch cfg.Policy {
	case "", LRU:
		m.policy = newLRUPolicy()
	case FIFO:
		m.policy = newFIFOPolicy()
	case LFU:
		m.policy = newLFUPolicy()
	default:
		return nil, fmt.Errorf("memtier: unknown policy %q", cfg.Policy)
	}

	return m, nil
}

func (m *Memory) Name() string { return m.name }

// Get returns found=false on miss or expiry, removing expired entries
// eagerly (§4.3 "On every get, expired entries are treated as misses
// and removed eagerly"). remainingTTL is 0 when the entry never expires,
// otherwise the time left until expiresAt.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, false, 0, nil
	}
	now := m.clock.Now()
	if rec.expired(now) {
		m.removeLocked(key)
		if m.onExpire != nil {
			m.onExpire(key)
		}
		return nil, false, 0, nil
	}

	rec.accessCount++
	rec.lastAccessAt = now
	m.policy.onAccess(rec)

	var remaining time.Duration
	if rec.expiresAt != 0 {
		remaining = time.Duration(rec.expiresAt - now)
	}

	out := make([]byte, len(rec.value))
	copy(out, rec.value)
	return out, true, remaining, nil
}

// Set stores value under key. Eviction happens before insertion so the
// post-condition size <= max_size always holds (§4.3).
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(key, value, ttl), nil
}

func (m *Memory) setLocked(key string, value []byte, ttl time.Duration) bool {
	now := m.clock.Now()
	effectiveTTL := ttl
	if effectiveTTL == 0 {
		effectiveTTL = m.defaultTTL
	}
	var expiresAt int64
	if effectiveTTL > 0 {
		expiresAt = now + int64(effectiveTTL)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	if existing, ok := m.records[key]; ok {
		existing.value = stored
		existing.expiresAt = expiresAt
		existing.accessCount++
		existing.lastAccessAt = now
		m.policy.onAccess(existing)
		return true
	}

	if len(m.records) >= m.maxSize {
		m.evictOneLocked()
	}

	rec := &record{
		key:          key,
		value:        stored,
		expiresAt:    expiresAt,
		insertedAt:   now,
		accessCount:  1,
		lastAccessAt: now,
	}
	m.records[key] = rec
	m.policy.onInsert(rec)
	return true
}

func (m *Memory) evictOneLocked() {
	key, ok := m.policy.evict()
	if !ok {
		return
	}
	delete(m.records, key)
	if m.onEvict != nil {
		m.onEvict(key)
	}
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; !ok {
		return false, nil
	}
	m.removeLocked(key)
	return true, nil
}

func (m *Memory) removeLocked(key string) {
	delete(m.records, key)
	m.policy.onRemove(key)
}

func (m *Memory) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, found, _, err := m.Get(ctx, k); err != nil {
			return nil, err
		} else if found {
			out[k] = v
		}
	}
	return out, nil
}

func (m *Memory) SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) (bool, error) {
	ok := true
	for k, v := range values {
		applied, err := m.Set(ctx, k, v, ttl)
		if err != nil {
			return false, err
		}
		ok = ok && applied
	}
	return ok, nil
}

func (m *Memory) Clear(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*record, m.maxSize)
	m.policy.clear()
	return true, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.records = nil
	m.policy.clear()
	return nil
}

// Len reports the current number of live entries, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// SweepExpired removes every expired entry, for use by a background
// janitor task the orchestrator may run alongside the disk tier's
// retention sweep.
func (m *Memory) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	removed := 0
	for k, rec := range m.records {
		if rec.expired(now) {
			m.removeLocked(k)
			if m.onExpire != nil {
				m.onExpire(k)
			}
			removed++
		}
	}
	return removed
}
