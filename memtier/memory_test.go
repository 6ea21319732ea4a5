package memtier

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() int64 { return c.now }

func newTestMemory(t *testing.T, policy Policy, maxSize int, clock Clock) *Memory {
	t.Helper()
	m, err := New(Config{MaxSize: maxSize, Policy: policy, Clock: clock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestLRUEvictionTrace(t *testing.T) {
	// [w(a), w(b), g(a), w(c)] with max_size=2 evicts b.
	ctx := context.Background()
	clock := &fakeClock{now: 1}
	m := newTestMemory(t, LRU, 2, clock)

	mustSet(t, ctx, m, "a", "1")
	mustSet(t, ctx, m, "b", "2")
	mustGet(t, ctx, m, "a", true)
	mustSet(t, ctx, m, "c", "3")

	assertAbsent(t, ctx, m, "b")
	assertPresent(t, ctx, m, "a")
	assertPresent(t, ctx, m, "c")
}

func TestFIFOEvictionTrace(t *testing.T) {
	// Same trace evicts a under FIFO: reads never change order.
	ctx := context.Background()
	clock := &fakeClock{now: 1}
	m := newTestMemory(t, FIFO, 2, clock)

	mustSet(t, ctx, m, "a", "1")
	mustSet(t, ctx, m, "b", "2")
	mustGet(t, ctx, m, "a", true)
	mustSet(t, ctx, m, "c", "3")

	assertAbsent(t, ctx, m, "a")
	assertPresent(t, ctx, m, "b")
	assertPresent(t, ctx, m, "c")
}

func TestLFUEvictionTrace(t *testing.T) {
	// [w(a), w(b), g(a), g(a), w(c)] with max_size=2 evicts b.
	ctx := context.Background()
	clock := &fakeClock{now: 1}
	m := newTestMemory(t, LFU, 2, clock)

	mustSet(t, ctx, m, "a", "1")
	mustSet(t, ctx, m, "b", "2")
	mustGet(t, ctx, m, "a", true)
	mustGet(t, ctx, m, "a", true)
	mustSet(t, ctx, m, "c", "3")

	assertAbsent(t, ctx, m, "b")
	assertPresent(t, ctx, m, "a")
	assertPresent(t, ctx, m, "c")
}

func TestSizeBound(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: 1}
	m := newTestMemory(t, LRU, 3, clock)

	for i := 0; i < 50; i++ {
		mustSet(t, ctx, m, string(rune('a'+i%26))+string(rune(i)), "v")
	}
	if m.Len() > 3 {
		t.Fatalf("size bound violated: got %d entries, want <= 3", m.Len())
	}
}

func TestTTLHonored(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: 1000}
	m := newTestMemory(t, LRU, 10, clock)

	if _, err := m.Set(ctx, "x", []byte("y"), 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.now = 1002 // now past expiry (expires_at = 1000+1 = 1001)
	assertAbsent(t, ctx, m, "x")
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: 1}
	m := newTestMemory(t, LRU, 10, clock)
	mustSet(t, ctx, m, "k", "v")

	first, err := m.Delete(ctx, "k")
	if err != nil || !first {
		t.Fatalf("first delete: got (%v, %v)", first, err)
	}
	second, err := m.Delete(ctx, "k")
	if err != nil || second {
		t.Fatalf("second delete: got (%v, %v)", second, err)
	}
}

func TestGetReturnsRemainingTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: 1000}
	m := newTestMemory(t, LRU, 10, clock)
	defer m.Close()

	if _, err := m.Set(ctx, "expiring", []byte("v"), 10*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, found, remaining, err := m.Get(ctx, "expiring")
	if err != nil || !found {
		t.Fatalf("Get(expiring): found=%v err=%v", found, err)
	}
	if remaining <= 0 || remaining > 10*time.Second {
		t.Fatalf("Get(expiring): remainingTTL = %v, want in (0, 10s]", remaining)
	}

	if _, err := m.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, found, remaining, err = m.Get(ctx, "forever")
	if err != nil || !found {
		t.Fatalf("Get(forever): found=%v err=%v", found, err)
	}
	if remaining != 0 {
		t.Fatalf("Get(forever): remainingTTL = %v, want 0 (never expires)", remaining)
	}
}

func mustSet(t *testing.T, ctx context.Context, m *Memory, key, val string) {
	t.Helper()
	if _, err := m.Set(ctx, key, []byte(val), 0); err != nil {
		t.Fatalf("Set(%q): %v", key, err)
	}
}

func mustGet(t *testing.T, ctx context.Context, m *Memory, key string, wantFound bool) {
	t.Helper()
	_, found, _, err := m.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if found != wantFound {
		t.Fatalf("Get(%q): found=%v, want %v", key, found, wantFound)
	}
}

func assertAbsent(t *testing.T, ctx context.Context, m *Memory, key string) {
	t.Helper()
	mustGet(t, ctx, m, key, false)
}

func assertPresent(t *testing.T, ctx context.Context, m *Memory, key string) {
	t.Helper()
	mustGet(t, ctx, m, key, true)
}
