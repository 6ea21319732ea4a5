package disktier

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"
)

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() int64 { return c.now }

func newTestDisk(t *testing.T, namespace string) (*Disk, *fakeClock) {
	t.Helper()
	dir := t.TempDir()
	clock := &fakeClock{now: time.Now().UnixNano()}
	d, err := Open(Config{
		Dir:                dir,
		Basename:           "cache",
		Namespace:          namespace,
		Clock:              clock,
		AggressiveFraction: 0.5,
		CriticalThreshold:  0.9,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, clock
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t, "default")

	if _, err := d.Set(ctx, "k1", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, _, err := d.Get(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(v) != "v1" {
		t.Fatalf("Get: got %q, want v1", v)
	}
}

func TestTTLSidecarHonored(t *testing.T) {
	ctx := context.Background()
	d, clock := newTestDisk(t, "default")

	if _, err := d.Set(ctx, "k1", []byte("v1"), 1*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.now += int64(2 * time.Second)

	_, found, _, err := d.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatalf("Get: expected expired entry to be absent")
	}
}

func TestNamespaceIsolationViaSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: 1}

	a, err := Open(Config{Dir: dir, Basename: "cache", Namespace: "a", Clock: clock})
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := Open(Config{Dir: dir, Basename: "cache", Namespace: "b", Clock: clock})
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	if _, err := a.Set(ctx, "shared-key", []byte("from-a"), 0); err != nil {
		t.Fatalf("a.Set: %v", err)
	}
	_, found, _, err := b.Get(ctx, "shared-key")
	if err != nil {
		t.Fatalf("b.Get: %v", err)
	}
	if found {
		t.Fatalf("namespace isolation violated: b saw a's key")
	}
	if a.Path() == b.Path() {
		t.Fatalf("expected distinct files, got %q == %q", a.Path(), b.Path())
	}
}

func TestDeleteRemovesSidecar(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t, "default")

	if _, err := d.Set(ctx, "k1", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := d.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE key LIKE '%'||?`, sidecarSuffix).Scan(&count); err != nil {
		t.Fatalf("count sidecars: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected sidecar removed alongside entry, found %d leftover rows", count)
	}
}

func TestSweepNormalModeRemovesExpiredOnly(t *testing.T) {
	ctx := context.Background()
	d, clock := newTestDisk(t, "default")

	if _, err := d.Set(ctx, "expired", []byte("v"), 1*time.Second); err != nil {
		t.Fatalf("Set expired: %v", err)
	}
	if _, err := d.Set(ctx, "fresh", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set fresh: %v", err)
	}
	clock.now += int64(2 * time.Second)

	report, err := d.Sweep(ctx, 0.1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Mode != "normal" {
		t.Fatalf("expected normal mode, got %q", report.Mode)
	}
	if report.Expired != 1 {
		t.Fatalf("expected 1 expired, got %d", report.Expired)
	}

	assertAbsentDisk(t, ctx, d, "expired")
	assertPresentDisk(t, ctx, d, "fresh")
}

func TestSweepNormalModeHonorsRetentionDays(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := &fakeClock{now: time.Now().UnixNano()}
	d, err := Open(Config{
		Dir:                dir,
		Basename:           "cache",
		Namespace:          "default",
		Clock:              clock,
		AggressiveFraction: 0.5,
		CriticalThreshold:  0.9,
		RetentionDays:      30,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := d.Set(ctx, "k1", []byte("v"), 1*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clock.now += int64(2 * time.Second) // expired, but nowhere near 30 days past expiry

	report, err := d.Sweep(ctx, 0.1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Expired != 0 {
		t.Fatalf("expected the retention window to keep a just-expired entry, got %d expired", report.Expired)
	}
	if !rowExists(t, d, "k1") {
		t.Fatal("expected k1's row to survive the sweep")
	}

	clock.now += int64(31 * 24 * time.Hour)
	report, err = d.Sweep(ctx, 0.1)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Expired != 1 {
		t.Fatalf("expected the entry to be removed once past the retention horizon, got %d expired", report.Expired)
	}
	if rowExists(t, d, "k1") {
		t.Fatal("expected k1's row to be gone once past the retention horizon")
	}
}

func TestSweepAggressiveModeEnforcesMinimumEvictionFloor(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := &fakeClock{now: time.Now().UnixNano()}
	d, err := Open(Config{
		Dir:                dir,
		Basename:           "cache",
		Namespace:          "default",
		Clock:              clock,
		AggressiveFraction: 0.05, // ceil(20*0.05) = 1, but the floor is 10
		CriticalThreshold:  0.9,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("k%02d", i)
		if _, err := d.Set(ctx, key, []byte("v"), time.Hour); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	report, err := d.Sweep(ctx, 0.95) // above the 0.9 critical threshold
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Mode != "aggressive" {
		t.Fatalf("expected aggressive mode, got %q", report.Mode)
	}
	if report.Evicted != 10 {
		t.Fatalf("expected the 10-entry minimum floor to apply, got %d evicted", report.Evicted)
	}
}

func TestSweepAggressiveModeEvictsBeyondExpiry(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDisk(t, "default")

	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		if _, err := d.Set(ctx, key, []byte("v"), time.Hour); err != nil {
			t.Fatalf("Set(%s): %v", key, err)
		}
	}

	report, err := d.Sweep(ctx, 0.95) // above the 0.9 critical threshold
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if report.Mode != "aggressive" {
		t.Fatalf("expected aggressive mode, got %q", report.Mode)
	}
	if report.Evicted == 0 {
		t.Fatalf("expected aggressive sweep to evict unexpired entries")
	}
}

func TestCompactPreservesLiveEntries(t *testing.T) {
	ctx := context.Background()
	d, clock := newTestDisk(t, "default")

	if _, err := d.Set(ctx, "keep", []byte("v1"), 0); err != nil {
		t.Fatalf("Set keep: %v", err)
	}
	if _, err := d.Set(ctx, "gone", []byte("v2"), 1*time.Second); err != nil {
		t.Fatalf("Set gone: %v", err)
	}
	clock.now += int64(2 * time.Second)
	if _, err := d.Sweep(ctx, 0.1); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if err := d.Compact(ctx); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	assertPresentDisk(t, ctx, d, "keep")
	assertAbsentDisk(t, ctx, d, "gone")

	if _, err := os.Stat(d.Path()); err != nil {
		t.Fatalf("expected compacted file at %s: %v", d.Path(), err)
	}
}

// rowExists checks the raw entries table directly, bypassing Get's own
// eager-expiry deletion so a retention-horizon test can observe a
// not-yet-swept, already-expired row.
func rowExists(t *testing.T, d *Disk, key string) bool {
	t.Helper()
	var v []byte
	err := d.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("query %q: %v", key, err)
	}
	return true
}

func assertAbsentDisk(t *testing.T, ctx context.Context, d *Disk, key string) {
	t.Helper()
	_, found, _, err := d.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if found {
		t.Fatalf("Get(%q): expected absent, found present", key)
	}
}

func assertPresentDisk(t *testing.T, ctx context.Context, d *Disk, key string) {
	t.Helper()
	_, found, _, err := d.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	if !found {
		t.Fatalf("Get(%q): expected present, found absent", key)
	}
}
