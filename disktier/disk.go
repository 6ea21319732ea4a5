// Package disktier implements the persistent tier (§4.4): a
// disk-resident keyed store with an expiry sidecar, background
// retention sweeps, and atomic compaction. Grounded on the
// transactional bucket-per-entity design in cuemby-warren's storage
// doc.go (ACID transactions, JSON-shaped records) but backed by SQLite
// through database/sql, the way the teacher's go.mod already carries
// mattn/go-sqlite3 as a dependency.
package disktier

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sidecarSuffix = "__expires"

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

// Config configures a Disk tier instance.
type Config struct {
	Name      string // tier name reported by Tier.Name(), e.g. "disk"
	Dir       string
	Basename  string
	Namespace string

	DefaultTTL time.Duration
	Clock      Clock
	Logger     Logger

	RetentionDays      int
	AggressiveFraction float64
	CriticalThreshold  float64 // fraction of device capacity
}

// Disk is the persistent tier. Its file is
// "<Dir>/<Basename>_<Namespace>.db" (or "<Dir>/<Basename>.db" for the
// default namespace), per §4.4. It satisfies the Tier contract
// structurally (see tier.go at the module root).
type Disk struct {
	name       string
	path       string
	defaultTTL time.Duration
	clock      Clock
	log        Logger
	cfg        Config

	mu     sync.Mutex // serializes writes; reads take no lock but share the pool's single connection
	db     *sql.DB
	closed bool
}

// Open creates or opens the SQLite-backed persistent tier file
// described by cfg.
func Open(cfg Config) (*Disk, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("disktier: dir is required")
	}
	if cfg.Basename == "" {
		return nil, fmt.Errorf("disktier: basename is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("disktier: clock is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Name == "" {
		cfg.Name = "disk"
	}

	path := filePath(cfg.Dir, cfg.Basename, cfg.Namespace)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("disktier: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // one writer-lock per §5's shared-resources model

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disktier: create schema: %w", err)
	}

	return &Disk{
		name:       cfg.Name,
		path:       path,
		defaultTTL: cfg.DefaultTTL,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		cfg:        cfg,
		db:         db,
	}, nil
}

func filePath(dir, basename, namespace string) string {
	if namespace == "" || namespace == "default" {
		return fmt.Sprintf("%s/%s.db", dir, basename)
	}
	return fmt.Sprintf("%s/%s_%s.db", dir, basename, namespace)
}

func (d *Disk) Name() string { return d.name }

func (d *Disk) Path() string { return d.path }

// Get consults the sidecar and treats an exceeded expiry as a miss,
// deleting the stale entry (§4.4). An entry with no sidecar is not a
// miss: it never expires and is returned as a hit. remainingTTL is 0
// when the entry has no sidecar, otherwise the time left before its
// absolute expiry.
func (d *Disk) Get(ctx context.Context, key string) ([]byte, bool, time.Duration, error) {
	if isSidecarKey(key) {
		return nil, false, 0, nil
	}

	var value []byte
	err := d.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, 0, nil
	}
	if err != nil {
		return nil, false, 0, fmt.Errorf("disktier: get: %w", err)
	}

	expiresAt, hasSidecar, err := d.sidecarExpiry(ctx, key)
	if err != nil {
		return nil, false, 0, err
	}
	if !hasSidecar {
		return value, true, 0, nil
	}

	nowSeconds := float64(d.clock.Now()) / 1e9
	if nowSeconds >= expiresAt {
		_, _ = d.Delete(ctx, key)
		return nil, false, 0, nil
	}

	remaining := time.Duration((expiresAt - nowSeconds) * float64(time.Second))
	return value, true, remaining, nil
}

// sidecarExpiry reports key's absolute expiry in epoch seconds and
// whether it has a sidecar at all (no sidecar means "never expires").
func (d *Disk) sidecarExpiry(ctx context.Context, key string) (expiresAt float64, hasSidecar bool, err error) {
	var raw []byte
	err = d.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, sidecarKey(key)).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("disktier: sidecar lookup: %w", err)
	}
	expiresAt, err = strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false, fmt.Errorf("disktier: malformed sidecar for %s: %w", key, err)
	}
	return expiresAt, true, nil
}

// Set writes value and, when a TTL applies, its sidecar, atomically
// under the tier's writer lock.
func (d *Disk) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	effectiveTTL := ttl
	if effectiveTTL == 0 {
		effectiveTTL = d.defaultTTL
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("disktier: set: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO entries(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return false, fmt.Errorf("disktier: set: %w", err)
	}

	if effectiveTTL > 0 {
		expiresAt := float64(d.clock.Now())/1e9 + effectiveTTL.Seconds()
		sidecarValue := strconv.FormatFloat(expiresAt, 'f', -1, 64)
		if _, err := tx.ExecContext(ctx, `INSERT INTO entries(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, sidecarKey(key), sidecarValue); err != nil {
			return false, fmt.Errorf("disktier: set sidecar: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, sidecarKey(key)); err != nil {
		return false, fmt.Errorf("disktier: set: clear sidecar: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("disktier: set: commit: %w", err)
	}
	return true, nil
}

func (d *Disk) Delete(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.ExecContext(ctx, `DELETE FROM entries WHERE key IN (?, ?)`, key, sidecarKey(key))
	if err != nil {
		return false, fmt.Errorf("disktier: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("disktier: delete: %w", err)
	}
	return n > 0, nil
}

func (d *Disk) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, found, _, err := d.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if found {
			out[k] = v
		}
	}
	return out, nil
}

// SetMany applies every entry in a single transaction: either all
// succeed, or the caller sees false and may retry the whole batch
// (§4.5).
func (d *Disk) SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	effectiveTTL := ttl
	if effectiveTTL == 0 {
		effectiveTTL = d.defaultTTL
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("disktier: set_many: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `INSERT INTO entries(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return false, fmt.Errorf("disktier: set_many: %w", err)
		}
		if effectiveTTL > 0 {
			expiresAt := float64(d.clock.Now())/1e9 + effectiveTTL.Seconds()
			sidecarValue := strconv.FormatFloat(expiresAt, 'f', -1, 64)
			if _, err := tx.ExecContext(ctx, `INSERT INTO entries(key, value) VALUES(?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value`, sidecarKey(key), sidecarValue); err != nil {
				return false, fmt.Errorf("disktier: set_many: sidecar: %w", err)
			}
		} else if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, sidecarKey(key)); err != nil {
			return false, fmt.Errorf("disktier: set_many: clear sidecar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("disktier: set_many: commit: %w", err)
	}
	return true, nil
}

// Clear removes every entry. Namespace isolation (§4.4) is achieved by
// construction: each namespace owns its own file, so clearing this
// tier's table never touches another namespace's entries (see S7/§8.8).
func (d *Disk) Clear(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.db.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return false, fmt.Errorf("disktier: clear: %w", err)
	}
	return true, nil
}

func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

func sidecarKey(key string) string { return key + sidecarSuffix }

func isSidecarKey(key string) bool { return strings.HasSuffix(key, sidecarSuffix) }
