package disktier

import (
	"context"
	"database/sql"
	"fmt"
	"os"
)

// Compact rewrites the tier's file into a fresh database holding a copy
// of every row (expired rows are removed by Sweep, not here), then swaps
// it into place with os.Rename (§4.4's Open
// Question (b): a crash mid-compaction must never leave readers without
// a usable file). The original file is left untouched until the new one
// is fully built and closed, so a failure at any point before the
// rename keeps the tier exactly as it was.
func (d *Disk) Compact(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tmpPath := d.path + ".compact"
	_ = os.Remove(tmpPath) // best-effort cleanup of a stale temp file from a prior crash

	tmpDB, err := sql.Open("sqlite3", tmpPath)
	if err != nil {
		return fmt.Errorf("disktier: compact: open temp: %w", err)
	}
	closeTmp := func() {
		_ = tmpDB.Close()
	}

	if _, err := tmpDB.ExecContext(ctx, `CREATE TABLE entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		closeTmp()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disktier: compact: create schema: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM entries`)
	if err != nil {
		closeTmp()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disktier: compact: read source: %w", err)
	}

	tx, err := tmpDB.BeginTx(ctx, nil)
	if err != nil {
		_ = rows.Close()
		closeTmp()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disktier: compact: begin: %w", err)
	}

	copyErr := func() error {
		for rows.Next() {
			var key string
			var value []byte
			if err := rows.Scan(&key, &value); err != nil {
				return fmt.Errorf("disktier: compact: scan: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO entries(key, value) VALUES(?, ?)`, key, value); err != nil {
				return fmt.Errorf("disktier: compact: insert: %w", err)
			}
		}
		return rows.Err()
	}()
	_ = rows.Close()
	if copyErr != nil {
		_ = tx.Rollback()
		closeTmp()
		_ = os.Remove(tmpPath)
		return copyErr
	}

	if err := tx.Commit(); err != nil {
		closeTmp()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disktier: compact: commit: %w", err)
	}
	closeTmp()

	if err := d.db.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("disktier: compact: close source: %w", err)
	}

	if err := os.Rename(tmpPath, d.path); err != nil {
		// The source handle is already closed; reopen it so the tier
		// remains usable even though compaction failed.
		if reopenErr := d.reopen(); reopenErr != nil {
			return fmt.Errorf("disktier: compact: rename failed (%v) and reopen failed: %w", err, reopenErr)
		}
		return fmt.Errorf("disktier: compact: rename: %w", err)
	}

	return d.reopen()
}

func (d *Disk) reopen() error {
	db, err := sql.Open("sqlite3", d.path)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	d.db = db
	return nil
}
