package disktier

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// RetentionReport summarizes one sweep pass.
type RetentionReport struct {
	Scanned int
	Expired int
	Evicted int // entries removed purely to relieve disk pressure, not TTL
	Mode    string
}

type sidecarEntry struct {
	baseKey   string
	expiresAt float64
}

// Sweep removes entries whose expiry falls outside the retention
// horizon (normal mode, §4.4's standard path: expires_at < now -
// retention_days·24·3600 — an entry that merely expired is not removed
// until it has also aged past the retention window). When usageFraction
// meets or exceeds the tier's critical threshold, it escalates to
// aggressive mode: entries are ordered oldest-sidecar-first and removed
// — at least ceil(size·fraction) or 10, whichever is larger — even if
// not yet past the horizon, to bring usage back under the threshold
// quickly.
func (d *Disk) Sweep(ctx context.Context, usageFraction float64) (RetentionReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	report := RetentionReport{Mode: "normal"}

	rows, err := d.db.QueryContext(ctx, `SELECT key, value FROM entries WHERE key LIKE '%'||?`, sidecarSuffix)
	if err != nil {
		return report, fmt.Errorf("disktier: sweep: scan sidecars: %w", err)
	}

	var sidecars []sidecarEntry
	for rows.Next() {
		var sidecarKeyVal string
		var raw []byte
		if err := rows.Scan(&sidecarKeyVal, &raw); err != nil {
			_ = rows.Close()
			return report, fmt.Errorf("disktier: sweep: scan row: %w", err)
		}
		expiresAt, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			continue // malformed sidecar; leave it for a future sweep rather than fail the pass
		}
		baseKey := strings.TrimSuffix(sidecarKeyVal, sidecarSuffix)
		sidecars = append(sidecars, sidecarEntry{baseKey: baseKey, expiresAt: expiresAt})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return report, fmt.Errorf("disktier: sweep: iterate: %w", err)
	}
	_ = rows.Close()

	report.Scanned = len(sidecars)
	nowSeconds := float64(d.clock.Now()) / 1e9
	retentionHorizon := float64(d.cfg.RetentionDays) * 24 * 3600
	cutoff := nowSeconds - retentionHorizon

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("disktier: sweep: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var survivors []sidecarEntry
	for _, s := range sidecars {
		if s.expiresAt < cutoff {
			if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key IN (?, ?)`, s.baseKey, sidecarKey(s.baseKey)); err != nil {
				return report, fmt.Errorf("disktier: sweep: delete expired: %w", err)
			}
			report.Expired++
			continue
		}
		survivors = append(survivors, s)
	}

	if d.cfg.CriticalThreshold > 0 && usageFraction >= d.cfg.CriticalThreshold {
		report.Mode = "aggressive"
		sort.Slice(survivors, func(i, j int) bool { return survivors[i].expiresAt < survivors[j].expiresAt })
		target := int(math.Ceil(float64(len(survivors)) * d.cfg.AggressiveFraction))
		if target < 10 {
			target = 10
		}
		for i := 0; i < target && i < len(survivors); i++ {
			s := survivors[i]
			if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key IN (?, ?)`, s.baseKey, sidecarKey(s.baseKey)); err != nil {
				return report, fmt.Errorf("disktier: sweep: evict aggressive: %w", err)
			}
			report.Evicted++
		}
	}

	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("disktier: sweep: commit: %w", err)
	}

	d.log.Info("disktier: retention sweep complete",
		"mode", report.Mode, "scanned", report.Scanned, "expired", report.Expired, "evicted", report.Evicted)

	return report, nil
}
