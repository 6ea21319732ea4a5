package disktier

import (
	"fmt"
	"path/filepath"
	"syscall"
)

// UsageFraction reports the fraction of the filesystem holding this
// tier's file that is currently used, for driving Sweep's aggressive
// mode from a caller's maintenance loop. No dependency in the retrieval
// pack wraps disk-space statistics, and the stdlib's syscall.Statfs is
// the standard way to get them on the platforms SQLite-backed caches
// actually run on, so this is implemented directly against it rather
// than through a third-party library.
func (d *Disk) UsageFraction() (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(filepath.Dir(d.path), &stat); err != nil {
		return 0, fmt.Errorf("disktier: statfs: %w", err)
	}
	if stat.Blocks == 0 {
		return 0, nil
	}
	used := stat.Blocks - stat.Bfree
	return float64(used) / float64(stat.Blocks), nil
}
