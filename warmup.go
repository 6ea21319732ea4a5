// warmup.go: the warmup loader (§4.9) — seeds entries from an external
// list at startup via set_many. Uses argus's multi-format config
// watcher as a one-shot reader (JSON/YAML/TOML/HCL/INI/Properties),
// the same API the teacher's hot-reload.go drives continuously; here it
// fires once and is stopped immediately, since config *acquisition* at
// startup (not ongoing file watching) is what's in scope.
package stratacache

import (
	"context"
	"fmt"
	"time"

	"github.com/agilira/argus"
)

// loadWarmupEntries reads the warmup keys file at path and returns its
// entries as key -> raw decoded value (any type the value pipeline's
// typed binary format can encode). Errors reading or parsing the file
// are returned to the caller, who — per §4.9 — logs and never treats
// them as fatal.
func loadWarmupEntries(path string) (map[string]interface{}, error) {
	result := make(chan map[string]interface{}, 1)
	errCh := make(chan error, 1)

	watcher, err := argus.UniversalConfigWatcherWithConfig(path, func(data map[string]interface{}) {
		select {
		case result <- data:
		default:
		}
	}, argus.Config{PollInterval: 50 * time.Millisecond})
	if err != nil {
		return nil, fmt.Errorf("warmup: open %s: %w", path, err)
	}
	defer func() { _ = watcher.Stop() }()

	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("warmup: start watcher for %s: %w", path, err)
	}

	select {
	case data := <-result:
		return data, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(2 * time.Second):
		return nil, fmt.Errorf("warmup: timed out reading %s", path)
	}
}

// runWarmup loads Config.WarmupKeysFile and seeds the engine via
// set_many with the configured default TTL. Called once from New when
// EnableWarmup is true. Every failure is logged, never returned, per
// §4.9: "errors during warmup are logged and never fatal."
func runWarmup(ctx context.Context, e *Engine) {
	entries, err := loadWarmupEntries(e.cfg.WarmupKeysFile)
	if err != nil {
		e.cfg.Logger.Warn("warmup load failed", "file", e.cfg.WarmupKeysFile, "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}
	if err := e.SetMany(ctx, entries, e.cfg.CacheTTL); err != nil {
		e.cfg.Logger.Warn("warmup set_many failed", "file", e.cfg.WarmupKeysFile, "error", err)
	} else {
		e.cfg.Logger.Info("warmup complete", "file", e.cfg.WarmupKeysFile, "count", len(entries))
	}
}
