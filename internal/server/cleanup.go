package server

import (
	"context"
	"log"
	"os"
	"time"
)

// CleanupConfig holds configuration for the session sweeper. Disabled by
// default: sessions accumulating for the process lifetime is the accepted
// baseline, the sweeper is the opt-in cleanup hook.
type CleanupConfig struct {
	Enabled  bool
	Interval time.Duration
	MaxAge   time.Duration
}

// LoadCleanupConfig reads CLEANUP_* and SESSION_MAX_AGE from the environment.
func LoadCleanupConfig() CleanupConfig {
	enabled := os.Getenv("CLEANUP_ENABLED") == "true"

	interval := 1 * time.Hour
	if v := os.Getenv("CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		}
	}

	maxAge := 24 * time.Hour
	if v := os.Getenv("SESSION_MAX_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			maxAge = d
		}
	}

	return CleanupConfig{Enabled: enabled, Interval: interval, MaxAge: maxAge}
}

// StartCleanupJob periodically removes sessions older than MaxAge, both the
// mapping entry and the on-disk directory. Blocks until ctx is cancelled;
// run it in its own goroutine.
func StartCleanupJob(ctx context.Context, store *SessionStore, cfg CleanupConfig) {
	if !cfg.Enabled {
		log.Printf("service=cleanup msg=%q", "disabled")
		return
	}

	log.Printf("service=cleanup msg=%q interval=%s max_age=%s", "starting", cfg.Interval, cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	runCleanup(store, cfg.MaxAge)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=cleanup msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runCleanup(store, cfg.MaxAge)
		}
	}
}

func runCleanup(store *SessionStore, maxAge time.Duration) {
	start := time.Now()
	cutoff := start.Add(-maxAge)

	removed := 0
	for _, id := range store.olderThan(cutoff) {
		if err := store.Remove(id); err != nil {
			log.Printf("service=cleanup msg=%q session=%s err=%v", "remove_failed", id, err)
			continue
		}
		removed++
	}

	log.Printf("service=cleanup msg=%q removed=%d remaining=%d duration_ms=%d",
		"sweep_complete", removed, store.Len(), time.Since(start).Milliseconds())
}
