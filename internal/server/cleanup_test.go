package server

import (
	"os"
	"testing"
	"time"
)

func TestLoadCleanupConfig_Defaults(t *testing.T) {
	t.Setenv("CLEANUP_ENABLED", "")
	t.Setenv("CLEANUP_INTERVAL", "")
	t.Setenv("SESSION_MAX_AGE", "")

	cfg := LoadCleanupConfig()
	if cfg.Enabled {
		t.Error("Cleanup must be disabled by default")
	}
	if cfg.Interval != time.Hour {
		t.Errorf("Expected 1h default interval, got %s", cfg.Interval)
	}
	if cfg.MaxAge != 24*time.Hour {
		t.Errorf("Expected 24h default max age, got %s", cfg.MaxAge)
	}
}

func TestLoadCleanupConfig_FromEnv(t *testing.T) {
	t.Setenv("CLEANUP_ENABLED", "true")
	t.Setenv("CLEANUP_INTERVAL", "10m")
	t.Setenv("SESSION_MAX_AGE", "2h")

	cfg := LoadCleanupConfig()
	if !cfg.Enabled || cfg.Interval != 10*time.Minute || cfg.MaxAge != 2*time.Hour {
		t.Errorf("Unexpected config: %+v", cfg)
	}
}

func TestRunCleanup_RemovesOnlyAgedSessions(t *testing.T) {
	store := NewSessionStore(t.TempDir())

	old, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fresh, err := store.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	store.mu.Lock()
	sess := store.sessions[old.ID]
	sess.CreatedAt = time.Now().Add(-2 * time.Hour)
	store.sessions[old.ID] = sess
	store.mu.Unlock()

	runCleanup(store, time.Hour)

	if _, ok := store.Lookup(old.ID); ok {
		t.Error("Aged session should have been removed")
	}
	if _, err := os.Stat(old.Dir); !os.IsNotExist(err) {
		t.Errorf("Aged session directory should be deleted, stat err: %v", err)
	}

	if _, ok := store.Lookup(fresh.ID); !ok {
		t.Error("Fresh session should survive the sweep")
	}
	if _, err := os.Stat(fresh.Dir); err != nil {
		t.Errorf("Fresh session directory should remain: %v", err)
	}
}

func TestRunCleanup_EmptyStore(t *testing.T) {
	store := NewSessionStore(t.TempDir())
	// Must not panic or remove anything.
	runCleanup(store, time.Hour)

	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d", store.Len())
	}
}
