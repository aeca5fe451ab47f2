package version

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIsCacheValid(t *testing.T) {
	now := time.Now()
	entry := &CacheEntry{LatestVersion: "v0.4.0", CurrentVersion: "v0.3.0", CheckedAt: now, HasUpdate: true}

	if IsCacheValid(nil, "v0.3.0") {
		t.Error("nil entry reported valid")
	}
	if !IsCacheValid(entry, "v0.3.0") {
		t.Error("fresh entry reported invalid")
	}
	if IsCacheValid(entry, "v0.4.0") {
		t.Error("entry for another installed version reported valid")
	}

	stale := *entry
	stale.CheckedAt = now.Add(-cacheTTL - time.Minute)
	if IsCacheValid(&stale, "v0.3.0") {
		t.Error("expired entry reported valid")
	}
}

func TestSaveAndLoadCache(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	want := &CacheEntry{
		LatestVersion:  "v0.4.0",
		CurrentVersion: "v0.3.0",
		CheckedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		HasUpdate:      true,
	}
	if err := SaveCache(want); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "plansync", "version_cache.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}

	got, err := LoadCache()
	if err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got.LatestVersion != want.LatestVersion || got.CurrentVersion != want.CurrentVersion ||
		!got.CheckedAt.Equal(want.CheckedAt) || got.HasUpdate != want.HasUpdate {
		t.Errorf("LoadCache = %+v, want %+v", got, want)
	}
}

func TestLoadCacheErrors(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if _, err := LoadCache(); err == nil {
		t.Error("expected error for missing cache file")
	}

	dir := filepath.Join(home, ".config", "plansync")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "version_cache.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCache(); err == nil {
		t.Error("expected error for corrupt cache file")
	}
}
