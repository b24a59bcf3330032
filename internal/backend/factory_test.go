package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"finboard/internal/config"
	"finboard/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", DataDir: "/srv/data"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.DataDirectory != "/srv/data" {
		t.Fatalf("unexpected backend config: %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestCreateSQLiteStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFactory(nil).CreateStore(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "finboard.db"),
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	costs, err := store.ListCosts(ctx, core.RecordQuery{})
	if err != nil || len(costs) != 0 {
		t.Fatalf("fresh database should be empty: %v %v", costs, err)
	}
}

func TestCreateMemoryStore(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"amount":"12.50","category":"software","date":"2025-01-03"},{"amount":3,"category":"snacks"}]`
	if err := os.WriteFile(filepath.Join(dir, "costs.json"), []byte(raw), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	costs, err := store.ListCosts(context.Background(), core.RecordQuery{})
	if err != nil || len(costs) != 2 {
		t.Fatalf("expected 2 seeded costs, got %d (%v)", len(costs), err)
	}
	if costs[1].Category != core.CategoryOther {
		t.Fatalf("unknown category should be bucketed as other, got %s", costs[1].Category)
	}
}

func TestCreateStoreRejectsInvalidConfig(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatalf("expected error for missing database path")
	}
}
