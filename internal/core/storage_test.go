package core

import (
	"os"
	"path/filepath"
	"testing"

	"rostercore/internal/infra/persistence/memory"
	"rostercore/internal/infra/persistence/sqlite"
)

func TestStorageConfigFromEnv(t *testing.T) {
	t.Setenv("ROSTERCORE_STORAGE_DRIVER", "postgres")
	t.Setenv("ROSTERCORE_SQLITE_PATH", "/tmp/roster.db")
	t.Setenv("ROSTERCORE_POSTGRES_DSN", "postgres://localhost/roster")

	cfg := StorageConfigFromEnv()
	if cfg.Driver != StoragePostgres {
		t.Fatalf("expected postgres driver, got %s", cfg.Driver)
	}
	if cfg.SQLitePath != "/tmp/roster.db" {
		t.Fatalf("unexpected sqlite path %s", cfg.SQLitePath)
	}
	if cfg.PostgresDSN != "postgres://localhost/roster" {
		t.Fatalf("unexpected dsn %s", cfg.PostgresDSN)
	}
}

func TestOpenStoreMemoryDriver(t *testing.T) {
	store, err := OpenStore(StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenStoreDefaultsToSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	store, err := OpenStore(StorageConfig{SQLitePath: path}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqliteStore, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer sqliteStore.Close()
	if sqliteStore.Path() != path {
		t.Fatalf("expected path %s, got %s", path, sqliteStore.Path())
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected sqlite file on disk: %v", err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := OpenStore(StorageConfig{Driver: "tape"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenPersistentStoreFromEnv(t *testing.T) {
	t.Setenv("ROSTERCORE_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open store from env: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}
