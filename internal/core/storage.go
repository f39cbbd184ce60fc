package core

import (
	"fmt"
	"os"

	"rostercore/internal/infra/persistence/memory"
	"rostercore/internal/infra/persistence/postgres"
	"rostercore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and parameterizes a storage backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageConfigFromEnv reads the backend selection from environment
// variables. Defaults to sqlite when unset.
//
//	ROSTERCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ROSTERCORE_SQLITE_PATH: path to sqlite file (default ./rostercore.db)
//	ROSTERCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv() StorageConfig {
	return StorageConfig{
		Driver:      StorageDriver(os.Getenv("ROSTERCORE_STORAGE_DRIVER")),
		SQLitePath:  os.Getenv("ROSTERCORE_SQLITE_PATH"),
		PostgresDSN: os.Getenv("ROSTERCORE_POSTGRES_DSN"),
	}
}

// OpenStore opens the backend described by the config.
func OpenStore(cfg StorageConfig, engine *RulesEngine) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// OpenPersistentStore selects a backend using environment variables.
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	return OpenStore(StorageConfigFromEnv(), engine)
}
