package profile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nerrad567/topiclab/internal/infrastructure/config"
	"github.com/nerrad567/topiclab/internal/infrastructure/database"
)

// Store loads and saves AppData.
type Store interface {
	// Load returns the saved data, or an empty AppData if nothing is saved.
	Load(ctx context.Context) (AppData, error)

	// Save replaces the saved data.
	Save(ctx context.Context, data AppData) error

	// Delete removes all saved data.
	Delete(ctx context.Context) error

	Close() error
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		s, err := OpenSQLite(ctx, database.Config{
			Path:        cfg.SQLite.Path,
			WALMode:     cfg.SQLite.WALMode,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageJSON, "":
		s, err := NewJSONStore(filepath.Clean(cfg.DataDir))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("profile: unknown storage backend %q", cfg.Backend)
	}
}
