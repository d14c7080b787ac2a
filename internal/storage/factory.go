package storage

import (
	"context"
	"fmt"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
)

// New opens the backend named by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, logger internal.Logger) (DocumentStore, error) {
	switch cfg.StorageBackend {
	case "memory":
		return NewMemoryStorage(), nil
	case "file":
		return NewFileStorage(cfg.DataDir, logger)
	case "sqlite":
		return NewSQLiteStorage(cfg.SQLitePath, logger)
	case "postgres":
		return NewPostgresStorage(ctx, cfg.PostgresDSN, logger)
	case "mongo":
		return NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
