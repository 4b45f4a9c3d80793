package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage/inmemory"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage/mongostore"
	"github.com/ahmetcoskunkizilkaya/socialgraph-backend/internal/storage/postgres"
	"gorm.io/gorm"
)

// openStore builds the backend named by STORAGE_DRIVER. The gorm handle is
// returned for the postgres driver only; it also backs the system log sink.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, *gorm.DB, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.New(db)
		schema := append(store.Models(), &models.SystemLog{})
		if err := database.MigrateModels(db, schema...); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		slog.Info("postgres storage ready", "models", len(schema))
		return store, db, nil

	case config.DriverMongo:
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		slog.Info("mongo storage ready", "database", cfg.MongoDatabase)
		return store, nil, nil

	default:
		slog.Warn("using in-memory storage; data is lost on restart")
		return inmemory.New(), nil, nil
	}
}
