package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-builder/internal/repository"
	"github.com/noah-isme/timetable-builder/pkg/cache"
	"github.com/noah-isme/timetable-builder/pkg/config"
	"github.com/noah-isme/timetable-builder/pkg/database"
	"github.com/noah-isme/timetable-builder/pkg/storage"
)

// openMedium builds the storage medium selected by STORAGE_DRIVER. The
// returned closer releases any connection it opened.
func openMedium(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.Medium, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Driver {
	case "", config.StorageDriverFile:
		local, err := storage.NewLocalStorage(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		logr.Info("using file storage", zap.String("dir", cfg.Storage.Dir))
		return local, noop, nil
	case config.StorageDriverMemory:
		logr.Warn("using in-memory storage; data is lost on exit")
		return repository.NewMemoryMedium(), noop, nil
	case config.StorageDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		medium := repository.NewRedisMedium(client, "timetable:", logr)
		logr.Info("using redis storage", zap.String("host", cfg.Redis.Host), zap.Int("db", cfg.Redis.DB))
		return medium, medium.Close, nil
	case config.StorageDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		medium := repository.NewPostgresMedium(db)
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := medium.EnsureSchema(schemaCtx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logr.Info("using postgres storage", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
		return medium, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
