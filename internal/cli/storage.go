package cli

import (
	"context"

	"github.com/UkralStul/threaducate/internal/config"
	"github.com/UkralStul/threaducate/internal/seed"
	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/UkralStul/threaducate/internal/storage/inmemory"
	"github.com/UkralStul/threaducate/internal/storage/local"
	"github.com/UkralStul/threaducate/internal/storage/postgres"

	"go.uber.org/zap"
)

// openStorage открывает выбранное хранилище. При autoSeed in-memory хранилище
// всегда заполняется демо-данными, остальные только при seed: true.
func (a *app) openStorage(ctx context.Context, autoSeed bool) (storage.Storage, error) {
	var (
		store storage.Storage
		err   error
	)

	a.log.Info("opening storage", zap.String("type", a.cfg.Storage.Type))
	switch a.cfg.Storage.Type {
	case config.StoragePostgres:
		store, err = postgres.New(a.cfg.Database.URL, postgres.Options{
			MaxConnections: a.cfg.Database.MaxConnections,
			Debug:          a.debug,
		}, a.log)
	case config.StorageLocal:
		store, err = local.New(a.cfg.Storage.DataFile)
	default:
		store = inmemory.New()
	}
	if err != nil {
		return nil, err
	}

	if autoSeed && (a.cfg.Seed || a.cfg.Storage.Type == config.StorageInMemory) {
		if _, err := seed.Fill(ctx, store, a.log); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}
