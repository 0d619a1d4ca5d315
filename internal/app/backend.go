package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres"
	"github.com/heartmarshall/salesdesk-backend/internal/adapter/postgres/document"
	"github.com/heartmarshall/salesdesk-backend/internal/adapter/redisstore"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore/memstore"
	"github.com/heartmarshall/salesdesk-backend/internal/transport/rest"
)

// Backend is the selected document store together with its lifecycle hooks.
type Backend struct {
	Store docstore.Store
	// Listen relays changes made by other processes; nil when the store is
	// process-local.
	Listen func(ctx context.Context) error
	// Health lists the pingable dependencies of the store.
	Health map[string]rest.Pinger
	Close  func()
}

// OpenBackend connects the store backend named by cfg.Store.Backend. For
// postgres it also applies pending migrations when auto_migrate is set.
func OpenBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Backend, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		repo := document.New(pool, log, document.WithFetchTimeout(cfg.Store.FetchTimeout))
		return &Backend{
			Store:  repo,
			Listen: func(ctx context.Context) error { return repo.Listen(ctx, pool) },
			Health: map[string]rest.Pinger{"database": pool},
			Close: func() {
				repo.Close()
				pool.Close()
			},
		}, nil

	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		store := redisstore.New(client, cfg.Redis.Prefix, log, redisstore.WithFetchTimeout(cfg.Store.FetchTimeout))
		return &Backend{
			Store:  store,
			Listen: store.Listen,
			Health: map[string]rest.Pinger{"redis": store},
			Close: func() {
				store.Close()
				client.Close() //nolint:errcheck
			},
		}, nil

	case config.BackendMemory:
		store := memstore.New(log)
		return &Backend{
			Store:  store,
			Health: map[string]rest.Pinger{},
			Close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
