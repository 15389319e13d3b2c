// Package backend opens the snapshot store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-ledger/internal/config"
	"github.com/example/room-ledger/internal/persistence"
	"github.com/example/room-ledger/internal/persistence/jsonfile"
	"github.com/example/room-ledger/internal/persistence/redis"
	"github.com/example/room-ledger/internal/persistence/sqlite"
)

// Store is an opened snapshot store together with its release function.
type Store struct {
	persistence.SnapshotStore
	Kind  string
	close func() error
}

// Close releases connections held by the store.
func (s *Store) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks that the underlying store is reachable. Stores without a
// connection always report ready.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.SnapshotStore.(pinger); ok {
		return p.Ping(ctx)
	}
	return ctx.Err()
}

// Open connects to the store named by cfg.Store. SQLite databases are migrated
// before use.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("store", cfg.Store))

	switch cfg.Store {
	case config.StoreJSON, "":
		store := jsonfile.New(cfg.StorePath)
		logger.DebugContext(ctx, "using json file store", slog.String("path", store.Path()))
		return &Store{SnapshotStore: store, Kind: config.StoreJSON}, nil

	case config.StoreSQLite:
		storage, err := sqlite.Open(ctx, cfg.SQLiteDSN, sqlite.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("backend: %w", err)
		}
		logger.DebugContext(ctx, "using sqlite store", slog.String("dsn", cfg.SQLiteDSN))
		return &Store{SnapshotStore: storage, Kind: config.StoreSQLite, close: storage.Close}, nil

	case config.StoreRedis:
		store, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, fmt.Errorf("backend: %w", err)
		}
		logger.DebugContext(ctx, "using redis store", slog.String("addr", cfg.RedisAddr), slog.String("key", store.Key()))
		return &Store{SnapshotStore: store, Kind: config.StoreRedis, close: store.Close}, nil
	}
	return nil, fmt.Errorf("backend: unknown store %q", cfg.Store)
}
