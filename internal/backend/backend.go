// Package backend opens the configured store and group locker.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"koerperwerte/internal/adapter/memory"
	"koerperwerte/internal/adapter/postgres"
	"koerperwerte/internal/adapter/redislock"
	"koerperwerte/internal/adapter/sqlite"
	"koerperwerte/internal/config"
	"koerperwerte/internal/domain"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend bundles the repositories and locker for one configuration.
type Backend struct {
	Driver       string
	Measurements domain.MeasurementRepository
	Users        domain.UserRepository
	Sessions     domain.SessionRepository
	Locker       domain.GroupLocker

	// Store is pinged by readiness checks.
	Store Pinger
	// Redis is nil when the in-process locker is used.
	Redis Pinger

	closers []func() error
}

// Open connects the store selected by cfg.StoreDriver and, when REDIS_URL is
// set, the distributed group locker.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.StoreDriver}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		b.Measurements, b.Users, b.Sessions, b.Store = db, db, postgres.NewSessionRepo(db), db
		b.closers = append(b.closers, db.Close)
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.Measurements, b.Users, b.Sessions, b.Store = store, store, sqlite.NewSessionRepo(store), store
		b.closers = append(b.closers, store.Close)
	case config.DriverMemory:
		db := memory.New()
		b.Measurements, b.Users, b.Sessions, b.Store = db, db, db.NewSessionRepo(), db
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	logger.Info("store opened", "driver", cfg.StoreDriver)

	if cfg.RedisURL != "" {
		locker, err := redislock.New(ctx, cfg.RedisURL, cfg.GroupLockTTL)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.Locker, b.Redis = locker, locker
		b.closers = append(b.closers, locker.Close)
		logger.Info("using redis group locker", "ttl", cfg.GroupLockTTL)
	} else {
		b.Locker = memory.NewLocker()
	}

	return b, nil
}

// Close releases every opened connection, last opened first.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
