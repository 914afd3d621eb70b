// Package repository selects and constructs the configured session store
// together with the turn locker and rate limiter that go with it.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/ai-interviewer/internal/config"
	"github.com/Rrens/ai-interviewer/internal/domain"
	"github.com/Rrens/ai-interviewer/internal/repository/file"
	"github.com/Rrens/ai-interviewer/internal/repository/memory"
	"github.com/Rrens/ai-interviewer/internal/repository/mongo"
	"github.com/Rrens/ai-interviewer/internal/repository/postgres"
	"github.com/Rrens/ai-interviewer/internal/repository/redis"
	"github.com/Rrens/ai-interviewer/internal/repository/sqlstore"
)

// RateLimiter counts requests per key in one-minute windows
type RateLimiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
}

// Stores bundles everything the transport needs from the storage layer
type Stores struct {
	Sessions    domain.SessionStore
	Locker      domain.TurnLocker
	RateLimiter RateLimiter

	closers []func()
}

// Close releases every connection opened by Open, in reverse order
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open builds the stores for cfg.Storage.Backend. A Redis connection is
// opened when the backend is redis or redis.enabled is set, and then also
// backs the turn locker and rate limiter.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	stores := &Stores{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled || cfg.Storage.Backend == config.BackendRedis {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		redisClient = client
		stores.closers = append(stores.closers, func() { client.Close() })
	}

	sessions, err := openSessions(ctx, cfg, redisClient, stores)
	if err != nil {
		stores.Close()
		return nil, err
	}
	stores.Sessions = sessions

	if redisClient != nil {
		stores.Locker = redis.NewTurnLocker(redisClient, cfg.Redis.LockTTL)
		stores.RateLimiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	} else {
		stores.Locker = memory.NewTurnLocker()
		stores.RateLimiter = memory.NewRateLimiter(cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
	}

	log.Info().
		Str("backend", cfg.Storage.Backend).
		Bool("redis", redisClient != nil).
		Msg("Session storage ready")

	return stores, nil
}

func openSessions(ctx context.Context, cfg *config.Config, redisClient *redis.Client, stores *Stores) (domain.SessionStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewSessionRepository(), nil

	case config.BackendFile:
		return file.NewSessionRepository(cfg.Storage.FileDir)

	case config.BackendPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
				return nil, err
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, db.Close)
		return postgres.NewSessionRepository(db.Pool), nil

	case config.BackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis backend without a redis client")
		}
		return redis.NewSessionRepository(redisClient, cfg.Redis.SessionTTL), nil

	case config.BackendMongo:
		repo, err := mongo.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, func() { repo.Close(context.Background()) })
		return repo, nil

	case config.BackendSQLite:
		repo, err := sqlstore.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, func() { repo.Close() })
		return repo, nil

	case config.BackendMySQL:
		repo, err := sqlstore.OpenMySQL(ctx, cfg.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, func() { repo.Close() })
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}
