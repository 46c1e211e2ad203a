// Package bootstrap builds the process-wide dependencies shared by the API
// server and the worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jwalitptl/showcase-api/internal/config"
	"github.com/jwalitptl/showcase-api/internal/repository"
	"github.com/jwalitptl/showcase-api/internal/repository/memory"
	"github.com/jwalitptl/showcase-api/internal/repository/postgres"
	"github.com/jwalitptl/showcase-api/pkg/logger"
	"github.com/jwalitptl/showcase-api/pkg/messaging"
	"github.com/jwalitptl/showcase-api/pkg/messaging/redis"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

// Pinger is implemented by dependencies that report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpenStore connects the configured storage driver, applying migrations to
// Postgres when auto_migrate is set.
func OpenStore(cfg *config.Config, log *logger.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	case config.StorageDriverPostgres:
		db, err := postgres.NewDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				db.Close()
				return nil, err
			}
			log.Info("Database migrations applied")
		}
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewBroker connects to Redis, or falls back to an in-process broker when no
// Redis URL is configured. The returned Pinger is nil for the fallback.
func NewBroker(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (messaging.Broker, Pinger, error) {
	if cfg.Redis.URL == "" {
		log.Warn("No Redis URL configured; notification events stay in-process")
		return messaging.NewMemoryBroker(), nil, nil
	}

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), m, *log.Zerolog())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return broker, broker, nil
}
