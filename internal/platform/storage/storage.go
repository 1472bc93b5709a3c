// Package storage builds the repository provider selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/platform/config"
	"github.com/SscSPs/school_finance_core/internal/repositories/academics/gormdb"
	"github.com/SscSPs/school_finance_core/internal/repositories/cache"
	"github.com/SscSPs/school_finance_core/internal/repositories/database/memory"
	"github.com/SscSPs/school_finance_core/internal/repositories/database/pgsql"
	"github.com/SscSPs/school_finance_core/pkg/database"
)

// Open returns the repositories for cfg.StorageDriver and a func releasing their resources.
// The postgres driver migrates the schema first when migrate is set.
func Open(ctx context.Context, cfg *config.Config, migrate bool) (portsrepo.RepositoryProvider, func(), error) {
	analyticsCache := cache.NewTaggedLRU(cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)

	switch cfg.StorageDriver {
	case config.StorageMemory:
		school := memory.NewSchool()
		school.SeedDemo()
		slog.Info("Using in-memory storage with demo school data")
		return memory.NewRepositoryProvider(memory.NewDB(), school, analyticsCache), func() {}, nil

	case config.StoragePostgres:
		if migrate {
			slog.Info("Running database migrations...")
			if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return portsrepo.RepositoryProvider{}, nil, err
			}
		}

		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}

		gormDB, err := database.NewGormDB(dbPool, !cfg.IsProduction)
		if err != nil {
			database.ClosePgxPool(dbPool)
			return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize academics reader: %w", err)
		}

		repos := pgsql.NewRepositoryProvider(dbPool, cfg.TxMaxRetries, cfg.TxRetryBaseDelay, gormdb.NewSchoolReader(gormDB), analyticsCache)
		return repos, func() { database.ClosePgxPool(dbPool) }, nil

	default:
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
