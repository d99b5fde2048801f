package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookcart/internal/catalog"
	"github.com/vladislavdragonenkov/bookcart/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/bookcart/internal/health"
	"github.com/vladislavdragonenkov/bookcart/internal/service/payment"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/memory"
	"github.com/vladislavdragonenkov/bookcart/internal/storage/postgres"
)

// runtimeDependencies — собранные адаптеры, от которых зависит приложение.
type runtimeDependencies struct {
	store          domain.PersistentStore
	catalog        domain.BookCatalog
	gateway        domain.PaymentGateway
	storageChecker healthcheck.Checker
	closeFn        func() error
}

// initRuntimeDependencies создаёт хранилище, каталог и платёжный шлюз по конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &runtimeDependencies{}
	if err := initStorage(ctx, cfg, logger, deps); err != nil {
		return nil, err
	}
	deps.catalog = initCatalog(cfg, logger)
	deps.gateway = initGateway(cfg, logger)
	return deps, nil
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry, deps *runtimeDependencies) error {
	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		store := memory.NewStore()
		deps.store = store
		deps.storageChecker = healthcheck.StoreChecker(store)
		logger.Info("using in-memory storage")
		return nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return errors.New("postgres storage driver requires BOOKCART_POSTGRES_DSN")
		}
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		if cfg.PostgresAutoMigrate {
			if err := pg.MigrateUp(ctx, 0); err != nil {
				_ = pg.Close()
				return fmt.Errorf("apply postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		deps.store = postgres.NewKVStore(pg)
		deps.storageChecker = healthcheck.NewSimpleChecker("postgres", pg.Ping)
		deps.closeFn = pg.Close
		logger.Info("using postgres storage")
		return nil
	default:
		return fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initCatalog(cfg Config, logger *log.Entry) domain.BookCatalog {
	if cfg.CatalogURL == "" {
		logger.Info("catalog url is not set, using demo catalog")
		return memory.DemoCatalog()
	}
	logger.WithField("url", cfg.CatalogURL).Info("using remote catalog")
	return catalog.NewClient(cfg.CatalogURL,
		catalog.WithHTTPClient(catalog.NewHTTPClient(cfg.CatalogTimeout)),
		catalog.WithLogger(logger.WithField("layer", "catalog")),
	)
}

func initGateway(cfg Config, logger *log.Entry) domain.PaymentGateway {
	var breaker *payment.CircuitBreaker
	if cfg.BreakerFailures > 0 {
		breaker = payment.NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset, logger.WithField("layer", "payment-breaker"))
	}
	return payment.NewRetryingGateway(
		payment.NewSimulatedGateway(cfg.PaymentDelay),
		cfg.PaymentRetry,
		breaker,
		logger.WithField("layer", "payment"),
	)
}
