package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/simaogato/fundledger-backend/internal/adapter/repository/jsonl"
	"github.com/simaogato/fundledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fundledger-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fundledger-backend/internal/config"
	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/loader"
	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
	"github.com/simaogato/fundledger-backend/internal/usecase/seeder"
)

// Store is a resolved persistence backend
type Store struct {
	domain.Store
	Backend string
	close   func() error
}

// Close releases the backend's resources
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the configured backend. When it cannot be opened and a
// different fallback is configured, the fallback is used instead.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	store, err := openBackend(ctx, cfg, cfg.Storage.Backend)
	if err == nil {
		return store, nil
	}

	fallback := cfg.Storage.Fallback
	if fallback == "" || fallback == cfg.Storage.Backend {
		return nil, err
	}
	logger.Warn("storage backend unavailable, using fallback",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("fallback", fallback),
		zap.Error(err),
	)

	store, ferr := openBackend(ctx, cfg, fallback)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return store, nil
}

func openBackend(ctx context.Context, cfg *config.Config, backend string) (*Store, error) {
	switch backend {
	case config.BackendPostgres:
		if cfg.Database.ConnTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Database.ConnTimeout)
			defer cancel()
		}
		db, err := postgres.NewDB(ctx, cfg.DatabaseConnString())
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Store{Store: postgres.NewStore(db), Backend: backend, close: db.Close}, nil

	case config.BackendJSONL:
		s, err := jsonl.NewStore(cfg.Storage.JSONLPath)
		if err != nil {
			return nil, err
		}
		return &Store{Store: s, Backend: backend}, nil

	case config.BackendMemory:
		return &Store{Store: memory.NewStore(domain.Dataset{}), Backend: backend}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

// Fund is a processor over a loaded store, with the operator seeded
type Fund struct {
	*processor.Processor
	Store *Store
}

// Open resolves the store, loads it concurrently, builds the processor and
// seeds the fund operator
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...processor.Option) (*Fund, error) {
	pcfg, err := cfg.Processor()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	data, err := loader.NewLoader(store, cfg.Storage.LoaderWorkers, logger.Named("loader")).Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	p := processor.New(pcfg, store, data, logger.Named("processor"), opts...)

	created, err := seeder.NewOperatorSeeder(p, cfg.Fund.OperatorName).Seed(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed fund operator: %w", err)
	}
	if created {
		logger.Info("fund operator created", zap.String("name", cfg.Fund.OperatorName))
	}

	logger.Info("fund opened",
		zap.String("backend", store.Backend),
		zap.Int("investors", len(data.Investors)),
		zap.Int("transactions", len(data.Transactions)),
	)
	return &Fund{Processor: p, Store: store}, nil
}

// Close flushes unsaved state and releases the store
func (f *Fund) Close(ctx context.Context) error {
	return errors.Join(f.Flush(ctx), f.Store.Close())
}
