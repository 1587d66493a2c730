package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// DefaultWorkers bounds the concurrent loads when none is configured
const DefaultWorkers = 4

// Loader reads the four collections of a Store concurrently
type Loader struct {
	store   domain.Store
	workers int
	logger  *zap.Logger
}

// NewLoader creates a new Loader with at most workers concurrent loads
func NewLoader(store domain.Store, workers int, logger *zap.Logger) *Loader {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		store:   store,
		workers: workers,
		logger:  logger,
	}
}

// Load fetches every collection. The first failure cancels the other loads.
// Every loaded entity is validated before the dataset is returned.
func (l *Loader) Load(ctx context.Context) (domain.Dataset, error) {
	var data domain.Dataset
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	// Each goroutine writes a distinct field
	g.Go(func() (err error) {
		data.Investors, err = l.store.LoadInvestors(ctx)
		return wrap("investors", err)
	})
	g.Go(func() (err error) {
		data.Tranches, err = l.store.LoadTranches(ctx)
		return wrap("tranches", err)
	})
	g.Go(func() (err error) {
		data.Transactions, err = l.store.LoadTransactions(ctx)
		return wrap("transactions", err)
	})
	g.Go(func() (err error) {
		data.FeeRecords, err = l.store.LoadFeeRecords(ctx)
		return wrap("fee records", err)
	})

	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}
	if err := validate(data); err != nil {
		return domain.Dataset{}, err
	}

	l.logger.Info("fund data loaded",
		zap.Int("investors", len(data.Investors)),
		zap.Int("tranches", len(data.Tranches)),
		zap.Int("transactions", len(data.Transactions)),
		zap.Int("fee_records", len(data.FeeRecords)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

func wrap(collection string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", collection, err)
}

// validate rejects persisted data that breaks the entity rules
func validate(data domain.Dataset) error {
	for i := range data.Investors {
		if err := data.Investors[i].Validate(); err != nil {
			return fmt.Errorf("investor %s: %w", data.Investors[i].ID, err)
		}
	}
	for i := range data.Tranches {
		if err := data.Tranches[i].Validate(); err != nil {
			return fmt.Errorf("tranche %s: %w", data.Tranches[i].ID, err)
		}
	}
	for i := range data.Transactions {
		if err := data.Transactions[i].Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", data.Transactions[i].ID, err)
		}
	}
	return nil
}
