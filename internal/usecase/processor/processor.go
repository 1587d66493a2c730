package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
	"github.com/simaogato/fundledger-backend/internal/usecase/pricing"
	"github.com/simaogato/fundledger-backend/internal/usecase/reversal"
)

// PersistPolicy decides what a command reports when the in-memory commit
// succeeded but the save that follows it did not
type PersistPolicy int

const (
	// PersistStrict returns the persistence error alongside the receipt
	PersistStrict PersistPolicy = iota
	// PersistLogAndContinue logs the failure and reports success with Persisted=false
	PersistLogAndContinue
)

// ParsePersistPolicy maps a configuration value to a PersistPolicy
func ParsePersistPolicy(s string) (PersistPolicy, error) {
	switch s {
	case "", "strict":
		return PersistStrict, nil
	case "log-and-continue":
		return PersistLogAndContinue, nil
	}
	return PersistStrict, fmt.Errorf("unknown persist policy %q", s)
}

// Config holds the business parameters of the fund
type Config struct {
	BootstrapPrice  decimal.Decimal
	HurdleRate      decimal.Decimal
	PerformanceRate decimal.Decimal
	Reversal        reversal.Config
	Persist         PersistPolicy
}

// DefaultConfig returns the parameters used when none are configured
func DefaultConfig() Config {
	return Config{
		BootstrapPrice:  pricing.DefaultBootstrapPrice,
		HurdleRate:      decimal.RequireFromString("0.06"),
		PerformanceRate: decimal.RequireFromString("0.20"),
		Reversal:        reversal.DefaultConfig(),
		Persist:         PersistStrict,
	}
}

// Recorder receives command outcomes for monitoring
type Recorder interface {
	ObserveCommand(command string, err error)
	ObserveNAV(nav decimal.Decimal)
	ObserveFee(amount decimal.Decimal)
	ObservePersistFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObserveCommand(string, error) {}
func (nopRecorder) ObserveNAV(decimal.Decimal)   {}
func (nopRecorder) ObserveFee(decimal.Decimal)   {}
func (nopRecorder) ObservePersistFailure()       {}

// Receipt is the result of a successful command
type Receipt struct {
	TransactionIDs []int64
	Message        string
	Persisted      bool
}

// Option configures a Processor
type Option func(*Processor)

// WithRecorder reports command outcomes to r
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.metrics = r }
}

// WithClock replaces time.Now, used for investor join dates
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// Processor owns the fund's collections and applies every command to them.
// Commands are serialised; each one either fully commits in memory or
// leaves the collections untouched, and is then saved through the Store.
type Processor struct {
	mu sync.Mutex

	cfg       Config
	store     domain.Store
	fees      *fee.Engine
	investors []domain.Investor
	state     *reversal.State
	reversals *reversal.Engine
	logger    *zap.Logger
	metrics   Recorder
	now       func() time.Time
	dirty     bool
}

// New creates a Processor over a loaded dataset
func New(cfg Config, store domain.Store, data domain.Dataset, logger *zap.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	state := reversal.NewState(data.Tranches, data.Transactions, data.FeeRecords)

	p := &Processor{
		cfg:       cfg,
		store:     store,
		fees:      fee.NewEngine(cfg.HurdleRate, cfg.PerformanceRate),
		investors: append([]domain.Investor(nil), data.Investors...),
		state:     state,
		reversals: reversal.NewEngine(state, cfg.Reversal, logger.Named("reversal")),
		logger:    logger,
		metrics:   nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// execute runs one command under the lock, then saves on success
func (p *Processor) execute(ctx context.Context, op string, fn func() (*Receipt, error)) (*Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	receipt, err := fn()
	if err == nil {
		receipt, err = p.commit(ctx, op, receipt)
	}

	p.metrics.ObserveCommand(op, err)
	if err != nil {
		p.logger.Warn("command failed",
			zap.String("command", op),
			zap.String("kind", domain.KindOf(err).String()),
			zap.Error(err),
		)
		return receipt, err
	}

	p.logger.Info("command applied",
		zap.String("command", op),
		zap.Int64s("transactions", receipt.TransactionIDs),
		zap.Bool("persisted", receipt.Persisted),
	)
	return receipt, nil
}

// commit saves the committed state; memory is never rolled back here
func (p *Processor) commit(ctx context.Context, op string, receipt *Receipt) (*Receipt, error) {
	p.dirty = true
	if err := p.save(ctx); err != nil {
		p.metrics.ObservePersistFailure()
		if p.cfg.Persist == PersistLogAndContinue {
			p.logger.Warn("command committed but not saved",
				zap.String("command", op),
				zap.String("policy", "log-and-continue"),
				zap.Error(err),
			)
			return receipt, nil
		}
		return receipt, domain.NewError(domain.KindPersistence, op, fmt.Errorf("%w: %v", domain.ErrSaveFailed, err))
	}
	receipt.Persisted = true
	return receipt, nil
}

func (p *Processor) save(ctx context.Context) error {
	snap := p.state.Snapshot()
	investors := append([]domain.Investor(nil), p.investors...)
	if err := p.store.SaveAllData(ctx, investors, snap.Tranches, snap.Transactions, snap.FeeRecords); err != nil {
		return err
	}
	p.dirty = false
	return nil
}

// Flush retries saving state that a previous command could not persist
func (p *Processor) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.dirty {
		return nil
	}
	if err := p.save(ctx); err != nil {
		p.metrics.ObservePersistFailure()
		return domain.NewError(domain.KindPersistence, "flush", fmt.Errorf("%w: %v", domain.ErrSaveFailed, err))
	}
	p.logger.Info("pending state saved")
	return nil
}

// Dirty reports whether the in-memory state has unsaved changes
func (p *Processor) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Dataset returns a copy of every collection
func (p *Processor) Dataset() domain.Dataset {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.state.Snapshot()
	return domain.Dataset{
		Investors:    append([]domain.Investor(nil), p.investors...),
		Tranches:     snap.Tranches,
		Transactions: snap.Transactions,
		FeeRecords:   snap.FeeRecords,
	}
}
