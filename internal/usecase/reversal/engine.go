package reversal

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// DefaultWindow is how many of the latest transactions may be reversed
const DefaultWindow = 10

// Config holds the safety limits of the reversal engine
type Config struct {
	Window             int             // only the latest Window transactions can be reversed
	MatchTolerance     time.Duration   // contribution date vs tranche original entry date
	CostBasisTolerance decimal.Decimal // contribution amount vs tranche invested value, relative
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		Window:             DefaultWindow,
		MatchTolerance:     time.Minute,
		CostBasisTolerance: decimal.RequireFromString("0.01"),
	}
}

type mode string

const (
	modeUndo   mode = "undo"
	modeDelete mode = "delete"
)

// Outcome describes what a reversal removed
type Outcome struct {
	TransactionID int64
	Kind          domain.TransactionKind
	Removed       []int64 // every transaction deleted, target first
	FeeRecords    int
}

// Engine undoes or deletes recent transactions, atomically
type Engine struct {
	state  *State
	cfg    Config
	logger *zap.Logger

	// fault is called between the steps of a multi-step reversal
	fault func(step string) error
}

// NewEngine creates a new reversal Engine
func NewEngine(state *State, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		state:  state,
		cfg:    cfg,
		logger: logger,
		fault:  func(string) error { return nil },
	}
}

// Undo reverses one of the latest transactions.
// A PERFORMANCE_FEE raised by a withdrawal can be undone on its own.
func (e *Engine) Undo(id int64) (*Outcome, error) {
	return e.reverse(id, modeUndo)
}

// Delete removes one of the latest transactions and repairs the ledger.
// A PERFORMANCE_FEE raised by a withdrawal can only go with its withdrawal.
func (e *Engine) Delete(id int64) (*Outcome, error) {
	return e.reverse(id, modeDelete)
}

func (e *Engine) reverse(id int64, m mode) (*Outcome, error) {
	op := string(m)

	// 1. Locate the target and check the recency fence
	tx, ok := e.state.Log.Get(id)
	if !ok {
		return nil, domain.Invalid(op, domain.ErrTransactionMissing, "id %d", id)
	}
	if !e.state.Log.IsRecent(id, e.cfg.Window) {
		return nil, domain.Unsafe(op, domain.ErrOutsideWindow, "transaction %d is not among the latest %d", id, e.cfg.Window)
	}

	// 2. Dispatch by kind inside a snapshot boundary
	outcome := &Outcome{TransactionID: id, Kind: tx.Kind}
	err := Atomic(e.state, func() error {
		switch tx.Kind {
		case domain.KindContribution:
			return e.reverseContribution(op, tx, outcome)
		case domain.KindWithdrawal:
			return e.reverseWithdrawal(op, tx, outcome)
		case domain.KindValuationUpdate:
			return e.deleteTransactions(outcome, tx.ID)
		case domain.KindPerformanceFee:
			if m == modeDelete && tx.RelatedID != 0 {
				return domain.Unsafe(op, domain.ErrCorrelatedRecord, "fee %d belongs to withdrawal %d; delete the withdrawal", tx.ID, tx.RelatedID)
			}
			return e.reverseFee(op, tx, outcome)
		default:
			return domain.Unsafe(op, domain.ErrNotReversible, "%s %d; reverse its performance fee instead", tx.Kind, tx.ID)
		}
	})
	if err != nil {
		e.logger.Warn("reversal rejected",
			zap.String("mode", op),
			zap.Int64("transaction_id", id),
			zap.String("kind", string(tx.Kind)),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Info("transaction reversed",
		zap.String("mode", op),
		zap.Int64("transaction_id", id),
		zap.String("kind", string(tx.Kind)),
		zap.Int64s("removed", outcome.Removed),
	)
	return outcome, nil
}

// reverseContribution removes the tranche a contribution created.
// The tranche must be unambiguous, untouched since, and fee free.
func (e *Engine) reverseContribution(op string, tx domain.Transaction, outcome *Outcome) error {
	tolerance := tx.Amount.Mul(e.cfg.CostBasisTolerance)

	var matches []int
	candidates := e.state.Tranches.ForInvestor(tx.InvestorID)
	for i, t := range candidates {
		gap := t.OriginalEntryDate.Sub(tx.Date)
		if gap < 0 {
			gap = -gap
		}
		if gap > e.cfg.MatchTolerance {
			continue
		}
		if t.OriginalInvestedValue.Sub(tx.Amount).Abs().GreaterThan(tolerance) {
			continue
		}
		matches = append(matches, i)
	}

	switch {
	case len(matches) == 0:
		return domain.Unsafe(op, domain.ErrAmbiguousTarget, "no tranche matches contribution %d", tx.ID)
	case len(matches) > 1:
		return domain.Unsafe(op, domain.ErrAmbiguousTarget, "%d tranches match contribution %d", len(matches), tx.ID)
	}

	t := candidates[matches[0]]
	if t.CumulativeFeesPaid.IsPositive() {
		return domain.Unsafe(op, domain.ErrFeesPaid, "tranche %s paid %s", t.ID, t.CumulativeFeesPaid)
	}
	if t.Units.Sub(tx.UnitsDelta).Abs().GreaterThan(domain.Epsilon) {
		return domain.Unsafe(op, domain.ErrAmbiguousTarget, "tranche %s changed since contribution %d", t.ID, tx.ID)
	}

	e.state.Tranches.Remove(t.ID)
	if err := e.fault("remove-tranche"); err != nil {
		return err
	}
	return e.deleteTransactions(outcome, tx.ID)
}

// reverseWithdrawal gives the withdrawn (and fee) units back to the investor.
// When the withdrawal raised a fee, the fee transaction, the operator's
// transfer and the fee record are removed in the same step.
func (e *Engine) reverseWithdrawal(op string, tx domain.Transaction, outcome *Outcome) error {
	units := tx.UnitsDelta.Neg()
	price := impliedPrice(tx)

	// 1. Restore the withdrawn units
	if err := e.state.Tranches.RestoreUnits(tx.InvestorID, units, price, tx.Date); err != nil {
		return domain.Violation(op, domain.ErrInsufficientUnits, "restore withdrawal %d: %v", tx.ID, err)
	}
	if err := e.fault("restore-withdrawal"); err != nil {
		return err
	}

	// 2. Drop the withdrawal itself, then every fee it raised
	fees := e.state.Log.Related(tx.ID)
	if err := e.deleteTransactions(outcome, tx.ID); err != nil {
		return err
	}
	for _, feeTx := range fees {
		if feeTx.Kind != domain.KindPerformanceFee {
			continue
		}
		if err := e.reverseFee(op, feeTx, outcome); err != nil {
			return err
		}
	}
	return nil
}

// reverseFee gives fee units back to the investor, puts back the fee basis
// a settlement moved, takes the units from the operator, rolls back
// cumulative fees, and removes the fee transaction, its transfer and its
// record together.
func (e *Engine) reverseFee(op string, feeTx domain.Transaction, outcome *Outcome) error {
	units := feeTx.UnitsDelta.Neg()
	amount := feeTx.Amount.Neg()
	price := impliedPrice(feeTx)

	record, hasRecord := e.state.Fees.ForTransaction(feeTx.ID)
	crystallized := hasRecord && record.Crystallized
	if crystallized && len(record.PriorBasis) == 0 {
		return domain.Unsafe(op, domain.ErrNotReversible, "settlement fee %d has no recorded prior basis", feeTx.ID)
	}

	// 1. Units back to the investor
	if err := e.state.Tranches.RestoreUnits(feeTx.InvestorID, units, price, feeTx.Date); err != nil {
		return domain.Violation(op, domain.ErrInsufficientUnits, "restore fee %d: %v", feeTx.ID, err)
	}
	if err := e.fault("restore-fee"); err != nil {
		return err
	}

	// 2. Entry date, entry price and HWM as they were before settlement
	if crystallized {
		if err := e.state.Tranches.RestoreBasis(record.PriorBasis, record.Date, record.CalculationPrice); err != nil {
			return domain.Unsafe(op, domain.ErrNotReversible, "settlement fee %d: %v", feeTx.ID, err)
		}
		if err := e.fault("restore-basis"); err != nil {
			return err
		}
	}

	// 3. Cumulative fees paid, pro-rata across fee-paying tranches
	e.state.Tranches.RollbackFees(feeTx.InvestorID, amount)
	if err := e.fault("rollback-fees"); err != nil {
		return err
	}

	// 4. Units back from the operator, nearest by date and size
	ids := []int64{feeTx.ID}
	for _, transfer := range e.state.Log.Related(feeTx.ID) {
		if transfer.Kind != domain.KindFeeTransfer {
			continue
		}
		if err := e.state.Tranches.DebitOperator(transfer.UnitsDelta, transfer.Date); err != nil {
			return err
		}
		ids = append(ids, transfer.ID)
	}
	if err := e.fault("debit-operator"); err != nil {
		return err
	}

	// 5. Records go last, together
	if e.state.Fees.DeleteForTransaction(feeTx.ID) {
		outcome.FeeRecords++
	}
	if err := e.fault("delete-record"); err != nil {
		return err
	}
	return e.deleteTransactions(outcome, ids...)
}

func (e *Engine) deleteTransactions(outcome *Outcome, ids ...int64) error {
	for _, id := range ids {
		if !e.state.Log.Delete(id) {
			return domain.Violation("delete", domain.ErrTransactionMissing, "id %d", id)
		}
		outcome.Removed = append(outcome.Removed, id)
		if err := e.fault("delete-transaction"); err != nil {
			return err
		}
	}
	return nil
}

// impliedPrice is the unit price a transaction was booked at
func impliedPrice(tx domain.Transaction) decimal.Decimal {
	if tx.UnitsDelta.IsZero() {
		return decimal.Zero
	}
	return tx.Amount.Div(tx.UnitsDelta).Abs()
}
