package reversal

import (
	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/ledger"
	"github.com/simaogato/fundledger-backend/internal/usecase/txlog"
)

// State groups the three collections that must always change together
type State struct {
	Tranches *ledger.Ledger
	Log      *txlog.Log
	Fees     *txlog.FeeBook
}

// NewState creates a State from persisted collections
func NewState(tranches []domain.Tranche, txs []domain.Transaction, records []domain.FeeRecord) *State {
	return &State{
		Tranches: ledger.New(tranches),
		Log:      txlog.New(txs),
		Fees:     txlog.NewFeeBook(records),
	}
}

// Snapshot is a value copy of the three collections
type Snapshot struct {
	Tranches     []domain.Tranche
	Transactions []domain.Transaction
	FeeRecords   []domain.FeeRecord
}

// Snapshot copies the three collections
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Tranches:     s.Tranches.Snapshot(),
		Transactions: s.Log.Snapshot(),
		FeeRecords:   s.Fees.Snapshot(),
	}
}

// Restore puts the three collections back to snap, wholesale
func (s *State) Restore(snap Snapshot) {
	s.Tranches.Restore(snap.Tranches)
	s.Log.RestoreSnapshot(snap.Transactions)
	s.Fees.Restore(snap.FeeRecords)
}

// Atomic runs fn against s. If fn returns an error or panics, every change
// it made to the three collections is discarded before returning (or
// re-panicking).
func Atomic(s *State, fn func() error) (err error) {
	snap := s.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.Restore(snap)
			panic(r)
		}
	}()

	if err = fn(); err != nil {
		s.Restore(snap)
	}
	return err
}
