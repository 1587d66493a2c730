package txlog

import (
	"github.com/google/uuid"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

// FeeBook holds the fee records, each tied to its PERFORMANCE_FEE transaction
type FeeBook struct {
	records []domain.FeeRecord
}

// NewFeeBook creates a FeeBook holding a copy of records
func NewFeeBook(records []domain.FeeRecord) *FeeBook {
	b := &FeeBook{}
	b.Restore(records)
	return b
}

// Add stores a record
func (b *FeeBook) Add(r domain.FeeRecord) {
	b.records = append(b.records, r)
}

// Len returns the number of records
func (b *FeeBook) Len() int {
	return len(b.records)
}

// ForTransaction returns the record produced by the given fee transaction
func (b *FeeBook) ForTransaction(txID int64) (domain.FeeRecord, bool) {
	for _, r := range b.records {
		if r.TransactionID == txID {
			return r, true
		}
	}
	return domain.FeeRecord{}, false
}

// ForInvestor returns the investor's records in insertion order
func (b *FeeBook) ForInvestor(investorID uuid.UUID) []domain.FeeRecord {
	out := make([]domain.FeeRecord, 0)
	for _, r := range b.records {
		if r.InvestorID == investorID {
			out = append(out, r)
		}
	}
	return out
}

// DeleteForTransaction removes the record tied to the given fee transaction
func (b *FeeBook) DeleteForTransaction(txID int64) bool {
	for i := range b.records {
		if b.records[i].TransactionID == txID {
			b.records = append(b.records[:i], b.records[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a value copy of the records
func (b *FeeBook) Snapshot() []domain.FeeRecord {
	out := make([]domain.FeeRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Restore replaces the records with a copy of snapshot
func (b *FeeBook) Restore(snapshot []domain.FeeRecord) {
	b.records = make([]domain.FeeRecord, len(snapshot))
	copy(b.records, snapshot)
}
