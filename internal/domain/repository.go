package domain

import (
	"context"
)

// Store defines the persistence contract of the engine.
// Each Load method can be called independently (and concurrently).
type Store interface {
	// LoadInvestors retrieves every investor
	LoadInvestors(ctx context.Context) ([]Investor, error)

	// LoadTranches retrieves every open tranche in ledger order
	LoadTranches(ctx context.Context) ([]Tranche, error)

	// LoadTransactions retrieves the full transaction log
	LoadTransactions(ctx context.Context) ([]Transaction, error)

	// LoadFeeRecords retrieves every fee record
	LoadFeeRecords(ctx context.Context) ([]FeeRecord, error)

	// SaveAllData replaces the stored collections with the given snapshots.
	// Implementations must apply it atomically: all or nothing.
	SaveAllData(ctx context.Context, investors []Investor, tranches []Tranche, transactions []Transaction, feeRecords []FeeRecord) error
}

// Dataset is the full persisted state of a fund
type Dataset struct {
	Investors    []Investor
	Tranches     []Tranche
	Transactions []Transaction
	FeeRecords   []FeeRecord
}
