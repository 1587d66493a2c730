// Package memory keeps the fund in process memory. It backs tests and
// throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// Store implements domain.Store in memory
type Store struct {
	mu      sync.RWMutex
	data    domain.Dataset
	saves   int
	saveErr error
}

// NewStore creates a store holding a copy of data
func NewStore(data domain.Dataset) *Store {
	return &Store{data: clone(data)}
}

var _ domain.Store = (*Store)(nil)

// LoadInvestors retrieves every investor
func (s *Store) LoadInvestors(_ context.Context) ([]domain.Investor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Investor{}, s.data.Investors...), nil
}

// LoadTranches retrieves every tranche
func (s *Store) LoadTranches(_ context.Context) ([]domain.Tranche, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Tranche{}, s.data.Tranches...), nil
}

// LoadTransactions retrieves the full log
func (s *Store) LoadTransactions(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Transaction{}, s.data.Transactions...), nil
}

// LoadFeeRecords retrieves every fee record
func (s *Store) LoadFeeRecords(_ context.Context) ([]domain.FeeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.FeeRecord{}, s.data.FeeRecords...), nil
}

// SaveAllData replaces the held collections, or fails with the error set by FailSaves
func (s *Store) SaveAllData(ctx context.Context, investors []domain.Investor, tranches []domain.Tranche, transactions []domain.Transaction, feeRecords []domain.FeeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.saveErr != nil {
		return s.saveErr
	}

	s.data = clone(domain.Dataset{
		Investors:    investors,
		Tranches:     tranches,
		Transactions: transactions,
		FeeRecords:   feeRecords,
	})
	s.saves++
	return nil
}

// FailSaves makes every following save return err; nil restores saving
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns how many saves succeeded
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func clone(d domain.Dataset) domain.Dataset {
	return domain.Dataset{
		Investors:    append([]domain.Investor{}, d.Investors...),
		Tranches:     append([]domain.Tranche{}, d.Tranches...),
		Transactions: append([]domain.Transaction{}, d.Transactions...),
		FeeRecords:   append([]domain.FeeRecord{}, d.FeeRecords...),
	}
}
