package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// Store implements domain.Store on PostgreSQL
type Store struct {
	db *DB
}

// NewStore creates a new PostgreSQL store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

var _ domain.Store = (*Store)(nil)

// SaveAllData replaces the four tables with the given collections in a
// single database transaction
func (s *Store) SaveAllData(ctx context.Context, investors []domain.Investor, tranches []domain.Tranche, transactions []domain.Transaction, feeRecords []domain.FeeRecord) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	// Children first, so foreign keys added later keep working
	for _, table := range []string{"fee_records", "transactions", "tranches", "investors"} {
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertInvestors(ctx, dbTx, investors); err != nil {
		return err
	}
	if err := insertTranches(ctx, dbTx, tranches); err != nil {
		return err
	}
	if err := insertTransactions(ctx, dbTx, transactions); err != nil {
		return err
	}
	if err := insertFeeRecords(ctx, dbTx, feeRecords); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// parseDecimal parses a NUMERIC column read as text
func parseDecimal(raw, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

// parseDecimals parses several NUMERIC columns in order
func parseDecimals(columns []string, raws []string, dsts ...*decimal.Decimal) error {
	for i, dst := range dsts {
		d, err := parseDecimal(raws[i], columns[i])
		if err != nil {
			return err
		}
		*dst = d
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
