package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

var transactionDecimalColumns = []string{"amount", "nav", "units_delta"}

// LoadTransactions retrieves the full log ordered by (date, id)
func (s *Store) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	query := `
		SELECT id, investor_id, date, kind, amount, nav, units_delta, related_id, description
		FROM transactions
		ORDER BY date, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		var tx domain.Transaction
		var investorID sql.NullString
		var kind string
		raw := make([]string, len(transactionDecimalColumns))
		if err := rows.Scan(
			&tx.ID,
			&investorID,
			&tx.Date,
			&kind,
			&raw[0],
			&raw[1],
			&raw[2],
			&tx.RelatedID,
			&tx.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		// investor_id is NULL for valuation updates
		if investorID.Valid {
			id, err := uuid.Parse(investorID.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse investor_id: %w", err)
			}
			tx.InvestorID = id
		}

		tx.Kind = domain.TransactionKind(kind)
		if !tx.Kind.Valid() {
			return nil, fmt.Errorf("transaction %d has unknown kind %q", tx.ID, kind)
		}

		if err := parseDecimals(transactionDecimalColumns, raw, &tx.Amount, &tx.NAV, &tx.UnitsDelta); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func insertTransactions(ctx context.Context, tx execer, transactions []domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, investor_id, date, kind, amount, nav, units_delta, related_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, t := range transactions {
		var investorID any
		if t.InvestorID != uuid.Nil {
			investorID = t.InvestorID
		}

		_, err := tx.ExecContext(ctx, query,
			t.ID,
			investorID,
			t.Date,
			string(t.Kind),
			t.Amount.String(),
			t.NAV.String(),
			t.UnitsDelta.String(),
			t.RelatedID,
			t.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %d: %w", t.ID, err)
		}
	}

	return nil
}
