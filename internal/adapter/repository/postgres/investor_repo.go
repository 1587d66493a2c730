package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// LoadInvestors retrieves every investor in registration order
func (s *Store) LoadInvestors(ctx context.Context) ([]domain.Investor, error) {
	query := `
		SELECT id, name, email, phone, join_date, is_fund_operator
		FROM investors
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query investors: %w", err)
	}
	defer rows.Close()

	investors := make([]domain.Investor, 0)
	for rows.Next() {
		var inv domain.Investor
		if err := rows.Scan(
			&inv.ID,
			&inv.Name,
			&inv.Email,
			&inv.Phone,
			&inv.JoinDate,
			&inv.IsFundOperator,
		); err != nil {
			return nil, fmt.Errorf("failed to scan investor: %w", err)
		}
		investors = append(investors, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investors: %w", err)
	}

	return investors, nil
}

func insertInvestors(ctx context.Context, tx execer, investors []domain.Investor) error {
	query := `
		INSERT INTO investors (id, position, name, email, phone, join_date, is_fund_operator)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, inv := range investors {
		_, err := tx.ExecContext(ctx, query,
			inv.ID,
			i,
			inv.Name,
			inv.Email,
			inv.Phone,
			inv.JoinDate,
			inv.IsFundOperator,
		)
		if err != nil {
			return fmt.Errorf("failed to insert investor %s: %w", inv.ID, err)
		}
	}

	return nil
}
