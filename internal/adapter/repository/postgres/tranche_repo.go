package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

var trancheDecimalColumns = []string{
	"entry_price", "units", "hwm", "original_entry_price", "original_invested_value", "cumulative_fees_paid",
}

// LoadTranches retrieves every tranche in ledger order
func (s *Store) LoadTranches(ctx context.Context) ([]domain.Tranche, error) {
	query := `
		SELECT id, investor_id, entry_date, entry_price, units, hwm,
		       original_entry_date, original_entry_price, original_invested_value, cumulative_fees_paid
		FROM tranches
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tranches: %w", err)
	}
	defer rows.Close()

	tranches := make([]domain.Tranche, 0)
	for rows.Next() {
		var t domain.Tranche
		raw := make([]string, len(trancheDecimalColumns))
		if err := rows.Scan(
			&t.ID,
			&t.InvestorID,
			&t.EntryDate,
			&raw[0],
			&raw[1],
			&raw[2],
			&t.OriginalEntryDate,
			&raw[3],
			&raw[4],
			&raw[5],
		); err != nil {
			return nil, fmt.Errorf("failed to scan tranche: %w", err)
		}

		if err := parseDecimals(trancheDecimalColumns, raw,
			&t.EntryPrice, &t.Units, &t.HWM,
			&t.OriginalEntryPrice, &t.OriginalInvestedValue, &t.CumulativeFeesPaid,
		); err != nil {
			return nil, err
		}
		tranches = append(tranches, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tranches: %w", err)
	}

	return tranches, nil
}

func insertTranches(ctx context.Context, tx execer, tranches []domain.Tranche) error {
	query := `
		INSERT INTO tranches (id, position, investor_id, entry_date, entry_price, units, hwm,
		                      original_entry_date, original_entry_price, original_invested_value, cumulative_fees_paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for i, t := range tranches {
		_, err := tx.ExecContext(ctx, query,
			t.ID,
			i,
			t.InvestorID,
			t.EntryDate,
			t.EntryPrice.String(),
			t.Units.String(),
			t.HWM.String(),
			t.OriginalEntryDate,
			t.OriginalEntryPrice.String(),
			t.OriginalInvestedValue.String(),
			t.CumulativeFeesPaid.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert tranche %s: %w", t.ID, err)
		}
	}

	return nil
}
