package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

var feeRecordDecimalColumns = []string{
	"fee_amount", "fee_units", "calculation_price", "units_before", "units_after", "nav_per_unit_before", "nav_per_unit_after",
}

// LoadFeeRecords retrieves every fee record in booking order
func (s *Store) LoadFeeRecords(ctx context.Context) ([]domain.FeeRecord, error) {
	query := `
		SELECT id, transaction_id, investor_id, date, period,
		       fee_amount, fee_units, calculation_price, units_before, units_after,
		       nav_per_unit_before, nav_per_unit_after, crystallized, description, prior_basis
		FROM fee_records
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.FeeRecord, 0)
	for rows.Next() {
		var r domain.FeeRecord
		raw := make([]string, len(feeRecordDecimalColumns))
		var basis []byte
		if err := rows.Scan(
			&r.ID,
			&r.TransactionID,
			&r.InvestorID,
			&r.Date,
			&r.Period,
			&raw[0],
			&raw[1],
			&raw[2],
			&raw[3],
			&raw[4],
			&raw[5],
			&raw[6],
			&r.Crystallized,
			&r.Description,
			&basis,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fee record: %w", err)
		}

		if err := parseDecimals(feeRecordDecimalColumns, raw,
			&r.FeeAmount, &r.FeeUnits, &r.CalculationPrice,
			&r.UnitsBefore, &r.UnitsAfter, &r.NAVPerUnitBefore, &r.NAVPerUnitAfter,
		); err != nil {
			return nil, err
		}
		if len(basis) > 0 {
			if err := json.Unmarshal(basis, &r.PriorBasis); err != nil {
				return nil, fmt.Errorf("failed to parse prior_basis of fee record %s: %w", r.ID, err)
			}
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fee records: %w", err)
	}

	return records, nil
}

func insertFeeRecords(ctx context.Context, tx execer, records []domain.FeeRecord) error {
	query := `
		INSERT INTO fee_records (id, position, transaction_id, investor_id, date, period,
		                         fee_amount, fee_units, calculation_price, units_before, units_after,
		                         nav_per_unit_before, nav_per_unit_after, crystallized, description, prior_basis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for i, r := range records {
		basis := []domain.FeeBasis{}
		if r.PriorBasis != nil {
			basis = r.PriorBasis
		}
		encoded, err := json.Marshal(basis)
		if err != nil {
			return fmt.Errorf("failed to encode prior_basis of fee record %s: %w", r.ID, err)
		}

		_, err = tx.ExecContext(ctx, query,
			r.ID,
			i,
			r.TransactionID,
			r.InvestorID,
			r.Date,
			r.Period,
			r.FeeAmount.String(),
			r.FeeUnits.String(),
			r.CalculationPrice.String(),
			r.UnitsBefore.String(),
			r.UnitsAfter.String(),
			r.NAVPerUnitBefore.String(),
			r.NAVPerUnitAfter.String(),
			r.Crystallized,
			r.Description,
			string(encoded),
		)
		if err != nil {
			return fmt.Errorf("failed to insert fee record %s: %w", r.ID, err)
		}
	}

	return nil
}
