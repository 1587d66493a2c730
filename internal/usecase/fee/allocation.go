package fee

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Share is the number of units one tranche gives up
type Share struct {
	TrancheID uuid.UUID
	Units     decimal.Decimal
}

// Allocate converts a fee (expressed in units) into per-tranche unit reductions.
// Logic:
//  1. Skip tranches with non-positive excess
//  2. Each remaining tranche pays feeUnits × its share of the total excess
//  3. The last remaining tranche absorbs the rounding remainder
//
// Safety: the shares always sum to feeUnits exactly. The order of the
// returned shares follows the order of assessments.
func Allocate(assessments []TrancheAssessment, feeUnits decimal.Decimal) ([]Share, error) {
	if feeUnits.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("fee units must be positive")
	}

	eligible := make([]TrancheAssessment, 0, len(assessments))
	totalExcess := decimal.Zero
	for _, a := range assessments {
		if a.Excess.IsPositive() {
			eligible = append(eligible, a)
			totalExcess = totalExcess.Add(a.Excess)
		}
	}

	if len(eligible) == 0 {
		return nil, errors.New("no tranche has excess profit to allocate the fee against")
	}

	shares := make([]Share, 0, len(eligible))
	allocated := decimal.Zero
	for i, a := range eligible {
		var units decimal.Decimal
		if i == len(eligible)-1 {
			units = feeUnits.Sub(allocated)
		} else {
			units = feeUnits.Mul(a.Excess).Div(totalExcess)
			allocated = allocated.Add(units)
		}
		shares = append(shares, Share{TrancheID: a.TrancheID, Units: units})
	}

	return shares, nil
}

// ProRata splits total across weights, the last weight absorbing the
// rounding remainder. Zero or negative weights receive nothing.
func ProRata(ids []uuid.UUID, weights []decimal.Decimal, total decimal.Decimal) ([]Share, error) {
	if len(ids) != len(weights) {
		return nil, errors.New("ids and weights must have the same length")
	}

	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.IsPositive() {
			sum = sum.Add(w)
			last = i
		}
	}
	if last < 0 {
		return nil, errors.New("no positive weight to split against")
	}

	shares := make([]Share, 0, len(ids))
	allocated := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		var units decimal.Decimal
		if i == last {
			units = total.Sub(allocated)
		} else {
			units = total.Mul(w).Div(sum)
			allocated = allocated.Add(units)
		}
		shares = append(shares, Share{TrancheID: ids[i], Units: units})
	}

	return shares, nil
}
