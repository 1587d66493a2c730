package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
)

// Reduction is the number of units a tranche gives up, split by cause
type Reduction struct {
	TrancheID     uuid.UUID
	WithdrawUnits decimal.Decimal
	FeeUnits      decimal.Decimal
}

// Total is the number of units removed from the tranche
func (r Reduction) Total() decimal.Decimal {
	return r.WithdrawUnits.Add(r.FeeUnits)
}

// WithdrawalPlan is a fully computed withdrawal, ready to be applied
type WithdrawalPlan struct {
	InvestorID    uuid.UUID
	Date          time.Time
	Price         decimal.Decimal
	Full          bool
	Net           decimal.Decimal // clamped to the net balance on a full withdrawal
	Fee           decimal.Decimal
	WithdrawUnits decimal.Decimal
	FeeUnits      decimal.Decimal
	UnitsBefore   decimal.Decimal
	Reductions    []Reduction
}

// FeePlan is a fully computed fee charge on a whole position
type FeePlan struct {
	InvestorID  uuid.UUID
	Date        time.Time
	Price       decimal.Decimal
	Fee         decimal.Decimal
	FeeUnits    decimal.Decimal
	UnitsBefore decimal.Decimal
	Reductions  []Reduction
}

// PlanWithdrawal computes how a net withdrawal reduces the investor's tranches.
// Logic:
//  1. Assess the fee on the full balance (skipped when chargeFee is false)
//  2. net >= net balance (within Epsilon): full withdrawal, clamp net, charge the full fee
//  3. Otherwise: fee = full fee × net / net balance, and every tranche gives
//     up the same fraction of its units, split between fee units (by share
//     of excess) and withdrawal units
//
// The ledger is not modified.
func (l *Ledger) PlanWithdrawal(engine *fee.Engine, investorID uuid.UUID, net, price decimal.Decimal, date time.Time, chargeFee bool) (*WithdrawalPlan, error) {
	tranches := l.ForInvestor(investorID)
	detail := engine.AssessInvestor(tranches, date, price)
	if detail.Units.LessThanOrEqual(domain.Epsilon) {
		return nil, domain.Violation("withdraw", domain.ErrNoPosition, "investor %s", investorID)
	}

	fullFee := detail.Fee
	if !chargeFee {
		fullFee = decimal.Zero
	}

	netBalance := detail.Balance.Sub(fullFee)
	if !netBalance.IsPositive() {
		return nil, domain.Violation("withdraw", domain.ErrFeeExceedsBalance, "fee %s, balance %s", fullFee, detail.Balance)
	}

	plan := &WithdrawalPlan{
		InvestorID:  investorID,
		Date:        date,
		Price:       price,
		UnitsBefore: detail.Units,
	}

	if net.GreaterThanOrEqual(netBalance.Sub(domain.Epsilon)) {
		plan.Full = true
		plan.Net = netBalance
		plan.Fee = fullFee
		plan.FeeUnits = fullFee.Div(price)
		plan.WithdrawUnits = detail.Units.Sub(plan.FeeUnits)
	} else {
		ratio := net.Div(netBalance)
		plan.Net = net
		plan.Fee = fullFee.Mul(ratio)
		plan.FeeUnits = plan.Fee.Div(price)
		plan.WithdrawUnits = net.Div(price)
	}

	feeShares := map[uuid.UUID]decimal.Decimal{}
	if plan.FeeUnits.IsPositive() {
		shares, err := fee.Allocate(detail.Tranches, plan.FeeUnits)
		if err != nil {
			return nil, domain.Violation("withdraw", domain.ErrInsufficientUnits, "%v", err)
		}
		for _, s := range shares {
			feeShares[s.TrancheID] = s.Units
		}
	}

	// Each tranche's withdrawal share is what is left of its proportional
	// reduction once its fee units are taken; the last absorbs the remainder.
	allocated := decimal.Zero
	for i, a := range detail.Tranches {
		feeUnits := feeShares[a.TrancheID]
		var withdraw decimal.Decimal
		switch {
		case plan.Full:
			withdraw = a.Units.Sub(feeUnits)
		case i == len(detail.Tranches)-1:
			withdraw = plan.WithdrawUnits.Sub(allocated)
		default:
			withdraw = a.Units.Mul(plan.Net.Div(netBalance)).Sub(feeUnits)
			allocated = allocated.Add(withdraw)
		}

		if withdraw.LessThan(domain.Epsilon.Neg()) {
			return nil, domain.Violation("withdraw", domain.ErrInsufficientUnits, "tranche %s cannot cover its fee share", a.TrancheID)
		}
		if withdraw.IsNegative() {
			withdraw = decimal.Zero
		}

		plan.Reductions = append(plan.Reductions, Reduction{
			TrancheID:     a.TrancheID,
			WithdrawUnits: withdraw,
			FeeUnits:      feeUnits,
		})
	}

	return plan, nil
}

// PlanFee computes the fee owed on the investor's whole position.
// It returns nil when no fee is due.
func (l *Ledger) PlanFee(engine *fee.Engine, investorID uuid.UUID, price decimal.Decimal, date time.Time) (*FeePlan, error) {
	detail := engine.AssessInvestor(l.ForInvestor(investorID), date, price)
	if !detail.Fee.GreaterThan(domain.Epsilon) {
		return nil, nil
	}

	plan := &FeePlan{
		InvestorID:  investorID,
		Date:        date,
		Price:       price,
		Fee:         detail.Fee,
		FeeUnits:    detail.Fee.Div(price),
		UnitsBefore: detail.Units,
	}

	shares, err := fee.Allocate(detail.Tranches, plan.FeeUnits)
	if err != nil {
		return nil, domain.Violation("settle", domain.ErrInsufficientUnits, "%v", err)
	}
	for _, s := range shares {
		plan.Reductions = append(plan.Reductions, Reduction{TrancheID: s.TrancheID, WithdrawUnits: decimal.Zero, FeeUnits: s.Units})
	}

	return plan, nil
}

// Reduce removes units from tranches, adding price × fee units to each
// tranche's cumulative fees. Every reduction is checked before any tranche
// is touched. Sub-epsilon tranches are collected afterwards.
func (l *Ledger) Reduce(reductions []Reduction, price decimal.Decimal) error {
	for _, r := range reductions {
		i := l.index(r.TrancheID)
		if i < 0 {
			return domain.Violation("reduce", domain.ErrInsufficientUnits, "tranche %s not found", r.TrancheID)
		}
		if r.Total().Sub(l.tranches[i].Units).GreaterThan(domain.Epsilon) {
			return domain.Violation("reduce", domain.ErrInsufficientUnits,
				"tranche %s holds %s units, %s requested", r.TrancheID, l.tranches[i].Units, r.Total())
		}
	}

	for _, r := range reductions {
		t := &l.tranches[l.index(r.TrancheID)]
		remaining := t.Units.Sub(r.Total())
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		t.Scale(remaining)
		if r.FeeUnits.IsPositive() {
			t.CumulativeFeesPaid = t.CumulativeFeesPaid.Add(r.FeeUnits.Mul(price))
		}
	}

	l.Collect()
	return nil
}

// Crystallize re-bases the given tranches on date and price and returns
// the basis each had before
func (l *Ledger) Crystallize(trancheIDs []uuid.UUID, date time.Time, price decimal.Decimal) []domain.FeeBasis {
	prior := make([]domain.FeeBasis, 0, len(trancheIDs))
	for _, id := range trancheIDs {
		if i := l.index(id); i >= 0 {
			prior = append(prior, l.tranches[i].Basis())
			fee.Crystallize(&l.tranches[i], date, price)
		}
	}
	return prior
}

// RestoreBasis puts back the fee basis a settlement on date at price moved.
// Tranches closed since are skipped. A tranche re-based again since is an
// error and nothing is changed.
func (l *Ledger) RestoreBasis(prior []domain.FeeBasis, date time.Time, price decimal.Decimal) error {
	for _, b := range prior {
		i := l.index(b.TrancheID)
		if i < 0 {
			continue
		}
		t := l.tranches[i]
		if !t.EntryDate.Equal(date) || !t.EntryPrice.Equal(price) || !t.HWM.Equal(price) {
			return fmt.Errorf("tranche %s was re-based after %s", t.ID, date.Format(time.DateOnly))
		}
	}
	for _, b := range prior {
		if i := l.index(b.TrancheID); i >= 0 {
			t := &l.tranches[i]
			t.EntryDate = b.EntryDate
			t.EntryPrice = b.EntryPrice
			t.HWM = b.HWM
		}
	}
	return nil
}

// RestoreUnits gives units back to an investor, pro-rata to the units of
// their open tranches. With no open tranche a new one is created at price.
func (l *Ledger) RestoreUnits(investorID uuid.UUID, units, price decimal.Decimal, date time.Time) error {
	tranches := l.ForInvestor(investorID)
	if len(tranches) == 0 {
		if !price.IsPositive() {
			return fmt.Errorf("cannot recreate a tranche at price %s", price)
		}
		l.Add(domain.NewTranche(investorID, date, price, units))
		return nil
	}

	ids := make([]uuid.UUID, len(tranches))
	weights := make([]decimal.Decimal, len(tranches))
	for i, t := range tranches {
		ids[i] = t.ID
		weights[i] = t.Units
	}

	shares, err := fee.ProRata(ids, weights, units)
	if err != nil {
		return err
	}
	for _, s := range shares {
		t := &l.tranches[l.index(s.TrancheID)]
		t.Scale(t.Units.Add(s.Units))
	}
	return nil
}

// RollbackFees reduces the cumulative fees paid by an investor's tranches
// by amount, pro-rata to what each has paid; the last absorbs the remainder.
func (l *Ledger) RollbackFees(investorID uuid.UUID, amount decimal.Decimal) {
	tranches := l.ForInvestor(investorID)
	ids := make([]uuid.UUID, len(tranches))
	weights := make([]decimal.Decimal, len(tranches))
	for i, t := range tranches {
		ids[i] = t.ID
		weights[i] = t.CumulativeFeesPaid
	}

	shares, err := fee.ProRata(ids, weights, amount)
	if err != nil {
		// nothing was paid: nothing to roll back
		return
	}
	for _, s := range shares {
		t := &l.tranches[l.index(s.TrancheID)]
		t.CumulativeFeesPaid = decimal.Max(decimal.Zero, t.CumulativeFeesPaid.Sub(s.Units))
	}
}

// DebitOperator removes fee units from the fund operator. Tranches closest
// to date, then closest in size to units, are consumed first.
func (l *Ledger) DebitOperator(units decimal.Decimal, date time.Time) error {
	candidates := l.ForInvestor(domain.FundOperatorID)
	total := decimal.Zero
	for _, t := range candidates {
		total = total.Add(t.Units)
	}
	if units.Sub(total).GreaterThan(domain.Epsilon) {
		return domain.Violation("debit operator", domain.ErrInsufficientUnits, "operator holds %s units, %s requested", total, units)
	}

	sortNearest(candidates, units, date)

	remaining := units
	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		t := &l.tranches[l.index(c.ID)]
		take := decimal.Min(remaining, t.Units)
		t.Scale(t.Units.Sub(take))
		remaining = remaining.Sub(take)
	}

	l.Collect()
	return nil
}
