package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/ledger"
	"github.com/simaogato/fundledger-backend/internal/usecase/pricing"
	"github.com/simaogato/fundledger-backend/internal/usecase/reversal"
)

// Deposit records a contribution.
// Logic:
//  1. Validate amount > 0, navAfter >= 0 and the investor
//  2. navBefore = navAfter − amount; it is never supplied separately
//  3. price = price per unit at navBefore (bootstrap price only when the fund is empty)
//  4. Open a tranche of amount/price units and append a CONTRIBUTION
func (p *Processor) Deposit(ctx context.Context, investorID uuid.UUID, amount, navAfter decimal.Decimal, date time.Time) (*Receipt, error) {
	const op = "deposit"
	return p.execute(ctx, op, func() (*Receipt, error) {
		if !amount.IsPositive() {
			return nil, domain.Invalid(op, domain.ErrNonPositiveAmount, "got %s", amount)
		}
		if navAfter.IsNegative() {
			return nil, domain.Invalid(op, domain.ErrNegativeNAV, "got %s", navAfter)
		}
		inv, err := p.requireInvestor(op, investorID)
		if err != nil {
			return nil, err
		}

		navBefore := navAfter.Sub(amount)
		if navBefore.LessThan(domain.Epsilon.Neg()) {
			return nil, domain.Invalid(op, domain.ErrNegativeNAV, "nav before deposit would be %s", navBefore)
		}
		price, err := p.price(op, navBefore)
		if err != nil {
			return nil, err
		}

		var receipt *Receipt
		err = reversal.Atomic(p.state, func() error {
			t := p.state.Tranches.Deposit(investorID, amount, price, date)
			tx, err := p.state.Log.Append(domain.Transaction{
				InvestorID:  investorID,
				Date:        date,
				Kind:        domain.KindContribution,
				Amount:      amount,
				NAV:         navAfter,
				UnitsDelta:  t.Units,
				Description: fmt.Sprintf("Contribution by %s", inv.Name),
			})
			if err != nil {
				return err
			}
			receipt = &Receipt{
				TransactionIDs: []int64{tx.ID},
				Message: fmt.Sprintf("Deposited %s for %s: %s units at %s",
					amount.StringFixed(2), inv.Name, t.Units.StringFixed(6), price.StringFixed(2)),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		p.metrics.ObserveNAV(navAfter)
		return receipt, nil
	})
}

// Withdraw pays out a net amount to an investor.
// Logic:
//  1. Validate net > 0, navAfter >= 0 and the investor
//  2. navBefore = navAfter + net, price at navBefore
//  3. Plan the withdrawal: full (net clamped to the net balance) or partial
//     (fee scaled by net / net balance, every tranche reduced pro-rata)
//  4. Reduce the tranches, append the WITHDRAWAL and, if a fee is due, the
//     PERFORMANCE_FEE, its FeeRecord and the operator's FEE_TRANSFER.
//     Interim fees never crystallize.
//
// The operator pays no fee on its own units.
func (p *Processor) Withdraw(ctx context.Context, investorID uuid.UUID, net, navAfter decimal.Decimal, date time.Time) (*Receipt, error) {
	const op = "withdraw"
	return p.execute(ctx, op, func() (*Receipt, error) {
		if !net.IsPositive() {
			return nil, domain.Invalid(op, domain.ErrNonPositiveAmount, "got %s", net)
		}
		if navAfter.IsNegative() {
			return nil, domain.Invalid(op, domain.ErrNegativeNAV, "got %s", navAfter)
		}
		inv, err := p.requireInvestor(op, investorID)
		if err != nil {
			return nil, err
		}
		if p.state.Tranches.InvestorUnits(investorID).LessThanOrEqual(domain.Epsilon) {
			return nil, domain.Violation(op, domain.ErrNoPosition, "investor %s", inv.Name)
		}

		navBefore := navAfter.Add(net)
		price, err := p.price(op, navBefore)
		if err != nil {
			return nil, err
		}

		plan, err := p.state.Tranches.PlanWithdrawal(p.fees, investorID, net, price, date, !inv.IsFundOperator)
		if err != nil {
			return nil, err
		}
		chargesFee := plan.Fee.GreaterThan(domain.Epsilon)
		if chargesFee {
			if err := p.requireOperator(op); err != nil {
				return nil, err
			}
		}

		receipt := &Receipt{}
		err = reversal.Atomic(p.state, func() error {
			if err := p.state.Tranches.Reduce(plan.Reductions, price); err != nil {
				return err
			}

			wd, err := p.state.Log.Append(domain.Transaction{
				InvestorID:  investorID,
				Date:        date,
				Kind:        domain.KindWithdrawal,
				Amount:      plan.Net.Neg(),
				NAV:         navBefore.Sub(plan.Net),
				UnitsDelta:  plan.WithdrawUnits.Neg(),
				Description: fmt.Sprintf("Withdrawal by %s", inv.Name),
			})
			if err != nil {
				return err
			}
			receipt.TransactionIDs = append(receipt.TransactionIDs, wd.ID)

			if chargesFee {
				ids, err := p.bookFee(feeCharge{
					investor:    inv,
					amount:      plan.Fee,
					units:       plan.FeeUnits,
					price:       price,
					date:        date,
					unitsBefore: plan.UnitsBefore,
					relatedID:   wd.ID,
				})
				if err != nil {
					return err
				}
				receipt.TransactionIDs = append(receipt.TransactionIDs, ids...)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		kind := "Partial"
		if plan.Full {
			kind = "Full"
		}
		receipt.Message = fmt.Sprintf("%s withdrawal for %s: net %s, fee %s, %s units at %s",
			kind, inv.Name, plan.Net.StringFixed(2), plan.Fee.StringFixed(2),
			plan.WithdrawUnits.Add(plan.FeeUnits).StringFixed(6), price.StringFixed(2))
		p.metrics.ObserveNAV(navBefore.Sub(plan.Net))
		if chargesFee {
			p.metrics.ObserveFee(plan.Fee)
		}
		return receipt, nil
	})
}

// UpdateValuation records a new fund NAV. Units, tranches and HWMs are untouched.
func (p *Processor) UpdateValuation(ctx context.Context, nav decimal.Decimal, date time.Time) (*Receipt, error) {
	const op = "update valuation"
	return p.execute(ctx, op, func() (*Receipt, error) {
		if nav.IsNegative() {
			return nil, domain.Invalid(op, domain.ErrNegativeNAV, "got %s", nav)
		}

		tx, err := p.state.Log.Append(domain.Transaction{
			Date:        date,
			Kind:        domain.KindValuationUpdate,
			Amount:      decimal.Zero,
			NAV:         nav,
			UnitsDelta:  decimal.Zero,
			Description: "Valuation update",
		})
		if err != nil {
			return nil, err
		}

		p.metrics.ObserveNAV(nav)
		return &Receipt{
			TransactionIDs: []int64{tx.ID},
			Message:        fmt.Sprintf("NAV set to %s", nav.StringFixed(2)),
		}, nil
	})
}

// SettleFees charges and crystallizes the performance fee of every
// non-operator investor at date and nav.
// Logic:
//  1. price = price per unit at nav
//  2. Plan every investor's fee first, in registration order
//  3. Apply all plans in one atomic step: reduce, crystallize the tranches
//     that paid, append PERFORMANCE_FEE + FeeRecord + FEE_TRANSFER
func (p *Processor) SettleFees(ctx context.Context, date time.Time, nav decimal.Decimal) (*Receipt, error) {
	const op = "settle fees"
	return p.execute(ctx, op, func() (*Receipt, error) {
		if nav.IsNegative() {
			return nil, domain.Invalid(op, domain.ErrNegativeNAV, "got %s", nav)
		}
		if p.state.Tranches.IsEmpty() {
			return &Receipt{Message: "No units outstanding, no fees due"}, nil
		}
		price, err := p.price(op, nav)
		if err != nil {
			return nil, err
		}

		type due struct {
			investor domain.Investor
			plan     *ledger.FeePlan
		}
		var dues []due
		for _, inv := range p.investors {
			if inv.IsFundOperator {
				continue
			}
			plan, err := p.state.Tranches.PlanFee(p.fees, inv.ID, price, date)
			if err != nil {
				return nil, err
			}
			if plan != nil {
				dues = append(dues, due{investor: inv, plan: plan})
			}
		}
		if len(dues) == 0 {
			return &Receipt{Message: fmt.Sprintf("No fees due at %s per unit", price.StringFixed(2))}, nil
		}
		if err := p.requireOperator(op); err != nil {
			return nil, err
		}

		receipt := &Receipt{}
		total := decimal.Zero
		err = reversal.Atomic(p.state, func() error {
			for _, d := range dues {
				if err := p.state.Tranches.Reduce(d.plan.Reductions, price); err != nil {
					return err
				}
				paid := make([]uuid.UUID, 0, len(d.plan.Reductions))
				for _, r := range d.plan.Reductions {
					if r.FeeUnits.IsPositive() {
						paid = append(paid, r.TrancheID)
					}
				}
				prior := p.state.Tranches.Crystallize(paid, date, price)

				ids, err := p.bookFee(feeCharge{
					investor:     d.investor,
					amount:       d.plan.Fee,
					units:        d.plan.FeeUnits,
					price:        price,
					date:         date,
					unitsBefore:  d.plan.UnitsBefore,
					crystallized: true,
					priorBasis:   prior,
				})
				if err != nil {
					return err
				}
				receipt.TransactionIDs = append(receipt.TransactionIDs, ids...)
				total = total.Add(d.plan.Fee)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		receipt.Message = fmt.Sprintf("Settled fees for %d investors: %s at %s per unit",
			len(dues), total.StringFixed(2), price.StringFixed(2))
		p.metrics.ObserveFee(total)
		return receipt, nil
	})
}

// Undo reverses one of the latest transactions
func (p *Processor) Undo(ctx context.Context, id int64) (*Receipt, error) {
	return p.execute(ctx, "undo", func() (*Receipt, error) {
		outcome, err := p.reversals.Undo(id)
		if err != nil {
			return nil, err
		}
		return reversalReceipt("Undid", outcome), nil
	})
}

// Delete removes one of the latest transactions and repairs the ledger
func (p *Processor) Delete(ctx context.Context, id int64) (*Receipt, error) {
	return p.execute(ctx, "delete", func() (*Receipt, error) {
		outcome, err := p.reversals.Delete(id)
		if err != nil {
			return nil, err
		}
		return reversalReceipt("Deleted", outcome), nil
	})
}

func reversalReceipt(verb string, o *reversal.Outcome) *Receipt {
	msg := fmt.Sprintf("%s %s %d", verb, o.Kind, o.TransactionID)
	if n := len(o.Removed) - 1; n > 0 {
		msg += fmt.Sprintf(" and %d related transactions", n)
	}
	return &Receipt{TransactionIDs: o.Removed, Message: msg}
}

// feeCharge is one performance fee to book
type feeCharge struct {
	investor     domain.Investor
	amount       decimal.Decimal
	units        decimal.Decimal
	price        decimal.Decimal
	date         time.Time
	unitsBefore  decimal.Decimal
	relatedID    int64 // the withdrawal that triggered an interim fee
	crystallized bool
	priorBasis   []domain.FeeBasis
}

// bookFee appends the PERFORMANCE_FEE and its FeeRecord, then credits the
// units to the operator with a FEE_TRANSFER. Tranches must already be reduced.
func (p *Processor) bookFee(c feeCharge) ([]int64, error) {
	feeTx, err := p.state.Log.Append(domain.Transaction{
		InvestorID:  c.investor.ID,
		Date:        c.date,
		Kind:        domain.KindPerformanceFee,
		Amount:      c.amount.Neg(),
		NAV:         domain.NoNAV,
		UnitsDelta:  c.units.Neg(),
		RelatedID:   c.relatedID,
		Description: fmt.Sprintf("Performance fee for %s", c.investor.Name),
	})
	if err != nil {
		return nil, err
	}

	description := "Interim fee on withdrawal"
	if c.crystallized {
		description = "Fee settlement"
	}
	p.state.Fees.Add(domain.FeeRecord{
		ID:               uuid.New(),
		TransactionID:    feeTx.ID,
		InvestorID:       c.investor.ID,
		Date:             c.date,
		Period:           domain.Period(c.date),
		FeeAmount:        c.amount,
		FeeUnits:         c.units,
		CalculationPrice: c.price,
		UnitsBefore:      c.unitsBefore,
		UnitsAfter:       p.state.Tranches.InvestorUnits(c.investor.ID),
		NAVPerUnitBefore: c.price,
		NAVPerUnitAfter:  c.price,
		Crystallized:     c.crystallized,
		Description:      description,
		PriorBasis:       c.priorBasis,
	})

	p.state.Tranches.CreditOperator(c.units, c.price, c.date)
	transfer, err := p.state.Log.Append(domain.Transaction{
		InvestorID:  domain.FundOperatorID,
		Date:        c.date,
		Kind:        domain.KindFeeTransfer,
		Amount:      c.amount,
		NAV:         domain.NoNAV,
		UnitsDelta:  c.units,
		RelatedID:   feeTx.ID,
		Description: fmt.Sprintf("Fee transfer from %s", c.investor.Name),
	})
	if err != nil {
		return nil, err
	}

	return []int64{feeTx.ID, transfer.ID}, nil
}

// price converts nav into a unit price, rejecting a fund that holds units
// but is valued at zero
func (p *Processor) price(op string, nav decimal.Decimal) (decimal.Decimal, error) {
	price := pricing.PricePerUnit(p.state.Tranches.All(), nav, p.cfg.BootstrapPrice)
	if !price.IsPositive() {
		return decimal.Zero, domain.Violation(op, domain.ErrUnpriceable, "nav %s over %s units", nav, p.state.Tranches.TotalUnits())
	}
	return price, nil
}
