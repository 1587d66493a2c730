package fee

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

const daysPerYear = 365.25

var hundred = decimal.NewFromInt(100)

// Engine computes hurdle-plus-high-water-mark performance fees
type Engine struct {
	HurdleRate      decimal.Decimal // annual, compounded, e.g. 0.06
	PerformanceRate decimal.Decimal // share of excess profit, e.g. 0.20
}

// NewEngine creates a new fee Engine
func NewEngine(hurdleRate, performanceRate decimal.Decimal) *Engine {
	return &Engine{
		HurdleRate:      hurdleRate,
		PerformanceRate: performanceRate,
	}
}

// TrancheAssessment is the fee computation of a single tranche
type TrancheAssessment struct {
	TrancheID   uuid.UUID
	Units       decimal.Decimal
	Years       float64
	HurdlePrice decimal.Decimal
	Threshold   decimal.Decimal
	Excess      decimal.Decimal
	Fee         decimal.Decimal
}

// InvestorDetail aggregates the assessments of all open tranches of an investor
type InvestorDetail struct {
	Units         decimal.Decimal
	Fee           decimal.Decimal
	Balance       decimal.Decimal
	InvestedValue decimal.Decimal
	Profit        decimal.Decimal
	ProfitPct     decimal.Decimal
	HurdleValue   decimal.Decimal
	HWMValue      decimal.Decimal
	ExcessProfit  decimal.Decimal
	HurdlePrice   decimal.Decimal // unit-weighted
	HWMPrice      decimal.Decimal // unit-weighted
	Tranches      []TrancheAssessment
}

// NetBalance is the balance left after paying the fee on the whole position
func (d InvestorDetail) NetBalance() decimal.Decimal {
	return d.Balance.Sub(d.Fee)
}

// YearsHeld returns the fractional years between entry and date, never negative
func YearsHeld(entry, date time.Time) float64 {
	years := date.Sub(entry).Hours() / 24 / daysPerYear
	return math.Max(0, years)
}

// HurdlePrice compounds the entry price annually at the hurdle rate
func (e *Engine) HurdlePrice(entryPrice decimal.Decimal, years float64) decimal.Decimal {
	if years == 0 {
		return entryPrice
	}
	rate := 1 + e.HurdleRate.InexactFloat64()
	return entryPrice.Mul(decimal.NewFromFloat(math.Pow(rate, years)))
}

// AssessTranche computes the fee owed by a tranche at date and price.
// Logic:
//   - threshold = max(hurdle, hwm)
//   - excess = units × max(0, price − threshold)
//   - fee = performance rate × excess
func (e *Engine) AssessTranche(t *domain.Tranche, date time.Time, price decimal.Decimal) TrancheAssessment {
	years := YearsHeld(t.EntryDate, date)
	hurdle := e.HurdlePrice(t.EntryPrice, years)
	threshold := decimal.Max(hurdle, t.HWM)

	excess := decimal.Zero
	if price.GreaterThan(threshold) {
		excess = t.Units.Mul(price.Sub(threshold))
	}

	return TrancheAssessment{
		TrancheID:   t.ID,
		Units:       t.Units,
		Years:       years,
		HurdlePrice: hurdle,
		Threshold:   threshold,
		Excess:      excess,
		Fee:         excess.Mul(e.PerformanceRate),
	}
}

// AssessInvestor aggregates the open tranches of one investor.
// Tranches are assessed in the order given, which is kept in Tranches.
func (e *Engine) AssessInvestor(tranches []domain.Tranche, date time.Time, price decimal.Decimal) InvestorDetail {
	detail := InvestorDetail{
		Units:         decimal.Zero,
		Fee:           decimal.Zero,
		Balance:       decimal.Zero,
		InvestedValue: decimal.Zero,
		HurdleValue:   decimal.Zero,
		HWMValue:      decimal.Zero,
		ExcessProfit:  decimal.Zero,
		ProfitPct:     decimal.Zero,
		HurdlePrice:   decimal.Zero,
		HWMPrice:      decimal.Zero,
	}

	for i := range tranches {
		t := &tranches[i]
		if !t.IsOpen() {
			continue
		}

		a := e.AssessTranche(t, date, price)
		detail.Tranches = append(detail.Tranches, a)

		detail.Units = detail.Units.Add(t.Units)
		detail.Fee = detail.Fee.Add(a.Fee)
		detail.Balance = detail.Balance.Add(t.Value(price))
		detail.InvestedValue = detail.InvestedValue.Add(t.InvestedValue())
		detail.HurdleValue = detail.HurdleValue.Add(t.Units.Mul(a.HurdlePrice))
		detail.HWMValue = detail.HWMValue.Add(t.Units.Mul(t.HWM))
		detail.ExcessProfit = detail.ExcessProfit.Add(a.Excess)
	}

	detail.Profit = detail.Balance.Sub(detail.InvestedValue)
	if detail.InvestedValue.IsPositive() {
		detail.ProfitPct = detail.Profit.Div(detail.InvestedValue).Mul(hundred)
	}
	if detail.Units.IsPositive() {
		detail.HurdlePrice = detail.HurdleValue.Div(detail.Units)
		detail.HWMPrice = detail.HWMValue.Div(detail.Units)
	}

	return detail
}

// Crystallize re-bases a tranche on the current date and price after a
// scheduled settlement. Interim deductions must never call it.
func Crystallize(t *domain.Tranche, date time.Time, price decimal.Decimal) {
	t.EntryDate = date
	t.EntryPrice = price
	t.HWM = price
}
