package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Epsilon is the unit quantity below which a tranche is considered empty
var Epsilon = decimal.New(1, -6)

// Tranche is a cost-basis lot of units owned by one investor.
//
// EntryDate/EntryPrice/HWM are the fee basis and move on crystallization.
// The Original* fields keep the lifetime basis for reporting.
type Tranche struct {
	ID                    uuid.UUID
	InvestorID            uuid.UUID
	EntryDate             time.Time
	EntryPrice            decimal.Decimal
	Units                 decimal.Decimal
	HWM                   decimal.Decimal
	OriginalEntryDate     time.Time
	OriginalEntryPrice    decimal.Decimal
	OriginalInvestedValue decimal.Decimal
	CumulativeFeesPaid    decimal.Decimal
}

// NewTranche creates an open tranche entered at price on date
func NewTranche(investorID uuid.UUID, date time.Time, price, units decimal.Decimal) Tranche {
	return Tranche{
		ID:                    uuid.New(),
		InvestorID:            investorID,
		EntryDate:             date,
		EntryPrice:            price,
		Units:                 units,
		HWM:                   price,
		OriginalEntryDate:     date,
		OriginalEntryPrice:    price,
		OriginalInvestedValue: units.Mul(price),
		CumulativeFeesPaid:    decimal.Zero,
	}
}

// Basis returns the tranche's current fee basis
func (t *Tranche) Basis() FeeBasis {
	return FeeBasis{TrancheID: t.ID, EntryDate: t.EntryDate, EntryPrice: t.EntryPrice, HWM: t.HWM}
}

// Validate ensures the tranche adheres to domain rules
func (t *Tranche) Validate() error {
	if t.InvestorID == uuid.Nil {
		return errors.New("tranche must belong to an investor")
	}
	if t.Units.IsNegative() {
		return errors.New("tranche units cannot be negative")
	}
	if !t.EntryPrice.IsPositive() {
		return errors.New("tranche entry price must be positive")
	}
	if t.HWM.LessThan(t.EntryPrice) {
		return errors.New("tranche high-water mark cannot be below its entry price")
	}
	return nil
}

// IsOpen reports whether the tranche still holds more than Epsilon units
func (t *Tranche) IsOpen() bool {
	return t.Units.GreaterThan(Epsilon)
}

// InvestedValue is the fee-basis cost of the remaining units
func (t *Tranche) InvestedValue() decimal.Decimal {
	return t.Units.Mul(t.EntryPrice)
}

// Value is the market value of the remaining units at price
func (t *Tranche) Value(price decimal.Decimal) decimal.Decimal {
	return t.Units.Mul(price)
}

// Scale reduces the tranche to remaining units, shrinking the lifetime
// invested value by the same ratio. Entry date, price and HWM are kept.
func (t *Tranche) Scale(remaining decimal.Decimal) {
	if t.Units.IsPositive() {
		t.OriginalInvestedValue = t.OriginalInvestedValue.Mul(remaining).Div(t.Units)
	}
	t.Units = remaining
}
