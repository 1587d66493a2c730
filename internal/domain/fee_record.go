package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeRecord is an immutable snapshot of one performance fee assessment
type FeeRecord struct {
	ID               uuid.UUID
	TransactionID    int64 // the PERFORMANCE_FEE transaction
	InvestorID       uuid.UUID
	Date             time.Time
	Period           string
	FeeAmount        decimal.Decimal
	FeeUnits         decimal.Decimal
	CalculationPrice decimal.Decimal
	UnitsBefore      decimal.Decimal
	UnitsAfter       decimal.Decimal
	NAVPerUnitBefore decimal.Decimal
	NAVPerUnitAfter  decimal.Decimal
	Crystallized     bool
	Description      string

	// PriorBasis is the fee basis of each tranche before a settlement
	// re-based it. Empty for interim fees.
	PriorBasis []FeeBasis
}

// FeeBasis is the part of a tranche that crystallization moves
type FeeBasis struct {
	TrancheID  uuid.UUID
	EntryDate  time.Time
	EntryPrice decimal.Decimal
	HWM        decimal.Decimal
}

// Period returns the reporting period label of date, e.g. 2024-Q3
func Period(date time.Time) string {
	return fmt.Sprintf("%d-Q%d", date.Year(), (int(date.Month())-1)/3+1)
}
