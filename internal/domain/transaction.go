package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the type of a fund transaction
type TransactionKind string

const (
	KindContribution    TransactionKind = "CONTRIBUTION"
	KindWithdrawal      TransactionKind = "WITHDRAWAL"
	KindValuationUpdate TransactionKind = "VALUATION_UPDATE"
	KindPerformanceFee  TransactionKind = "PERFORMANCE_FEE"
	KindFeeTransfer     TransactionKind = "FEE_TRANSFER"
)

// Valid reports whether k is one of the known kinds
func (k TransactionKind) Valid() bool {
	switch k {
	case KindContribution, KindWithdrawal, KindValuationUpdate, KindPerformanceFee, KindFeeTransfer:
		return true
	}
	return false
}

// NoNAV marks a transaction that carries no valuation
var NoNAV = decimal.NewFromInt(-1)

// Transaction is an append-only audit record.
//
// Amount is signed from the fund's point of view: contributions and fee
// transfers are positive, withdrawals and fees negative. RelatedID links a
// PERFORMANCE_FEE to the WITHDRAWAL that triggered it, and a FEE_TRANSFER
// to its PERFORMANCE_FEE.
type Transaction struct {
	ID          int64
	InvestorID  uuid.UUID
	Date        time.Time
	Kind        TransactionKind
	Amount      decimal.Decimal
	NAV         decimal.Decimal
	UnitsDelta  decimal.Decimal
	RelatedID   int64
	Description string
}

// HasNAV reports whether the transaction carries a valuation
func (t *Transaction) HasNAV() bool {
	return !t.NAV.IsNegative()
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.ID <= 0 {
		return errors.New("transaction ID must be positive")
	}
	if !t.Kind.Valid() {
		return errors.New("unknown transaction kind: " + string(t.Kind))
	}
	if t.Kind != KindValuationUpdate && t.InvestorID == uuid.Nil {
		return errors.New("transaction must reference an investor")
	}

	switch t.Kind {
	case KindContribution, KindFeeTransfer:
		if !t.Amount.IsPositive() || t.UnitsDelta.IsNegative() {
			return errors.New(string(t.Kind) + " must add a positive amount")
		}
	case KindWithdrawal, KindPerformanceFee:
		if !t.Amount.IsNegative() || t.UnitsDelta.IsPositive() {
			return errors.New(string(t.Kind) + " must remove a positive amount")
		}
	case KindValuationUpdate:
		if !t.UnitsDelta.IsZero() {
			return errors.New("valuation update cannot change units")
		}
		if !t.HasNAV() {
			return errors.New("valuation update must carry a nav")
		}
	}

	return nil
}

// TransactionLess orders transactions by (Date, ID).
// NAV history must always be sorted on this composite key.
func TransactionLess(a, b *Transaction) bool {
	if a.Date.Equal(b.Date) {
		return a.ID < b.ID
	}
	return a.Date.Before(b.Date)
}
