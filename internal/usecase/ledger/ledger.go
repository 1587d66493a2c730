package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

// Ledger is the collection of open tranches of every investor.
// Iteration order is insertion order and is never re-sorted: fee
// allocation depends on it being stable.
type Ledger struct {
	tranches []domain.Tranche
}

// New creates a Ledger holding a copy of tranches
func New(tranches []domain.Tranche) *Ledger {
	l := &Ledger{}
	l.Restore(tranches)
	return l
}

// Len returns the number of tranches
func (l *Ledger) Len() int {
	return len(l.tranches)
}

// All returns a copy of every tranche
func (l *Ledger) All() []domain.Tranche {
	return l.Snapshot()
}

// Snapshot returns a value copy of the collection
func (l *Ledger) Snapshot() []domain.Tranche {
	out := make([]domain.Tranche, len(l.tranches))
	copy(out, l.tranches)
	return out
}

// Restore replaces the collection with a copy of snapshot
func (l *Ledger) Restore(snapshot []domain.Tranche) {
	l.tranches = make([]domain.Tranche, len(snapshot))
	copy(l.tranches, snapshot)
}

// TotalUnits sums the units of every tranche
func (l *Ledger) TotalUnits() decimal.Decimal {
	total := decimal.Zero
	for i := range l.tranches {
		total = total.Add(l.tranches[i].Units)
	}
	return total
}

// IsEmpty reports whether the fund holds no units
func (l *Ledger) IsEmpty() bool {
	return l.TotalUnits().LessThanOrEqual(domain.Epsilon)
}

// ForInvestor returns copies of the investor's tranches in ledger order
func (l *Ledger) ForInvestor(investorID uuid.UUID) []domain.Tranche {
	out := make([]domain.Tranche, 0)
	for i := range l.tranches {
		if l.tranches[i].InvestorID == investorID {
			out = append(out, l.tranches[i])
		}
	}
	return out
}

// InvestorUnits sums the units held by one investor
func (l *Ledger) InvestorUnits(investorID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for i := range l.tranches {
		if l.tranches[i].InvestorID == investorID {
			total = total.Add(l.tranches[i].Units)
		}
	}
	return total
}

// Get returns a copy of the tranche with the given ID
func (l *Ledger) Get(trancheID uuid.UUID) (domain.Tranche, bool) {
	if i := l.index(trancheID); i >= 0 {
		return l.tranches[i], true
	}
	return domain.Tranche{}, false
}

// Add appends a tranche
func (l *Ledger) Add(t domain.Tranche) {
	l.tranches = append(l.tranches, t)
}

// Remove deletes the tranche with the given ID
func (l *Ledger) Remove(trancheID uuid.UUID) bool {
	i := l.index(trancheID)
	if i < 0 {
		return false
	}
	l.tranches = append(l.tranches[:i], l.tranches[i+1:]...)
	return true
}

// Collect removes tranches whose units fell below Epsilon and returns how many were removed
func (l *Ledger) Collect() int {
	kept := l.tranches[:0]
	removed := 0
	for _, t := range l.tranches {
		if t.IsOpen() {
			kept = append(kept, t)
		} else {
			removed++
		}
	}
	l.tranches = kept
	return removed
}

// Deposit opens a new tranche for amount at price.
// Logic: units = amount / price, entry price = HWM = price.
func (l *Ledger) Deposit(investorID uuid.UUID, amount, price decimal.Decimal, date time.Time) domain.Tranche {
	t := domain.NewTranche(investorID, date, price, amount.Div(price))
	l.Add(t)
	return t
}

// CreditOperator books fee units to the fund operator at price. Units are
// merged into an operator tranche entered on the same date at the same
// price, otherwise a new tranche is opened.
func (l *Ledger) CreditOperator(units, price decimal.Decimal, date time.Time) domain.Tranche {
	for i := range l.tranches {
		t := &l.tranches[i]
		if t.InvestorID == domain.FundOperatorID && t.EntryDate.Equal(date) && t.EntryPrice.Equal(price) {
			t.OriginalInvestedValue = t.OriginalInvestedValue.Add(units.Mul(price))
			t.Units = t.Units.Add(units)
			return *t
		}
	}
	t := domain.NewTranche(domain.FundOperatorID, date, price, units)
	l.Add(t)
	return t
}

func (l *Ledger) index(trancheID uuid.UUID) int {
	for i := range l.tranches {
		if l.tranches[i].ID == trancheID {
			return i
		}
	}
	return -1
}
