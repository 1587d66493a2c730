package txlog

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

// Log is the append-only, monotonically identified transaction sequence.
// Entries are only ever removed through the reversal engine.
type Log struct {
	txs    []domain.Transaction
	nextID int64
}

// New creates a Log from previously persisted transactions.
// The next ID continues after the highest one seen.
func New(txs []domain.Transaction) *Log {
	l := &Log{}
	l.Restore(txs)
	return l
}

// Append assigns the next ID to tx, stores it and returns the stored copy
func (l *Log) Append(tx domain.Transaction) (domain.Transaction, error) {
	tx.ID = l.nextID
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, domain.NewError(domain.KindInputValidation, "append transaction", err)
	}
	l.nextID++
	l.txs = append(l.txs, tx)
	return tx, nil
}

// Len returns the number of transactions
func (l *Log) Len() int {
	return len(l.txs)
}

// NextID returns the ID the next appended transaction will receive
func (l *Log) NextID() int64 {
	return l.nextID
}

// Get returns the transaction with the given ID
func (l *Log) Get(id int64) (domain.Transaction, bool) {
	if i := l.index(id); i >= 0 {
		return l.txs[i], true
	}
	return domain.Transaction{}, false
}

// Delete removes the transaction with the given ID. IDs are never reused.
func (l *Log) Delete(id int64) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.txs = append(l.txs[:i], l.txs[i+1:]...)
	return true
}

// Snapshot returns a value copy of the log
func (l *Log) Snapshot() []domain.Transaction {
	out := make([]domain.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Restore replaces the log with a copy of snapshot
func (l *Log) Restore(snapshot []domain.Transaction) {
	l.txs = make([]domain.Transaction, len(snapshot))
	copy(l.txs, snapshot)
	l.nextID = 1
	for _, tx := range l.txs {
		if tx.ID >= l.nextID {
			l.nextID = tx.ID + 1
		}
	}
}

// RestoreSnapshot replaces the log with snapshot without ever lowering the
// ID counter, so IDs handed out before a rollback are not reused
func (l *Log) RestoreSnapshot(snapshot []domain.Transaction) {
	next := l.nextID
	l.Restore(snapshot)
	if next > l.nextID {
		l.nextID = next
	}
}

// Ordered returns a copy of the log sorted by (Date, ID)
func (l *Log) Ordered() []domain.Transaction {
	out := l.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return domain.TransactionLess(&out[i], &out[j])
	})
	return out
}

// Recent returns the n latest transactions by (Date, ID), latest first
func (l *Log) Recent(n int) []domain.Transaction {
	ordered := l.Ordered()
	out := make([]domain.Transaction, 0, n)
	for i := len(ordered) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, ordered[i])
	}
	return out
}

// IsRecent reports whether the transaction is among the n latest
func (l *Log) IsRecent(id int64, n int) bool {
	for _, tx := range l.Recent(n) {
		if tx.ID == id {
			return true
		}
	}
	return false
}

// Related returns the transactions whose RelatedID is id
func (l *Log) Related(id int64) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, tx := range l.txs {
		if tx.RelatedID == id {
			out = append(out, tx)
		}
	}
	return out
}

// ForInvestor returns the investor's transactions sorted by (Date, ID)
func (l *Log) ForInvestor(investorID uuid.UUID) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for _, tx := range l.Ordered() {
		if tx.InvestorID == investorID {
			out = append(out, tx)
		}
	}
	return out
}

// SumUnits sums the units delta of every transaction
func (l *Log) SumUnits() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range l.txs {
		total = total.Add(tx.UnitsDelta)
	}
	return total
}

// NAVPoint is one entry of the NAV history
type NAVPoint struct {
	TransactionID int64
	Date          time.Time
	NAV           decimal.Decimal
}

// History returns every transaction carrying a NAV, sorted by (Date, ID)
func (l *Log) History() []NAVPoint {
	out := make([]NAVPoint, 0)
	for _, tx := range l.Ordered() {
		if tx.HasNAV() {
			out = append(out, NAVPoint{TransactionID: tx.ID, Date: tx.Date, NAV: tx.NAV})
		}
	}
	return out
}

// LatestNAV returns the NAV of the latest (Date, ID) transaction carrying one
func (l *Log) LatestNAV() (NAVPoint, bool) {
	history := l.History()
	if len(history) == 0 {
		return NAVPoint{}, false
	}
	return history[len(history)-1], true
}

// NAVAsOf returns the latest NAV recorded on or before date
func (l *Log) NAVAsOf(date time.Time) (NAVPoint, bool) {
	var found NAVPoint
	ok := false
	for _, p := range l.History() {
		if p.Date.After(date) {
			break
		}
		found, ok = p, true
	}
	return found, ok
}

func (l *Log) index(id int64) int {
	for i := range l.txs {
		if l.txs[i].ID == id {
			return i
		}
	}
	return -1
}
