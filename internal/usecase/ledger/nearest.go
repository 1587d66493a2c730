package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

// sortNearest orders tranches by distance of entry date to date, then by
// distance of size to units. Ties keep ledger order.
func sortNearest(tranches []domain.Tranche, units decimal.Decimal, date time.Time) {
	sort.SliceStable(tranches, func(i, j int) bool {
		di := absDuration(tranches[i].EntryDate.Sub(date))
		dj := absDuration(tranches[j].EntryDate.Sub(date))
		if di != dj {
			return di < dj
		}
		return tranches[i].Units.Sub(units).Abs().LessThan(tranches[j].Units.Sub(units).Abs())
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
