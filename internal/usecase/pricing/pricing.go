package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/fundledger-backend/internal/domain"
)

// DefaultBootstrapPrice is the unit price of an empty fund
var DefaultBootstrapPrice = decimal.NewFromInt(10000)

// TotalUnits sums the units of every tranche
func TotalUnits(tranches []domain.Tranche) decimal.Decimal {
	total := decimal.Zero
	for i := range tranches {
		total = total.Add(tranches[i].Units)
	}
	return total
}

// PricePerUnit converts a total fund valuation into a price per unit.
// Logic:
//   - No tranches, or total units ≈ 0: the bootstrap price
//   - nav <= 0: zero (callers reject negative navs before getting here)
//   - Otherwise: nav / total units
func PricePerUnit(tranches []domain.Tranche, nav, bootstrap decimal.Decimal) decimal.Decimal {
	units := TotalUnits(tranches)
	if len(tranches) == 0 || units.LessThanOrEqual(domain.Epsilon) {
		return bootstrap
	}

	if nav.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return nav.Div(units)
}
