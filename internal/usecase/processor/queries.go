package processor

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
	"github.com/simaogato/fundledger-backend/internal/usecase/pricing"
	"github.com/simaogato/fundledger-backend/internal/usecase/txlog"
)

// Balance is an investor's position valued at a given NAV
type Balance struct {
	InvestorID uuid.UUID
	Units      decimal.Decimal
	Price      decimal.Decimal
	Balance    decimal.Decimal
	Profit     decimal.Decimal
	ProfitPct  decimal.Decimal
}

// Summary describes the whole fund at its latest valuation
type Summary struct {
	NAV          decimal.Decimal
	NAVDate      time.Time
	HasNAV       bool
	Price        decimal.Decimal
	TotalUnits   decimal.Decimal
	Tranches     int
	Investors    int
	Transactions int
	FeeRecords   int
}

// PricePerUnit converts nav into a price per unit
func (p *Processor) PricePerUnit(nav decimal.Decimal) (decimal.Decimal, error) {
	if nav.IsNegative() {
		return decimal.Zero, domain.Invalid("price", domain.ErrNegativeNAV, "got %s", nav)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return pricing.PricePerUnit(p.state.Tranches.All(), nav, p.cfg.BootstrapPrice), nil
}

// InvestorBalance values an investor's units at nav
func (p *Processor) InvestorBalance(investorID uuid.UUID, nav decimal.Decimal) (*Balance, error) {
	detail, price, err := p.assess("balance", investorID, p.now(), nav)
	if err != nil {
		return nil, err
	}
	return &Balance{
		InvestorID: investorID,
		Units:      detail.Units,
		Price:      price,
		Balance:    detail.Balance,
		Profit:     detail.Profit,
		ProfitPct:  detail.ProfitPct,
	}, nil
}

// InvestorFeeDetail computes the fee an investor would owe at date and nav
func (p *Processor) InvestorFeeDetail(investorID uuid.UUID, date time.Time, nav decimal.Decimal) (*fee.InvestorDetail, error) {
	detail, _, err := p.assess("fee detail", investorID, date, nav)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (p *Processor) assess(op string, investorID uuid.UUID, date time.Time, nav decimal.Decimal) (fee.InvestorDetail, decimal.Decimal, error) {
	if nav.IsNegative() {
		return fee.InvestorDetail{}, decimal.Zero, domain.Invalid(op, domain.ErrNegativeNAV, "got %s", nav)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.requireInvestor(op, investorID); err != nil {
		return fee.InvestorDetail{}, decimal.Zero, err
	}
	price := pricing.PricePerUnit(p.state.Tranches.All(), nav, p.cfg.BootstrapPrice)
	return p.fees.AssessInvestor(p.state.Tranches.ForInvestor(investorID), date, price), price, nil
}

// LatestNAV returns the NAV of the latest transaction carrying one
func (p *Processor) LatestNAV() (txlog.NAVPoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Log.LatestNAV()
}

// NAVAsOf returns the latest NAV recorded on or before date
func (p *Processor) NAVAsOf(date time.Time) (txlog.NAVPoint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Log.NAVAsOf(date)
}

// NAVHistory returns every recorded NAV ordered by (Date, ID)
func (p *Processor) NAVHistory() []txlog.NAVPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Log.History()
}

// Transactions returns the log ordered by (Date, ID).
// A nil investorID returns every transaction.
func (p *Processor) Transactions(investorID uuid.UUID) []domain.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	if investorID == uuid.Nil {
		return p.state.Log.Ordered()
	}
	return p.state.Log.ForInvestor(investorID)
}

// Tranches returns an investor's open tranches in ledger order
func (p *Processor) Tranches(investorID uuid.UUID) []domain.Tranche {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Tranches.ForInvestor(investorID)
}

// FeeRecords returns an investor's fee records in booking order
func (p *Processor) FeeRecords(investorID uuid.UUID) []domain.FeeRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Fees.ForInvestor(investorID)
}

// Summary describes the fund at its latest NAV
func (p *Processor) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Summary{
		TotalUnits:   p.state.Tranches.TotalUnits(),
		Tranches:     p.state.Tranches.Len(),
		Investors:    len(p.investors),
		Transactions: p.state.Log.Len(),
		FeeRecords:   p.state.Fees.Len(),
		NAV:          decimal.Zero,
	}
	if point, ok := p.state.Log.LatestNAV(); ok {
		s.NAV, s.NAVDate, s.HasNAV = point.NAV, point.Date, true
	}
	s.Price = pricing.PricePerUnit(p.state.Tranches.All(), s.NAV, p.cfg.BootstrapPrice)
	return s
}
