package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// AddInvestor registers a new investor. A nil ID is replaced by a fresh one
// and a zero join date by the current time.
func (p *Processor) AddInvestor(ctx context.Context, inv domain.Investor) (*Receipt, error) {
	return p.execute(ctx, "add investor", func() (*Receipt, error) {
		if inv.ID == uuid.Nil {
			inv.ID = uuid.New()
		}
		if inv.JoinDate.IsZero() {
			inv.JoinDate = p.now()
		}
		if err := inv.Validate(); err != nil {
			return nil, domain.NewError(domain.KindInputValidation, "add investor", err)
		}
		if _, ok := p.investor(inv.ID); ok {
			return nil, domain.Invalid("add investor", domain.ErrDuplicateInvestor, "%s", inv.ID)
		}

		p.investors = append(p.investors, inv)
		return &Receipt{Message: fmt.Sprintf("Added investor %s (%s)", inv.Name, inv.ID)}, nil
	})
}

// EditInvestor updates an investor's display details.
// The operator flag and join date cannot be changed.
func (p *Processor) EditInvestor(ctx context.Context, inv domain.Investor) (*Receipt, error) {
	return p.execute(ctx, "edit investor", func() (*Receipt, error) {
		current, ok := p.investor(inv.ID)
		if !ok {
			return nil, domain.Invalid("edit investor", domain.ErrUnknownInvestor, "%s", inv.ID)
		}

		inv.IsFundOperator = current.IsFundOperator
		inv.JoinDate = current.JoinDate
		if err := inv.Validate(); err != nil {
			return nil, domain.NewError(domain.KindInputValidation, "edit investor", err)
		}

		for i := range p.investors {
			if p.investors[i].ID == inv.ID {
				p.investors[i] = inv
			}
		}
		return &Receipt{Message: fmt.Sprintf("Updated investor %s", inv.Name)}, nil
	})
}

// GetInvestor returns the investor with the given ID
func (p *Processor) GetInvestor(id uuid.UUID) (domain.Investor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	inv, ok := p.investor(id)
	if !ok {
		return domain.Investor{}, domain.Invalid("get investor", domain.ErrUnknownInvestor, "%s", id)
	}
	return inv, nil
}

// Investors returns every investor in registration order
func (p *Processor) Investors() []domain.Investor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Investor(nil), p.investors...)
}

func (p *Processor) investor(id uuid.UUID) (domain.Investor, bool) {
	for _, inv := range p.investors {
		if inv.ID == id {
			return inv, true
		}
	}
	return domain.Investor{}, false
}

// requireInvestor looks up a command's investor
func (p *Processor) requireInvestor(op string, id uuid.UUID) (domain.Investor, error) {
	inv, ok := p.investor(id)
	if !ok {
		return domain.Investor{}, domain.Invalid(op, domain.ErrUnknownInvestor, "%s", id)
	}
	return inv, nil
}

// requireOperator checks the fee recipient is registered
func (p *Processor) requireOperator(op string) error {
	if _, ok := p.investor(domain.FundOperatorID); !ok {
		return domain.Violation(op, domain.ErrMissingOperator, "operator %s is not registered", domain.FundOperatorID)
	}
	return nil
}

// IsUnknownInvestor reports whether err means the investor does not exist
func IsUnknownInvestor(err error) bool {
	return errors.Is(err, domain.ErrUnknownInvestor)
}
