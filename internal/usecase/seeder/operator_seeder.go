package seeder

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
)

// DefaultOperatorName is used when no operator name is configured
const DefaultOperatorName = "Fund Operator"

// InvestorRegistry is the part of the processor the seeder needs
type InvestorRegistry interface {
	GetInvestor(id uuid.UUID) (domain.Investor, error)
	AddInvestor(ctx context.Context, inv domain.Investor) (*processor.Receipt, error)
}

// OperatorSeeder makes sure the fund operator exists before fees can be charged
type OperatorSeeder struct {
	registry InvestorRegistry
	name     string
}

// NewOperatorSeeder creates a new OperatorSeeder instance
func NewOperatorSeeder(registry InvestorRegistry, name string) *OperatorSeeder {
	if name == "" {
		name = DefaultOperatorName
	}
	return &OperatorSeeder{
		registry: registry,
		name:     name,
	}
}

// Seed registers the operator under its reserved ID if it is missing.
// It reports whether the operator was created.
func (s *OperatorSeeder) Seed(ctx context.Context) (bool, error) {
	_, err := s.registry.GetInvestor(domain.FundOperatorID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUnknownInvestor) {
		return false, err
	}

	operator := domain.Investor{
		ID:             domain.FundOperatorID,
		Name:           s.name,
		IsFundOperator: true,
	}
	if _, err := s.registry.AddInvestor(ctx, operator); err != nil {
		return false, err
	}
	return true, nil
}
