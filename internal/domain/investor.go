package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FundOperatorID is the reserved identity of the fund operator.
// Performance fees are transferred to this investor as new units.
var FundOperatorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Investor represents a fund participant
type Investor struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Phone          string
	JoinDate       time.Time
	IsFundOperator bool
}

// Validate ensures the investor adheres to domain rules
func (i *Investor) Validate() error {
	if i.ID == uuid.Nil {
		return errors.New("investor ID cannot be empty")
	}
	if i.Name == "" {
		return errors.New("investor name cannot be empty")
	}

	// Only the reserved identity may carry the operator flag, and it must carry it
	if i.IsFundOperator && i.ID != FundOperatorID {
		return errors.New("only the reserved operator ID can be the fund operator")
	}
	if !i.IsFundOperator && i.ID == FundOperatorID {
		return errors.New("the reserved operator ID must be flagged as fund operator")
	}

	return nil
}
