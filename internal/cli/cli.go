// Package cli implements the fundctl administration commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
	"github.com/simaogato/fundledger-backend/internal/usecase/fee"
	"github.com/simaogato/fundledger-backend/internal/usecase/processor"
	"github.com/simaogato/fundledger-backend/internal/usecase/txlog"
)

// Fund is the part of the processor the commands drive
type Fund interface {
	AddInvestor(ctx context.Context, inv domain.Investor) (*processor.Receipt, error)
	EditInvestor(ctx context.Context, inv domain.Investor) (*processor.Receipt, error)
	GetInvestor(id uuid.UUID) (domain.Investor, error)
	Investors() []domain.Investor

	Deposit(ctx context.Context, investorID uuid.UUID, amount, navAfter decimal.Decimal, date time.Time) (*processor.Receipt, error)
	Withdraw(ctx context.Context, investorID uuid.UUID, net, navAfter decimal.Decimal, date time.Time) (*processor.Receipt, error)
	UpdateValuation(ctx context.Context, nav decimal.Decimal, date time.Time) (*processor.Receipt, error)
	SettleFees(ctx context.Context, date time.Time, nav decimal.Decimal) (*processor.Receipt, error)
	Undo(ctx context.Context, id int64) (*processor.Receipt, error)
	Delete(ctx context.Context, id int64) (*processor.Receipt, error)

	InvestorBalance(investorID uuid.UUID, nav decimal.Decimal) (*processor.Balance, error)
	InvestorFeeDetail(investorID uuid.UUID, date time.Time, nav decimal.Decimal) (*fee.InvestorDetail, error)
	LatestNAV() (txlog.NAVPoint, bool)
	NAVAsOf(date time.Time) (txlog.NAVPoint, bool)
	NAVHistory() []txlog.NAVPoint
	Transactions(investorID uuid.UUID) []domain.Transaction
	Summary() processor.Summary
}

// Opener opens the fund for one command and returns the function that closes it
type Opener func(ctx context.Context) (Fund, func(context.Context) error, error)

// Env is shared by every command. As a CLI it lives for a single command.
type Env struct {
	Out      io.Writer
	Err      io.Writer
	Currency string
	Open     Opener
	Now      func() time.Time
}

// Register adds every fundctl command to c
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&investorAddCmd{env: env}, "investors")
	c.Register(&investorEditCmd{env: env}, "investors")
	c.Register(&investorsCmd{env: env}, "investors")

	c.Register(&depositCmd{movementCmd{env: env}}, "commands")
	c.Register(&withdrawCmd{movementCmd{env: env}}, "commands")
	c.Register(&valuationCmd{env: env}, "commands")
	c.Register(&settleCmd{env: env}, "commands")
	c.Register(&undoCmd{reverseCmd{env: env}}, "commands")
	c.Register(&deleteCmd{reverseCmd{env: env}}, "commands")

	c.Register(&balanceCmd{env: env}, "reports")
	c.Register(&feeCmd{env: env}, "reports")
	c.Register(&navCmd{env: env}, "reports")
	c.Register(&historyCmd{env: env}, "reports")
	c.Register(&transactionsCmd{env: env}, "reports")
	c.Register(&summaryCmd{env: env}, "reports")
}

// usageError marks a problem with the command line rather than the fund
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// run opens the fund, runs fn and closes the fund, mapping the outcome to
// an exit status
func (e *Env) run(ctx context.Context, fn func(Fund) error) subcommands.ExitStatus {
	fund, closeFund, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintf(e.Err, "Error opening fund: %v\n", err)
		return subcommands.ExitFailure
	}

	err = fn(fund)
	if cerr := closeFund(ctx); cerr != nil {
		fmt.Fprintf(e.Err, "Error closing fund: %v\n", cerr)
		if err == nil {
			return subcommands.ExitFailure
		}
	}

	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(e.Err, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		if kind := domain.KindOf(err); kind != 0 {
			fmt.Fprintf(e.Err, "Error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(e.Err, "Error: %v\n", err)
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// receipt prints a command result. A receipt together with an error means
// the command was applied in memory but not saved.
func (e *Env) receipt(r *processor.Receipt, err error) error {
	if r != nil {
		fmt.Fprintln(e.Out, r.Message)
		if len(r.TransactionIDs) > 0 {
			fmt.Fprintf(e.Out, "Transactions: %v\n", r.TransactionIDs)
		}
		if !r.Persisted {
			fmt.Fprintln(e.Err, "Warning: the change was not saved")
		}
	}
	return err
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// date parses raw, defaulting to now when empty
func (e *Env) date(raw string) (time.Time, error) {
	if raw == "" {
		return e.now().UTC(), nil
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, usageError{msg: err.Error()}
	}
	return t, nil
}

// money formats an amount in the fund currency, rounded to its minor unit
func (e *Env) money(d decimal.Decimal) string {
	cur := *money.New(0, e.Currency).Currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func parseDecimal(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, usagef("-%s is required", name)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, usagef("invalid -%s %q: %v", name, raw, err)
	}
	return d, nil
}

func parseInvestor(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, usagef("-investor is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, usagef("invalid -investor %q: %v", raw, err)
	}
	return id, nil
}

// navOrLatest parses raw, defaulting to the latest recorded NAV
func navOrLatest(f Fund, raw string) (decimal.Decimal, error) {
	if raw != "" {
		return parseDecimal("nav", raw)
	}
	point, ok := f.LatestNAV()
	if !ok {
		return decimal.Zero, usagef("no nav recorded yet; pass -nav")
	}
	return point.NAV, nil
}

func noArgs(f *flag.FlagSet) error {
	if f.NArg() > 0 {
		return usagef("unexpected arguments: %v", f.Args())
	}
	return nil
}
