package cli

import (
	"context"
	"flag"
	"strconv"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

// investorAddCmd holds the flags for the 'investor-add' subcommand
type investorAddCmd struct {
	env                      *Env
	name, email, phone, join string
}

func (*investorAddCmd) Name() string     { return "investor-add" }
func (*investorAddCmd) Synopsis() string { return "register a new investor" }
func (*investorAddCmd) Usage() string {
	return `fundctl investor-add -name <name> [-email <email>] [-phone <phone>] [-join <date>]

  Registers an investor and prints its ID.
`
}

func (c *investorAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "investor name")
	f.StringVar(&c.email, "email", "", "contact email")
	f.StringVar(&c.phone, "phone", "", "contact phone")
	f.StringVar(&c.join, "join", "", "join date, defaults to today")
}

func (c *investorAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		if err := noArgs(f); err != nil {
			return err
		}
		if c.name == "" {
			return usagef("-name is required")
		}
		join, err := c.env.date(c.join)
		if err != nil {
			return err
		}
		return c.env.receipt(fund.AddInvestor(ctx, domain.Investor{
			Name:     c.name,
			Email:    c.email,
			Phone:    c.phone,
			JoinDate: join,
		}))
	})
}

// investorEditCmd holds the flags for the 'investor-edit' subcommand
type investorEditCmd struct {
	env                          *Env
	investor, name, email, phone string
}

func (*investorEditCmd) Name() string     { return "investor-edit" }
func (*investorEditCmd) Synopsis() string { return "update an investor's contact details" }
func (*investorEditCmd) Usage() string {
	return `fundctl investor-edit -investor <id> [-name <name>] [-email <email>] [-phone <phone>]

  Updates the given fields; omitted fields keep their current value.
`
}

func (c *investorEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "investor ID")
	f.StringVar(&c.name, "name", "", "new name")
	f.StringVar(&c.email, "email", "", "new email")
	f.StringVar(&c.phone, "phone", "", "new phone")
}

func (c *investorEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id, err := parseInvestor(c.investor)
		if err != nil {
			return err
		}
		inv, err := fund.GetInvestor(id)
		if err != nil {
			return err
		}
		if c.name != "" {
			inv.Name = c.name
		}
		if c.email != "" {
			inv.Email = c.email
		}
		if c.phone != "" {
			inv.Phone = c.phone
		}
		return c.env.receipt(fund.EditInvestor(ctx, inv))
	})
}

type movement struct {
	investor    uuid.UUID
	amount, nav decimal.Decimal
	date        time.Time
}

// movementCmd is shared by 'deposit' and 'withdraw'
type movementCmd struct {
	env                         *Env
	investor, amount, nav, date string
}

func (c *movementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "investor ID")
	f.StringVar(&c.amount, "amount", "", "cash amount")
	f.StringVar(&c.nav, "nav", "", "fund NAV after the movement")
	f.StringVar(&c.date, "date", "", "movement date, defaults to now")
}

func (c *movementCmd) parse() (args movement, err error) {
	if args.investor, err = parseInvestor(c.investor); err != nil {
		return args, err
	}
	if args.amount, err = parseDecimal("amount", c.amount); err != nil {
		return args, err
	}
	if args.nav, err = parseDecimal("nav", c.nav); err != nil {
		return args, err
	}
	args.date, err = c.env.date(c.date)
	return args, err
}

type depositCmd struct{ movementCmd }

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "record a contribution" }
func (*depositCmd) Usage() string {
	return `fundctl deposit -investor <id> -amount <cash> -nav <nav after> [-date <date>]

  Buys units at the price implied by the NAV before the deposit.
`
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		m, err := c.parse()
		if err != nil {
			return err
		}
		return c.env.receipt(fund.Deposit(ctx, m.investor, m.amount, m.nav, m.date))
	})
}

type withdrawCmd struct{ movementCmd }

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "record a withdrawal, charging the performance fee" }
func (*withdrawCmd) Usage() string {
	return `fundctl withdraw -investor <id> -amount <net cash> -nav <nav after> [-date <date>]

  Redeems units nearest to the withdrawal date first. The amount is what the
  investor receives; the performance fee is charged on top and clamped when
  the whole position is withdrawn.
`
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		m, err := c.parse()
		if err != nil {
			return err
		}
		return c.env.receipt(fund.Withdraw(ctx, m.investor, m.amount, m.nav, m.date))
	})
}

// valuationCmd holds the flags for the 'valuation' subcommand
type valuationCmd struct {
	env       *Env
	nav, date string
}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "record a new fund NAV" }
func (*valuationCmd) Usage() string {
	return `fundctl valuation -nav <nav> [-date <date>]
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.nav, "nav", "", "fund NAV")
	f.StringVar(&c.date, "date", "", "valuation date, defaults to now")
}

func (c *valuationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		nav, err := parseDecimal("nav", c.nav)
		if err != nil {
			return err
		}
		date, err := c.env.date(c.date)
		if err != nil {
			return err
		}
		return c.env.receipt(fund.UpdateValuation(ctx, nav, date))
	})
}

// settleCmd holds the flags for the 'settle' subcommand
type settleCmd struct {
	env       *Env
	nav, date string
}

func (*settleCmd) Name() string     { return "settle" }
func (*settleCmd) Synopsis() string { return "charge and crystallize performance fees for every investor" }
func (*settleCmd) Usage() string {
	return `fundctl settle [-nav <nav>] [-date <date>]

  Uses the latest recorded NAV when -nav is omitted.
`
}

func (c *settleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.nav, "nav", "", "fund NAV, defaults to the latest")
	f.StringVar(&c.date, "date", "", "settlement date, defaults to now")
}

func (c *settleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		nav, err := navOrLatest(fund, c.nav)
		if err != nil {
			return err
		}
		date, err := c.env.date(c.date)
		if err != nil {
			return err
		}
		return c.env.receipt(fund.SettleFees(ctx, date, nav))
	})
}

// reverseCmd is shared by 'undo' and 'delete'
type reverseCmd struct {
	env *Env
	id  string
}

func (c *reverseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "transaction ID")
}

func (c *reverseCmd) parse() (int64, error) {
	id, err := strconv.ParseInt(c.id, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("-id must be a positive transaction ID, got %q", c.id)
	}
	return id, nil
}

type undoCmd struct{ reverseCmd }

func (*undoCmd) Name() string     { return "undo" }
func (*undoCmd) Synopsis() string { return "reverse one of the most recent transactions" }
func (*undoCmd) Usage() string {
	return `fundctl undo -id <transaction id>
`
}

func (c *undoCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id, err := c.parse()
		if err != nil {
			return err
		}
		return c.env.receipt(fund.Undo(ctx, id))
	})
}

type deleteCmd struct{ reverseCmd }

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a recent transaction and everything it caused" }
func (*deleteCmd) Usage() string {
	return `fundctl delete -id <transaction id>

  Refuses fee transactions that belong to a withdrawal; delete the
  withdrawal instead.
`
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id, err := c.parse()
		if err != nil {
			return err
		}
		return c.env.receipt(fund.Delete(ctx, id))
	})
}
