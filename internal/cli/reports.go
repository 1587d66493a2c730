package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

func (e *Env) table() *tabwriter.Writer {
	return tabwriter.NewWriter(e.Out, 0, 0, 2, ' ', 0)
}

// investorsCmd lists the registered investors
type investorsCmd struct{ env *Env }

func (*investorsCmd) Name() string             { return "investors" }
func (*investorsCmd) Synopsis() string         { return "list registered investors" }
func (*investorsCmd) Usage() string            { return "fundctl investors\n" }
func (*investorsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *investorsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		w := c.env.table()
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tJOINED\tOPERATOR")
		for _, inv := range fund.Investors() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", inv.ID, inv.Name, inv.Email, inv.JoinDate.Format(time.DateOnly), inv.IsFundOperator)
		}
		return w.Flush()
	})
}

// balanceCmd holds the flags for the 'balance' subcommand
type balanceCmd struct {
	env           *Env
	investor, nav string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show an investor's units and value" }
func (*balanceCmd) Usage() string {
	return `fundctl balance -investor <id> [-nav <nav>]

  Values the position at the latest recorded NAV unless -nav is given.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "investor ID")
	f.StringVar(&c.nav, "nav", "", "fund NAV, defaults to the latest")
}

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id, err := parseInvestor(c.investor)
		if err != nil {
			return err
		}
		nav, err := navOrLatest(fund, c.nav)
		if err != nil {
			return err
		}
		b, err := fund.InvestorBalance(id, nav)
		if err != nil {
			return err
		}

		w := c.env.table()
		fmt.Fprintf(w, "Units:\t%s\n", b.Units.StringFixed(6))
		fmt.Fprintf(w, "Price per unit:\t%s\n", c.env.money(b.Price))
		fmt.Fprintf(w, "Balance:\t%s\n", c.env.money(b.Balance))
		fmt.Fprintf(w, "Profit:\t%s (%s%%)\n", c.env.money(b.Profit), b.ProfitPct.StringFixed(2))
		return w.Flush()
	})
}

// feeCmd holds the flags for the 'fee' subcommand
type feeCmd struct {
	env                 *Env
	investor, nav, date string
}

func (*feeCmd) Name() string     { return "fee" }
func (*feeCmd) Synopsis() string { return "show the performance fee an investor would owe" }
func (*feeCmd) Usage() string {
	return `fundctl fee -investor <id> [-nav <nav>] [-date <date>]

  Breaks the fee down per tranche: hurdle price, threshold and excess.
`
}

func (c *feeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "investor ID")
	f.StringVar(&c.nav, "nav", "", "fund NAV, defaults to the latest")
	f.StringVar(&c.date, "date", "", "assessment date, defaults to now")
}

func (c *feeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id, err := parseInvestor(c.investor)
		if err != nil {
			return err
		}
		nav, err := navOrLatest(fund, c.nav)
		if err != nil {
			return err
		}
		date, err := c.env.date(c.date)
		if err != nil {
			return err
		}
		d, err := fund.InvestorFeeDetail(id, date, nav)
		if err != nil {
			return err
		}

		w := c.env.table()
		fmt.Fprintln(w, "TRANCHE\tUNITS\tYEARS\tHURDLE PRICE\tTHRESHOLD\tEXCESS\tFEE")
		for _, t := range d.Tranches {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
				t.TrancheID.String()[:8], t.Units.StringFixed(6), t.Years,
				c.env.money(t.HurdlePrice), c.env.money(t.Threshold),
				c.env.money(t.Excess), c.env.money(t.Fee))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Balance:\t%s\n", c.env.money(d.Balance))
		fmt.Fprintf(w, "Invested:\t%s\n", c.env.money(d.InvestedValue))
		fmt.Fprintf(w, "Profit:\t%s (%s%%)\n", c.env.money(d.Profit), d.ProfitPct.StringFixed(2))
		fmt.Fprintf(w, "Fee:\t%s\n", c.env.money(d.Fee))
		fmt.Fprintf(w, "Net balance:\t%s\n", c.env.money(d.NetBalance()))
		return w.Flush()
	})
}

// navCmd holds the flags for the 'nav' subcommand
type navCmd struct {
	env  *Env
	date string
}

func (*navCmd) Name() string     { return "nav" }
func (*navCmd) Synopsis() string { return "show the latest NAV, or the NAV as of a date" }
func (*navCmd) Usage() string {
	return `fundctl nav [-date <date>]
`
}

func (c *navCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "report the NAV as of this date")
}

func (c *navCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		point, ok := fund.LatestNAV()
		if c.date != "" {
			date, err := c.env.date(c.date)
			if err != nil {
				return err
			}
			point, ok = fund.NAVAsOf(date)
		}
		if !ok {
			fmt.Fprintln(c.env.Out, "No NAV recorded")
			return nil
		}
		fmt.Fprintf(c.env.Out, "%s  %s  (transaction %d)\n", point.Date.Format(time.DateOnly), c.env.money(point.NAV), point.TransactionID)
		return nil
	})
}

// historyCmd lists every recorded NAV
type historyCmd struct{ env *Env }

func (*historyCmd) Name() string             { return "history" }
func (*historyCmd) Synopsis() string         { return "list the NAV history" }
func (*historyCmd) Usage() string            { return "fundctl history\n" }
func (*historyCmd) SetFlags(_ *flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		w := c.env.table()
		fmt.Fprintln(w, "DATE\tTX\tNAV")
		for _, p := range fund.NAVHistory() {
			fmt.Fprintf(w, "%s\t%d\t%s\n", p.Date.Format(time.DateOnly), p.TransactionID, c.env.money(p.NAV))
		}
		return w.Flush()
	})
}

// transactionsCmd holds the flags for the 'transactions' subcommand
type transactionsCmd struct {
	env      *Env
	investor string
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list the transaction log" }
func (*transactionsCmd) Usage() string {
	return `fundctl transactions [-investor <id>]
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.investor, "investor", "", "only this investor's transactions")
}

func (c *transactionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		id := uuid.Nil
		if c.investor != "" {
			var err error
			if id, err = parseInvestor(c.investor); err != nil {
				return err
			}
		}

		w := c.env.table()
		fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tUNITS\tRELATED\tDESCRIPTION")
		for _, tx := range fund.Transactions(id) {
			related := ""
			if tx.RelatedID != 0 {
				related = fmt.Sprint(tx.RelatedID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.ID, tx.Date.Format(time.DateOnly), tx.Kind, c.env.money(tx.Amount),
				tx.UnitsDelta.StringFixed(6), related, tx.Description)
		}
		return w.Flush()
	})
}

// summaryCmd prints the fund summary
type summaryCmd struct{ env *Env }

func (*summaryCmd) Name() string             { return "summary" }
func (*summaryCmd) Synopsis() string         { return "show fund totals at the latest NAV" }
func (*summaryCmd) Usage() string            { return "fundctl summary\n" }
func (*summaryCmd) SetFlags(_ *flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.env.run(ctx, func(fund Fund) error {
		s := fund.Summary()
		w := c.env.table()
		if s.HasNAV {
			fmt.Fprintf(w, "NAV:\t%s (%s)\n", c.env.money(s.NAV), s.NAVDate.Format(time.DateOnly))
		} else {
			fmt.Fprintln(w, "NAV:\tnone recorded")
		}
		fmt.Fprintf(w, "Price per unit:\t%s\n", c.env.money(s.Price))
		fmt.Fprintf(w, "Total units:\t%s\n", s.TotalUnits.StringFixed(6))
		fmt.Fprintf(w, "Investors:\t%d\n", s.Investors)
		fmt.Fprintf(w, "Open tranches:\t%d\n", s.Tranches)
		fmt.Fprintf(w, "Transactions:\t%d\n", s.Transactions)
		fmt.Fprintf(w, "Fee records:\t%d\n", s.FeeRecords)
		return w.Flush()
	})
}
