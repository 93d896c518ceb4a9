package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/simfolio/backend/internal/app"
	"github.com/simfolio/backend/internal/models"
	"github.com/simfolio/backend/internal/money"
)

type createCmd struct {
	name     string
	start    string
	currency string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new simulation" }
func (*createCmd) Usage() string {
	return `create -name <name> -start <YYYY-MM> -currency <ISO code>

  Opens a simulation with a zero balance at the first day of the start month.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Unique simulation name (required)")
	f.StringVar(&c.start, "start", "", "Start month, YYYY-MM (required)")
	f.StringVar(&c.currency, "currency", "USD", "Base currency, 3-letter code")
}

func (c *createCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		start, err := parseMonth("start", c.start)
		if err != nil {
			return err
		}
		sim, err := a.Simulations.Create(ctx, models.CreateSimulationRequest{
			Name:         c.name,
			StartDate:    start,
			BaseCurrency: c.currency,
		})
		if err != nil {
			return err
		}
		return printJSON(sim)
	})
}

type listCmd struct {
	offset int
	limit  int
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list simulations, newest first" }
func (*listCmd) Usage() string {
	return `list [-offset <n>] [-limit <n>]
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.offset, "offset", 0, "Number of simulations to skip")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of simulations")
}

func (c *listCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sims, err := a.Simulations.List(ctx, c.offset, c.limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCURRENT\tBALANCE")
		for _, s := range sims {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.CurrentMonth().Format("2006-01"), money.Format(s.Balance, s.BaseCurrency))
		}
		return w.Flush()
	})
}

type deleteCmd struct {
	sim string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a simulation and everything it owns" }
func (*deleteCmd) Usage() string {
	return `delete -sim <id|name>
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		if err := a.Simulations.Delete(ctx, sim.ID); err != nil {
			return err
		}
		fmt.Printf("deleted %s (%s)\n", sim.Name, sim.ID)
		return nil
	})
}

type historyCmd struct {
	sim string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the operation log of a simulation" }
func (*historyCmd) Usage() string {
	return `history -sim <id|name>
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		history, err := a.Simulations.History(ctx, sim.ID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MONTH\tTYPE\tTICKER\tAMOUNT\tBALANCE")
		for _, m := range history.Months {
			for i, op := range m.Operations {
				ticker, balance := "", ""
				if op.Ticker != nil {
					ticker = *op.Ticker
				}
				if i == len(m.Operations)-1 {
					balance = money.Format(m.Total, sim.BaseCurrency)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.MonthDate.Format("2006-01"), op.Type, ticker, op.Amount.String(), balance)
			}
		}
		return w.Flush()
	})
}
