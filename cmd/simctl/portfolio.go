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

type balanceCmd struct {
	name      string
	direction models.Direction
	category  models.OperationType

	sim       string
	amount    string
	inflation bool
}

func newBalanceCmd(name string, direction models.Direction, category models.OperationType) *balanceCmd {
	return &balanceCmd{name: name, direction: direction, category: category}
}

func (c *balanceCmd) Name() string { return c.name }
func (c *balanceCmd) Synopsis() string {
	return fmt.Sprintf("record a %s in the current month", c.category)
}
func (c *balanceCmd) Usage() string {
	return c.name + ` -sim <id|name> -amount <amount> [-inflation]

  -inflation deflates the amount from today's money to the simulation's month.
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
	f.StringVar(&c.amount, "amount", "", "Amount in the simulation currency (required)")
	f.BoolVar(&c.inflation, "inflation", false, "Adjust the amount for inflation")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", c.amount)
		if err != nil {
			return err
		}
		sim, err = a.Ledger.Apply(ctx, sim.ID, models.BalanceOperation{
			Amount:          amount,
			Direction:       c.direction,
			Category:        c.category,
			AdjustInflation: c.inflation,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s balance: %s\n", sim.Name, money.Format(sim.Balance, sim.BaseCurrency))
		return nil
	})
}

type tradeCmd struct {
	name   string
	sim    string
	ticker string
	amount string
}

func (c *tradeCmd) Name() string { return c.name }
func (c *tradeCmd) Synopsis() string {
	return c.name + " an asset for an amount of the simulation currency"
}
func (c *tradeCmd) Usage() string {
	return c.name + ` -sim <id|name> -ticker <ticker> -amount <amount>

  Trades at the close of the simulation's current month.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
	f.StringVar(&c.ticker, "ticker", "", "Asset ticker (required)")
	f.StringVar(&c.amount, "amount", "", "Amount in the simulation currency (required)")
}

func (c *tradeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", c.amount)
		if err != nil {
			return err
		}
		req := models.TradeRequest{Ticker: c.ticker, DesiredAmount: amount}

		exec := a.Trading.Purchase
		if c.name == "sell" {
			exec = a.Trading.Sell
		}
		res, err := exec(ctx, sim.ID, req)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s @ %s = %s, balance %s\n",
			c.name, res.Quantity.String(), res.Ticker,
			money.Format(res.Price, sim.BaseCurrency),
			money.Format(res.Amount, sim.BaseCurrency),
			money.Format(res.Simulation.Balance, sim.BaseCurrency))
		return nil
	})
}

type holdingsCmd struct {
	sim     string
	refresh bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "print holdings and the portfolio summary" }
func (*holdingsCmd) Usage() string {
	return `holdings -sim <id|name> [-refresh]
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
	f.BoolVar(&c.refresh, "refresh", false, "Reprice holdings at the current month first")
}

func (c *holdingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		if c.refresh {
			if _, err := a.Holdings.RecomputeAll(ctx, sim.ID); err != nil {
				return err
			}
		}
		holdings, err := a.Holdings.List(ctx, sim.ID)
		if err != nil {
			return err
		}
		summary, err := a.Holdings.Summary(ctx, sim.ID)
		if err != nil {
			return err
		}

		ccy := sim.BaseCurrency
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "TICKER\tQUANTITY\tPURCHASE\tPRICE\tVALUE\tWEIGHT %\t")
		for _, h := range holdings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", h.Ticker, h.Quantity.StringFixed(6),
				money.Format(h.PurchasePrice, ccy), money.Format(h.CurrentPrice, ccy),
				money.Format(h.MarketValue, ccy), h.Weight.StringFixed(2))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\ncash %s, invested %s, value %s, gain %s (%s%%)\n",
			money.Format(sim.Balance, ccy), money.Format(summary.TotalInvested, ccy),
			money.Format(summary.TotalMarketValue, ccy), money.Format(summary.TotalGainLoss, ccy),
			summary.GainLossPercentage.StringFixed(2))
		return nil
	})
}
