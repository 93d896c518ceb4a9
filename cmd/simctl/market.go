package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/simfolio/backend/internal/app"
	apperrors "github.com/simfolio/backend/internal/errors"
)

type rateCmd struct {
	from   string
	to     string
	month  string
	rate   string
	source string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "store a monthly exchange rate" }
func (*rateCmd) Usage() string {
	return `rate -from <ccy> -to <ccy> -month <YYYY-MM> -rate <rate> [-source <name>]

  One unit of -from buys -rate units of -to. Replaces any rate already
  stored for that pair and month.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source currency (required)")
	f.StringVar(&c.to, "to", "", "Target currency (required)")
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM (required)")
	f.StringVar(&c.rate, "rate", "", "Closing rate (required)")
	f.StringVar(&c.source, "source", "manual", "Where the rate comes from")
}

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		month, err := parseMonth("month", c.month)
		if err != nil {
			return err
		}
		rate, err := parseAmount("rate", c.rate)
		if err != nil {
			return err
		}
		if err := a.Currencies.StoreRate(ctx, c.from, c.to, month, rate, c.source); err != nil {
			return err
		}
		fmt.Printf("stored %s->%s %s for %s\n", c.from, c.to, rate.String(), month.Format("2006-01"))
		return nil
	})
}

type indexCmd struct {
	currency string
	month    string
	value    string
	source   string
}

func (*indexCmd) Name() string     { return "index" }
func (*indexCmd) Synopsis() string { return "store a monthly inflation index value" }
func (*indexCmd) Usage() string {
	return `index -currency <ccy> -month <YYYY-MM> -value <value> [-source <name>]

  Stores one value of the price index (CPI, IPCA, ...) used to adjust
  amounts in that currency for inflation.
`
}

func (c *indexCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "Currency the index deflates (required)")
	f.StringVar(&c.month, "month", "", "Month, YYYY-MM (required)")
	f.StringVar(&c.value, "value", "", "Index value (required)")
	f.StringVar(&c.source, "source", "manual", "Publisher of the index")
}

func (c *indexCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		if c.currency == "" {
			return apperrors.Validation("currency", "is required")
		}
		month, err := parseMonth("month", c.month)
		if err != nil {
			return err
		}
		value, err := parseAmount("value", c.value)
		if err != nil {
			return err
		}
		provider := a.Index(c.currency)
		if err := provider.Store(ctx, month, value, c.source); err != nil {
			return err
		}
		fmt.Printf("stored %s index %s for %s\n", provider.Currency(), value.String(), month.Format("2006-01"))
		return nil
	})
}
