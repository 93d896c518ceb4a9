// Command simctl drives simulations from the terminal against the same
// database as the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/simfolio/backend/internal/app"
	"github.com/simfolio/backend/internal/config"
	apperrors "github.com/simfolio/backend/internal/errors"
	"github.com/simfolio/backend/internal/logger"
	"github.com/simfolio/backend/internal/models"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file")
	logLevel   = flag.String("log-level", "warn", "Log level for diagnostics written to stderr")
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// register installs every simctl command.
func register(c *subcommands.Commander) {
	c.Register(&createCmd{}, "simulations")
	c.Register(&listCmd{}, "simulations")
	c.Register(&deleteCmd{}, "simulations")
	c.Register(&historyCmd{}, "simulations")

	c.Register(newBalanceCmd("deposit", models.Credit, models.OperationContribution), "balance")
	c.Register(newBalanceCmd("withdraw", models.Debit, models.OperationWithdrawal), "balance")
	c.Register(&tradeCmd{name: "buy"}, "trading")
	c.Register(&tradeCmd{name: "sell"}, "trading")
	c.Register(&holdingsCmd{}, "trading")

	c.Register(&advanceCmd{}, "time")
	c.Register(&canAdvanceCmd{}, "time")
	c.Register(&snapshotCmd{}, "time")
	c.Register(&undoCmd{}, "time")

	c.Register(&rateCmd{}, "market")
	c.Register(&indexCmd{}, "market")
}

// run opens the app, runs fn and maps its error to an exit status.
func run(ctx context.Context, fn func(ctx context.Context, a *app.App) error) subcommands.ExitStatus {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	zl, err := logger.New(cfg.App.Env, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer zl.Sync()

	a, err := app.New(cfg, zl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if apperrors.Is(err, apperrors.KindValidation) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// resolve finds a simulation by id, then by name.
func resolve(ctx context.Context, a *app.App, ref string) (*models.Simulation, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperrors.Validation("sim", "is required")
	}
	sim, err := a.Simulations.Get(ctx, ref)
	if apperrors.Is(err, apperrors.KindSimulationNotFound) {
		return a.Simulations.GetByName(ctx, ref)
	}
	return sim, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperrors.Validation(field, "%q is not a decimal number", s)
	}
	return d, nil
}

func parseMonth(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return models.MonthOf(t), nil
		}
	}
	return time.Time{}, apperrors.Validation(field, "%q is not a month (use YYYY-MM)", s)
}
