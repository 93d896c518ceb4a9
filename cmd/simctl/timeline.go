package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/simfolio/backend/internal/app"
)

// simFlag is embedded by commands that only take a simulation reference.
type simFlag struct {
	sim string
}

func (c *simFlag) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.sim, "sim", "", "Simulation id or name (required)")
}

type advanceCmd struct{ simFlag }

func (*advanceCmd) Name() string     { return "advance" }
func (*advanceCmd) Synopsis() string { return "move a simulation to its next month" }
func (*advanceCmd) Usage() string {
	return `advance -sim <id|name>

  Snapshots the simulation, pays the next month's dividends and reprices
  every holding. Prints the advance report.
`
}

func (c *advanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		report, err := a.Time.Advance(ctx, sim.ID)
		if err != nil {
			return err
		}
		return printJSON(report)
	})
}

type canAdvanceCmd struct{ simFlag }

func (*canAdvanceCmd) Name() string     { return "can-advance" }
func (*canAdvanceCmd) Synopsis() string { return "check whether a simulation can advance" }
func (*canAdvanceCmd) Usage() string {
	return `can-advance -sim <id|name>
`
}

func (c *canAdvanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		check, err := a.Time.CanAdvance(ctx, sim.ID)
		if err != nil {
			return err
		}
		return printJSON(check)
	})
}

type snapshotCmd struct {
	simFlag
	info bool
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "capture or describe the undo checkpoint" }
func (*snapshotCmd) Usage() string {
	return `snapshot -sim <id|name> [-info]
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	c.simFlag.SetFlags(f)
	f.BoolVar(&c.info, "info", false, "Describe the checkpoint instead of capturing one")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		if c.info {
			info, err := a.Snapshots.Info(ctx, sim.ID)
			if err != nil {
				return err
			}
			return printJSON(info)
		}
		snap, err := a.Snapshots.Capture(ctx, sim.ID)
		if err != nil {
			return err
		}
		fmt.Printf("captured %s at %s with %d holdings\n", sim.Name, snap.MonthDate.Format("2006-01"), len(snap.Holdings))
		return nil
	})
}

type undoCmd struct{ simFlag }

func (*undoCmd) Name() string     { return "undo" }
func (*undoCmd) Synopsis() string { return "restore a simulation to its checkpoint" }
func (*undoCmd) Usage() string {
	return `undo -sim <id|name>

  Restores date, balance and holdings and deletes history from the
  checkpoint month on.
`
}

func (c *undoCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(ctx context.Context, a *app.App) error {
		sim, err := resolve(ctx, a, c.sim)
		if err != nil {
			return err
		}
		sim, err = a.Snapshots.Restore(ctx, sim.ID)
		if err != nil {
			return err
		}
		fmt.Printf("restored %s to %s\n", sim.Name, sim.CurrentMonth().Format("2006-01"))
		return nil
	})
}
