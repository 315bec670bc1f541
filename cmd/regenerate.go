package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tradelog/tradelog"
)

type regenerateCmd struct {
	from string
	to   string
}

func (*regenerateCmd) Name() string     { return "regenerate" }
func (*regenerateCmd) Synopsis() string { return "regenerate the snapshot history for a date range" }
func (*regenerateCmd) Usage() string {
	return `regenerate -from <YYYY-MM-DD> [-to <YYYY-MM-DD>]

  Recomputes one snapshot per day in the range, replaying the journal from
  scratch for each date. Use it to backfill history or repair snapshots after
  correcting a transaction. A failing date is reported and does not stop the
  rest of the range.
`
}

func (c *regenerateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First date of the range (required)")
	f.StringVar(&c.to, "to", "", "Last date of the range (default today)")
}

func (c *regenerateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	log := Logger()

	if c.from == "" {
		fmt.Fprintln(os.Stderr, "Error: -from is required.")
		return subcommands.ExitUsageError
	}
	from, err := tradelog.ParseDate(c.from)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	to := tradelog.Today()
	if c.to != "" {
		if to, err = tradelog.ParseDate(c.to); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
	}
	if to.Before(from) {
		fmt.Fprintln(os.Stderr, "Error: -to is before -from.")
		return subcommands.ExitUsageError
	}

	st, err := OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	results := NewService(cfg, st, log).RegenerateRange(ctx, cfg.User, from, to)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Date, r.Err)
			continue
		}
		fmt.Printf("%s: portfolio value %s, %d open positions\n",
			r.Date, r.Snapshot.PortfolioValue, r.Snapshot.OpenPositions)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d dates failed.\n", failed, len(results))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
