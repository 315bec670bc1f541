package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/tradelog/tradelog"
)

type snapshotCmd struct {
	date string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "compute and store the portfolio snapshot for a date" }
func (*snapshotCmd) Usage() string {
	return `snapshot [-date <YYYY-MM-DD>]

  Replays the journal up to the given date (default today), stores the
  resulting snapshot and displays it. Re-running for the same date overwrites
  the previous snapshot wholesale.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Snapshot date, YYYY-MM-DD (default today)")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	log := Logger()

	day := tradelog.Today()
	if c.date != "" {
		if day, err = tradelog.ParseDate(c.date); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
	}

	st, err := OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	snap, err := NewService(cfg, st, log).SnapshotDate(ctx, cfg.User, day)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	printMarkdown(snapshotMarkdown(snap))
	return subcommands.ExitSuccess
}

func snapshotMarkdown(s tradelog.PortfolioSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio Snapshot %s\n\n", s.SnapshotDate)
	fmt.Fprintf(&b, "- Portfolio value: **%s**\n", s.PortfolioValue)
	fmt.Fprintf(&b, "- Net cash flow: %s\n", s.NetCashFlow)
	fmt.Fprintf(&b, "- Realized P&L: %s (today %s)\n", s.TotalRealized.SignedString(), s.DayRealized.SignedString())
	fmt.Fprintf(&b, "- Unrealized P&L: %s\n", s.TotalUnrealized.SignedString())
	fmt.Fprintf(&b, "- Market value: %s\n", s.TotalMarketValue)
	fmt.Fprintf(&b, "- Open positions: %d\n", s.OpenPositions)
	if s.StalePrices > 0 {
		fmt.Fprintf(&b, "- Stale prices: %d\n", s.StalePrices)
	}
	if len(s.ByAsset) > 0 {
		b.WriteString("\n| Asset | Positions | Market Value | Unrealized | Realized |\n")
		b.WriteString("|---|---:|---:|---:|---:|\n")
		for _, a := range tradelog.AssetTypes {
			br, ok := s.ByAsset[a]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n",
				a, br.Positions, br.MarketValue, br.Unrealized.SignedString(), br.Realized.SignedString())
		}
	}
	return b.String()
}
