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

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "recompute and display open positions" }
func (*positionsCmd) Usage() string {
	return `positions

  Replays the journal, refreshes prices when a quote provider is configured,
  stores the derived positions and displays them.
`
}

func (*positionsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *positionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	log := Logger()

	st, err := OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	positions, err := NewService(cfg, st, log).RecomputePositions(ctx, cfg.User)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if len(positions) == 0 {
		fmt.Println("No positions.")
		return subcommands.ExitSuccess
	}

	printMarkdown(positionsMarkdown(positions))
	return subcommands.ExitSuccess
}

func positionsMarkdown(positions []tradelog.Position) string {
	var open, closed []tradelog.Position
	for _, p := range positions {
		if p.Status == tradelog.PositionOpen {
			open = append(open, p)
		} else {
			closed = append(closed, p)
		}
	}

	var b strings.Builder
	b.WriteString("# Open Positions\n\n")
	if len(open) == 0 {
		b.WriteString("None.\n")
	} else {
		b.WriteString("| Symbol | Type | Side | Qty | Avg Cost | Mark | Unrealized | Realized |\n")
		b.WriteString("|---|---|---|---:|---:|---:|---:|---:|\n")
	}
	stale := false
	for _, p := range open {
		mark := p.Mark.String()
		if p.MarkStale {
			mark += " *"
			stale = true
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			p.Symbol, p.Asset, p.Direction, p.Quantity, p.AverageCost, mark,
			p.Unrealized.SignedString(), p.RealizedPL.SignedString())
	}
	if stale {
		b.WriteString("\n`*` no live price, marked at average cost.\n")
	}

	if len(closed) > 0 {
		b.WriteString("\n# Closed Positions\n\n")
		b.WriteString("| Symbol | Type | Side | Opened | Qty | Avg Open | Realized |\n")
		b.WriteString("|---|---|---|---|---:|---:|---:|\n")
		for _, p := range closed {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				p.Symbol, p.Asset, p.Direction, p.OpenedAt, p.OpeningQuantity,
				p.AvgOpenPrice, p.RealizedPL.SignedString())
		}
	}
	return b.String()
}
