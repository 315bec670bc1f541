package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/tradelog/tradelog"
	"github.com/tradelog/tradelog/insight"
)

type insightCmd struct {
	date string
}

func (*insightCmd) Name() string     { return "insight" }
func (*insightCmd) Synopsis() string { return "generate AI commentary on the portfolio" }
func (*insightCmd) Usage() string {
	return `insight [-date <YYYY-MM-DD>]

  Computes the snapshot and positions for the date, hands the typed summary
  to Gemini and renders the commentary. Requires GEMINI_API_KEY (or the other
  genai environment credentials) to be set.
`
}

func (c *insightCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Date to comment on, YYYY-MM-DD (default today)")
}

func (c *insightCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	svc := NewService(cfg, st, log)
	positions, err := svc.RecomputePositions(ctx, cfg.User)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	snap, err := svc.SnapshotDate(ctx, cfg.User, day)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}
	generator := insight.NewGenerator(client, cfg.Insight.Model, log)
	commentary, err := generator.Generate(ctx, insight.BuildContext(snap, positions))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	printMarkdown(commentary)
	return subcommands.ExitSuccess
}
