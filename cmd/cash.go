package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tradelog/tradelog"
)

type cashCmd struct {
	date   string
	code   string
	amount float64
	note   string
}

func (*cashCmd) Name() string     { return "cash" }
func (*cashCmd) Synopsis() string { return "record a cash transaction" }
func (*cashCmd) Usage() string {
	return `cash -code <deposit|withdrawal|fee|dividend|margin> -amount <n>

  Records a cash event. Amounts are signed: deposits and dividends positive,
  withdrawals and fees negative. Margin postings move collateral only and are
  excluded from net cash flow.

Usage Examples:
$ tj cash -code deposit -amount 10000
$ tj cash -code withdrawal -amount -500
`
}

func (c *cashCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Date, YYYY-MM-DD (default today)")
	f.StringVar(&c.code, "code", "", "Cash code (required)")
	f.Float64Var(&c.amount, "amount", 0, "Signed amount (required)")
	f.StringVar(&c.note, "note", "", "Free-form note")
}

func (c *cashCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	code, err := tradelog.ParseCashCode(c.code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	ct := tradelog.NewCashTransaction(cfg.User, day, code, tradelog.M(c.amount, cfg.Currency))
	ct.Note = c.note

	st, err := OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	if err := st.Cash().Create(ct); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s of %s on %s (%s)\n", ct.Code, ct.Amount, ct.Date, ct.ID)
	return subcommands.ExitSuccess
}
