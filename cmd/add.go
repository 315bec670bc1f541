package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/tradelog/tradelog"
)

type addCmd struct {
	date       string
	asset      string
	symbol     string
	side       string
	action     string
	quantity   float64
	price      float64
	multiplier float64
	fees       float64
	note       string

	optionType string
	strike     float64
	expiration string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a trade transaction" }
func (*addCmd) Usage() string {
	return `add -symbol <symbol> -side <buy|sell> -quantity <n> -price <p> [options]

  Records one trade in the journal and recomputes the positions.
  Options require -type option together with -option-type, -strike and
  -expiration; the opening/closing intent is stated with -action
  (bto, stc, sto, btc, expired, assigned).

Usage Examples:
# Buy 10 AAPL at 150
$ tj add -symbol AAPL -side buy -quantity 10 -price 150

# Sell a covered call
$ tj add -symbol AAPL -type option -option-type call -strike 160 \
    -expiration 2026-01-16 -side sell -action sto -quantity 1 -price 3.20
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Activity date, YYYY-MM-DD (default today)")
	f.StringVar(&c.asset, "type", "stock", "Asset type (stock, option, crypto, futures)")
	f.StringVar(&c.symbol, "symbol", "", "Instrument symbol (required)")
	f.StringVar(&c.side, "side", "", "Transaction side, buy or sell (required)")
	f.StringVar(&c.action, "action", "", "Option intent (bto, stc, sto, btc, expired, assigned)")
	f.Float64Var(&c.quantity, "quantity", 0, "Quantity of shares, contracts or units (required)")
	f.Float64Var(&c.price, "price", 0, "Price per unit or per contract")
	f.Float64Var(&c.multiplier, "multiplier", 0, "Contract multiplier (default 100 for options, 1 otherwise)")
	f.Float64Var(&c.fees, "fees", 0, "Total fees for the transaction")
	f.StringVar(&c.note, "note", "", "Free-form note")
	f.StringVar(&c.optionType, "option-type", "", "Option type, call or put")
	f.Float64Var(&c.strike, "strike", 0, "Option strike price")
	f.StringVar(&c.expiration, "expiration", "", "Option expiration date, YYYY-MM-DD")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	asset, err := tradelog.ParseAssetType(c.asset)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	side, err := tradelog.ParseSide(c.side)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	t := tradelog.NewTransaction(cfg.User, day, asset, c.symbol, side,
		tradelog.Q(c.quantity), tradelog.M(c.price, cfg.Currency))
	t.Fees = tradelog.M(c.fees, cfg.Currency)
	t.Note = c.note
	if c.multiplier != 0 {
		t.Multiplier = tradelog.Q(c.multiplier)
	}
	if c.action != "" {
		action, err := tradelog.ParseAction(c.action)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		t.Action = action
	}
	if asset == tradelog.Option {
		t.OptionType = tradelog.OptionType(c.optionType)
		t.Strike = tradelog.M(c.strike, cfg.Currency)
		if c.expiration != "" {
			if t.Expiration, err = tradelog.ParseDate(c.expiration); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				return subcommands.ExitUsageError
			}
		}
	}

	st, err := OpenStore(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer st.Close()

	if err := st.Transactions().Create(t); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if _, err := NewService(cfg, st, log).RecomputePositions(ctx, cfg.User); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Recorded %s %s %s x%s @ %s (%s)\n", t.Side, t.Symbol, t.Asset, t.Quantity, t.Price, t.ID)
	return subcommands.ExitSuccess
}
