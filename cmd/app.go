// Package cmd implements the CLI application to manage a trading journal.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tradelog/tradelog"
	"github.com/tradelog/tradelog/quote"
	"github.com/tradelog/tradelog/store"
)

// Register the subcommands.
// A main package calls Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "journal")
	c.Register(&cashCmd{}, "journal")

	c.Register(&positionsCmd{}, "portfolio")
	c.Register(&snapshotCmd{}, "portfolio")
	c.Register(&regenerateCmd{}, "portfolio")

	c.Register(&insightCmd{}, "analysis")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the config file (default $TRADELOG_CONFIG or ~/.config/tradelog/config.yaml)")
var userFlag = flag.String("user", "", "User id, overrides the config file")
var verbose = flag.Bool("v", false, "Enable debug logging")

// Config is the YAML application configuration.
type Config struct {
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Currency string `yaml:"currency"`
	Quote    struct {
		URL       string `yaml:"url"`        // one %s verb for the symbol
		PricePath string `yaml:"price_path"` // jsonpath to the price
	} `yaml:"quote"`
	Insight struct {
		Model string `yaml:"model"`
	} `yaml:"insight"`
}

func defaults() Config {
	var c Config
	c.Database = "tradelog.db"
	c.User = "default"
	c.Currency = "USD"
	return c
}

// LoadConfig reads the YAML config file. A missing file is not an error:
// defaults apply, flags and env still override.
func LoadConfig() (Config, error) {
	c := defaults()

	path := *configFile
	if path == "" {
		path = os.Getenv("TRADELOG_CONFIG")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".config", "tradelog", "config.yaml")
		}
	}
	if path != "" {
		content, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(content, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if *configFile != "" {
			// An explicitly requested config file must exist.
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	if db := os.Getenv("TRADELOG_DB"); db != "" {
		c.Database = db
	}
	if *userFlag != "" {
		c.User = *userFlag
	}
	return c, nil
}

// Logger builds the CLI logger. Human-readable output on stderr, debug level
// behind -v.
func Logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// OpenStore opens the journal database from the config.
func OpenStore(c Config, log zerolog.Logger) (*store.SQLiteStore, error) {
	return store.Open(c.Database, log)
}

// NewService wires the engine service from an open store. The quote source is
// only attached when the config carries a provider.
func NewService(c Config, st *store.SQLiteStore, log zerolog.Logger) *tradelog.Service {
	var prices tradelog.PriceSource
	if c.Quote.URL != "" {
		prices = quote.NewClient(c.Quote.URL, c.Quote.PricePath, c.Currency, log)
	}
	return tradelog.NewService(st.Transactions(), st.Cash(), st.Positions(), st.Snapshots(), prices, c.Currency, log)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
