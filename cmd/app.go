// Package cmd implements the CLI application to manage a portfolio.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/pgstore"
	"github.com/inverso/portfolio/quote"
	"github.com/mattn/go-isatty"
)

// Commands lists every subcommand of the application, in registration order.
var Commands = []subcommands.Command{
	&buyCmd{},
	&sellCmd{},
	&dividendCmd{},
	&rmCmd{},
	&txCmd{},
	&holdingCmd{},
	&groupsCmd{},
	&importCmd{},
	&exportCmd{},
	&fmtCmd{},
	&serveCmd{},
	&assistCmd{},
	&topicCmd{},
}

// groups of the subcommands in the help.
var commandGroups = map[string]string{
	"buy": "transactions", "sell": "transactions", "dividend": "transactions", "rm": "transactions", "tx": "transactions",
	"holding": "reports", "groups": "reports",
	"import": "ledger", "export": "ledger", "fmt": "ledger",
	"serve": "services", "assist": "services",
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, commandGroups[cmd.Name()])
	}
}

// Environment variables holding the default value of the global flags.
const (
	EnvLedgerFile     = "PFT_LEDGER_FILE"
	EnvDatabaseURL    = "PFT_DATABASE_URL"
	EnvCurrency       = "PFT_CURRENCY"
	EnvClassification = "PFT_CLASSIFICATION_FILE"
	EnvQuotes         = "PFT_QUOTES"
	EnvQuoteWorkers   = "PFT_QUOTE_WORKERS"
	EnvQuoteCache     = "PFT_QUOTE_CACHE"
	EnvVerbose        = "PFT_VERBOSE"

	// EnvEODHDAPIKey is shared with the other tools using EODHD.
	EnvEODHDAPIKey = "EODHD_API_KEY"
)

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	ledgerFile     = flag.String("ledger-file", envOr(EnvLedgerFile, "transactions.jsonl"), "Path to the ledger file, JSONL or CSV when it ends with .csv")
	databaseURL    = flag.String("database-url", envOr(EnvDatabaseURL, ""), "PostgreSQL connection string, takes precedence over -ledger-file")
	currency       = flag.String("currency", envOr(EnvCurrency, "USD"), "Currency used to display amounts")
	classification = flag.String("classification", envOr(EnvClassification, "classification.jsonl"), "Path to the sector and market classification file (JSONL)")
	quotes         = flag.String("quotes", envOr(EnvQuotes, "yahoo"), "Quote source: yahoo, eodhd, table or none")
	eodhdAPIKey    = flag.String("eodhd-api-key", envOr(EnvEODHDAPIKey, ""), "EODHD API key, required by -quotes eodhd. You can get one at https://eodhd.com/")
	quoteWorkers   = flag.String("quote-workers", envOr(EnvQuoteWorkers, "4"), "Number of concurrent quote lookups")
	quoteCache     = flag.String("quote-cache", envOr(EnvQuoteCache, "10m"), "How long quote responses are cached on disk, 0 disables the cache")
	verbose        = flag.Bool("v", envOr(EnvVerbose, "") == "true", "Print the log messages")
)

// Settings are the raw values of the global flags.
type Settings struct {
	LedgerFile     string
	DatabaseURL    string
	Currency       string
	Classification string
	Quotes         string
	QuoteWorkers   string
	QuoteCache     string
	EODHDAPIKey    string
	Verbose        bool
}

// Config is the validated application configuration.
type Config struct {
	LedgerFile     string
	DatabaseURL    string
	Currency       string
	Classification string
	Quotes         string
	QuoteWorkers   int
	QuoteCache     time.Duration
	EODHDAPIKey    string
	Verbose        bool
}

// Config validates the settings and reports every problem at once.
func (s Settings) Config() (*Config, error) {
	c := &Config{
		LedgerFile:     strings.TrimSpace(s.LedgerFile),
		DatabaseURL:    strings.TrimSpace(s.DatabaseURL),
		Currency:       strings.ToUpper(strings.TrimSpace(s.Currency)),
		Classification: strings.TrimSpace(s.Classification),
		Quotes:         strings.ToLower(strings.TrimSpace(s.Quotes)),
		EODHDAPIKey:    strings.TrimSpace(s.EODHDAPIKey),
		Verbose:        s.Verbose,
	}
	var errs []error
	if c.LedgerFile == "" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("one of -ledger-file or -database-url is required"))
	}
	if money.GetCurrency(c.Currency) == nil {
		errs = append(errs, fmt.Errorf("unknown currency %q", s.Currency))
	}
	switch c.Quotes {
	case "yahoo", "table", "none":
	case "eodhd":
		if c.EODHDAPIKey == "" {
			errs = append(errs, errors.New("-quotes eodhd needs -eodhd-api-key or "+EnvEODHDAPIKey))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown quote source %q, want yahoo, eodhd, table or none", s.Quotes))
	}
	workers, err := strconv.Atoi(strings.TrimSpace(s.QuoteWorkers))
	if err != nil || workers <= 0 {
		errs = append(errs, fmt.Errorf("quote workers must be a positive number, got %q", s.QuoteWorkers))
	}
	c.QuoteWorkers = workers
	ttl, err := time.ParseDuration(strings.TrimSpace(s.QuoteCache))
	if err != nil || ttl < 0 {
		errs = append(errs, fmt.Errorf("quote cache must be a non negative duration, got %q", s.QuoteCache))
	}
	c.QuoteCache = ttl

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadConfig reads the configuration from the global flags.
func LoadConfig() (*Config, error) {
	s := Settings{
		LedgerFile:     *ledgerFile,
		DatabaseURL:    *databaseURL,
		Currency:       *currency,
		Classification: *classification,
		Quotes:         *quotes,
		QuoteWorkers:   *quoteWorkers,
		QuoteCache:     *quoteCache,
		EODHDAPIKey:    *eodhdAPIKey,
		Verbose:        *verbose,
	}
	c, err := s.Config()
	if err != nil {
		return nil, err
	}
	if !c.Verbose {
		log.SetOutput(io.Discard)
	}
	return c, nil
}

// OpenStore opens the transaction store, the returned func releases it.
func (c *Config) OpenStore(ctx context.Context) (portfolio.Store, func(), error) {
	if c.DatabaseURL != "" {
		s, err := pgstore.Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return portfolio.NewFileStore(c.LedgerFile), func() {}, nil
}

// QuoteSource returns the configured quote source, nil for "none".
func (c *Config) QuoteSource() (portfolio.QuoteSource, error) {
	if c.Quotes == "none" {
		return nil, nil
	}
	table, err := quote.LoadTable(c.Classification)
	if err != nil {
		return nil, err
	}
	if c.Quotes == "table" {
		return table, nil
	}
	client := quote.NewCachingClient(c.QuoteCache)
	if c.Quotes == "eodhd" {
		return quote.Merge(quote.NewEODHD(c.EODHDAPIKey, client), table), nil
	}
	return quote.Merge(quote.NewYahoo(client), table), nil
}

// Valuator returns a valuator over the configured store and quote source.
func (c *Config) Valuator(ctx context.Context) (*portfolio.Valuator, func(), error) {
	quotes, err := c.QuoteSource()
	if err != nil {
		return nil, nil, err
	}
	store, closer, err := c.OpenStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &portfolio.Valuator{
		Store:   store,
		Quotes:  quotes,
		Options: portfolio.EnrichOptions{Workers: c.QuoteWorkers},
	}, closer, nil
}

// setup loads the configuration and opens the store, errors are printed.
func setup(ctx context.Context) (*Config, portfolio.Store, func(), subcommands.ExitStatus) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		return nil, nil, nil, subcommands.ExitUsageError
	}
	store, closer, err := cfg.OpenStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return nil, nil, nil, subcommands.ExitFailure
	}
	return cfg, store, closer, subcommands.ExitSuccess
}

// printMarkdown renders md on the terminal, or prints it raw when stdout is
// not a terminal.
func printMarkdown(md string) {
	writeMarkdown(os.Stdout, md)
}

func writeMarkdown(w io.Writer, md string) {
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		fmt.Fprint(w, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, out)
}

// reportSkipped prints the rows that were rejected while loading the ledger.
func reportSkipped(ledger *portfolio.Ledger) {
	for _, row := range ledger.Skipped() {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", row)
	}
}
