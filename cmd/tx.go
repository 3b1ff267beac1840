package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/renderer"
)

type txCmd struct {
	instrument string
	since      string
	kind       string
	json       bool
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list the transactions of the ledger" }
func (*txCmd) Usage() string {
	return `pft tx [-i <instrument>] [-s <date>] [-k <kind>] [-json]

  Lists the transactions in chronological order, with their ids.
`
}

func (c *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.instrument, "i", "", "Only list the transactions of this instrument")
	f.StringVar(&c.since, "s", "", "Only list the transactions on or after this date")
	f.StringVar(&c.kind, "k", "", "Only list the transactions of this kind (buy, sell, dividend)")
	f.BoolVar(&c.json, "json", false, "Print the transactions as JSONL instead of a table")
}

func (c *txCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var preds []func(portfolio.Record) bool
	if c.instrument != "" {
		preds = append(preds, portfolio.ByInstrument(c.instrument))
	}
	if c.since != "" {
		day, err := portfolio.ParseDate(c.since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
		preds = append(preds, portfolio.Since(day))
	}
	if c.kind != "" {
		kind, err := portfolio.ParseKind(c.kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing kind: %v\n", err)
			return subcommands.ExitUsageError
		}
		preds = append(preds, portfolio.ByKind(kind))
	}

	cfg, store, closer, status := setup(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closer()

	ledger, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	reportSkipped(ledger)

	var records []portfolio.Record
	for r := range ledger.Filter(preds...) {
		records = append(records, r)
	}

	if c.json {
		for _, r := range records {
			if err := portfolio.EncodeRecord(os.Stdout, r); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing transaction: %v\n", err)
				return subcommands.ExitFailure
			}
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.TransactionsMarkdown(records, cfg.Currency))
	return subcommands.ExitSuccess
}
