package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/renderer"
)

// valuate runs a valuation with the configured store and quotes. A valuation
// degraded by unavailable quotes is returned with its error.
func valuate(ctx context.Context) (*Config, *portfolio.Valuation, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	v, closer, err := cfg.Valuator(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer closer()

	val, err := v.Valuate(ctx)
	if val != nil {
		for _, d := range val.Diagnostics {
			log.Println(d)
		}
	}
	return cfg, val, err
}

// parseGroups reads a comma separated list of group keys.
func parseGroups(s string) ([]portfolio.GroupKey, error) {
	var keys []portfolio.GroupKey
	for _, k := range strings.Split(s, ",") {
		if strings.TrimSpace(k) == "" {
			continue
		}
		key, err := portfolio.ParseGroupKey(k)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// holdingCmd holds the flags for the 'holding' subcommand.
type holdingCmd struct {
	groups string
	rank   bool
	json   bool
	html   string
}

func (*holdingCmd) Name() string     { return "holding" }
func (*holdingCmd) Synopsis() string { return "display the open positions valued at the latest prices" }
func (*holdingCmd) Usage() string {
	return `pft holding [-g market,sector] [-rank] [-json | -html <file>]

  Displays the open positions with their cost basis, current price, market
  value and gain or loss, the portfolio totals, the diversification by market
  and sector, and the dividends received.

  When no quote at all can be retrieved the positions are still printed, valued
  at 0, and the command fails.
`
}

func (c *holdingCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.groups, "g", "market,sector", "Diversification tables to print, comma separated (market, sector)")
	f.BoolVar(&c.rank, "rank", true, "Print the positions from the worst to the best gain")
	f.BoolVar(&c.json, "json", false, "Print the valuation as JSON")
	f.StringVar(&c.html, "html", "", "Write the report as an HTML page to this file")
}

func (c *holdingCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	groups, err := parseGroups(c.groups)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing groups: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, val, err := valuate(ctx)
	if val == nil {
		fmt.Fprintf(os.Stderr, "Error valuing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	quotesDown := errors.Is(err, portfolio.ErrQuotesUnavailable)

	switch {
	case c.json:
		data, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding valuation: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(data))
	default:
		md := renderer.ValuationMarkdown(val, renderer.Options{
			Currency: cfg.Currency,
			Groups:   groups,
			Ranking:  c.rank,
		})
		if c.html != "" {
			page, err := renderer.HTML("Portfolio", md)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error rendering HTML: %v\n", err)
				return subcommands.ExitFailure
			}
			if err := os.WriteFile(c.html, page, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.html, err)
				return subcommands.ExitFailure
			}
			break
		}
		printMarkdown(md)
	}

	if quotesDown {
		fmt.Fprintf(os.Stderr, "Error fetching quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type groupsCmd struct {
	by string
}

func (*groupsCmd) Name() string     { return "groups" }
func (*groupsCmd) Synopsis() string { return "display the market value by market or by sector" }
func (*groupsCmd) Usage() string {
	return `pft groups [-by market|sector]

  Totals the market value and cost basis of the open positions by market or
  by sector. Positions without classification are totaled as "Unclassified".
`
}

func (c *groupsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.by, "by", "sector", "Classification to group by: market or sector")
}

func (c *groupsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	key, err := portfolio.ParseGroupKey(c.by)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing group key: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, val, err := valuate(ctx)
	if val == nil {
		fmt.Fprintf(os.Stderr, "Error valuing portfolio: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.GroupsMarkdown(val.Groups(key), key, cfg.Currency))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching quotes: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
