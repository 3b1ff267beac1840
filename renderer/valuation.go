package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/inverso/portfolio"
)

// Options controls the valuation report.
type Options struct {
	Title    string               // default "Portfolio"
	Currency string               // display currency, empty prints plain amounts
	Groups   []portfolio.GroupKey // diversification tables to print
	Ranking  bool                 // print positions from the worst to the best gain
}

// ValuationMarkdown renders a valuation: totals, positions, diversification,
// dividend income and the data problems found on the way.
func ValuationMarkdown(v *portfolio.Valuation, opts Options) string {
	var b strings.Builder
	title := opts.Title
	if title == "" {
		title = "Portfolio"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	renderTotals(&b, v.Totals, opts.Currency)
	renderPositions(&b, v.Positions, opts.Currency)
	for _, key := range opts.Groups {
		renderGroups(&b, v.Groups(key), key, opts.Currency, 2)
	}
	if opts.Ranking {
		renderRanking(&b, v.Positions, opts.Currency)
	}
	renderIncome(&b, v, opts.Currency)
	renderDiagnostics(&b, v.Diagnostics, v.Skipped)
	return b.String()
}

func renderTotals(w io.Writer, t portfolio.Totals, cur string) {
	fmt.Fprintf(w, "## Summary\n\n")
	tableHeader(w, "<Metric", ">Value")
	tableRow(w, "Market Value", t.MarketValue.In(cur).String())
	tableRow(w, "Cost Basis", t.CostBasis.In(cur).String())
	tableRow(w, "Gain/Loss", t.GainLoss.In(cur).SignedString())
	tableRow(w, "Return", t.GainLossPct.SignedString())
	tableRow(w, "Positions", fmt.Sprint(t.Positions))
	fmt.Fprintln(w)
	if t.Unpriced > 0 {
		fmt.Fprintf(w, "%d position(s) without price are valued at 0.\n\n", t.Unpriced)
	}
}

// price prints the current price, marking those that are not live.
func price(p portfolio.EnrichedPosition, cur string) string {
	switch p.PriceSource {
	case portfolio.PriceUnknown:
		return "n/a"
	case portfolio.PricePreviousClose:
		return p.CurrentPrice.In(cur).String() + " (close)"
	}
	return p.CurrentPrice.In(cur).String()
}

func renderPositions(w io.Writer, rows []portfolio.EnrichedPosition, cur string) {
	fmt.Fprintf(w, "## Positions\n\n")
	if len(rows) == 0 {
		fmt.Fprintf(w, "No open position.\n\n")
		return
	}
	tableHeader(w, "<Instrument", ">Quantity", ">Avg Cost", ">Cost Basis", ">Price", ">Market Value", ">Gain/Loss", ">Return", "<Market", "<Sector")
	for _, p := range rows {
		tableRow(w,
			p.Instrument,
			p.OpenQuantity.String(),
			p.AverageCost.In(cur).String(),
			p.CostBasis.In(cur).String(),
			price(p, cur),
			p.MarketValue.In(cur).String(),
			p.GainLoss.In(cur).SignedString(),
			p.GainLossPct.SignedString(),
			orDash(p.Market),
			orDash(p.Sector),
		)
	}
	fmt.Fprintln(w)
}

// GroupsMarkdown renders the diversification table for key.
func GroupsMarkdown(groups []portfolio.Group, key portfolio.GroupKey, cur string) string {
	var b strings.Builder
	renderGroups(&b, groups, key, cur, 1)
	return b.String()
}

func renderGroups(w io.Writer, groups []portfolio.Group, key portfolio.GroupKey, cur string, level int) {
	name := "Market"
	if key == portfolio.BySector {
		name = "Sector"
	}
	fmt.Fprintf(w, "%s By %s\n\n", strings.Repeat("#", level), name)
	if len(groups) == 0 {
		fmt.Fprintf(w, "No open position.\n\n")
		return
	}
	tableHeader(w, "<"+name, ">Market Value", ">Cost Basis", ">Weight", ">Positions")
	for _, g := range groups {
		tableRow(w, g.Key, g.MarketValue.In(cur).String(), g.CostBasis.In(cur).String(), g.Weight.String(), fmt.Sprint(g.Positions))
	}
	fmt.Fprintln(w)
}

func renderRanking(w io.Writer, rows []portfolio.EnrichedPosition, cur string) {
	ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Gain and Loss\n\n")
		tableHeader(w, "<Instrument", ">Gain/Loss", ">Return")
		for _, p := range portfolio.RankByGain(rows) {
			tableRow(w, p.Instrument, p.GainLoss.In(cur).SignedString(), p.GainLossPct.SignedString())
		}
		fmt.Fprintln(w)
		return len(rows) > 0
	})
}

func renderIncome(w io.Writer, v *portfolio.Valuation, cur string) {
	ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Dividends\n\n")
		tableHeader(w, "<Instrument", ">Amount")
		for _, in := range v.Income {
			tableRow(w, in.Instrument, in.Amount.In(cur).String())
		}
		tableRow(w, "**Total**", "**"+v.TotalIncome.In(cur).String()+"**")
		fmt.Fprintln(w)
		return len(v.Income) > 0
	})
}

func renderDiagnostics(w io.Writer, diags []portfolio.Diagnostic, skipped []string) {
	ConditionalBlock(w, func(w io.Writer) bool {
		fmt.Fprintf(w, "## Warnings\n\n")
		for _, d := range diags {
			fmt.Fprintf(w, "- %s: %s (%s)\n", d.Instrument, d.Message, d.Code)
		}
		for _, s := range skipped {
			fmt.Fprintf(w, "- %s\n", s)
		}
		fmt.Fprintln(w)
		return len(diags)+len(skipped) > 0
	})
}
