package renderer

import (
	"fmt"
	"strings"

	"github.com/inverso/portfolio"
)

// Transaction renders a record to a string.
func Transaction(r portfolio.Record, cur string) string {
	switch r.Kind {
	case portfolio.Buy:
		return fmt.Sprintf("Bought %s of %s for %s", r.Quantity, r.Instrument, r.Amount().In(cur))
	case portfolio.Sell:
		return fmt.Sprintf("Sold %s of %s for %s", r.Quantity, r.Instrument, r.Amount().In(cur))
	case portfolio.Dividend:
		return fmt.Sprintf("Dividend of %s for %s", r.Amount().In(cur), r.Instrument)
	default:
		return string(r.Kind)
	}
}

// TransactionsMarkdown renders the records as a table, in the order given.
func TransactionsMarkdown(records []portfolio.Record, cur string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Transactions\n\n")
	if len(records) == 0 {
		fmt.Fprintf(&b, "No transaction.\n")
		return b.String()
	}
	tableHeader(&b, "<Date", "<Kind", "<Instrument", ">Quantity", ">Unit Price", ">Amount", "<ID", "<Memo")
	for _, r := range records {
		qty := r.Quantity.String()
		unit := r.UnitPrice.In(cur).String()
		if r.Kind == portfolio.Dividend {
			qty, unit = "", ""
		}
		tableRow(&b, r.Date.String(), string(r.Kind), r.Instrument, qty, unit, r.Amount().In(cur).String(), r.ID.String(), r.Memo)
	}
	return b.String()
}
