package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/inverso/portfolio"
)

func parseLayout(s string) (portfolio.Layout, error) {
	switch strings.ToLower(s) {
	case "spreadsheet":
		return portfolio.LayoutSpreadsheet, nil
	case "english":
		return portfolio.LayoutEnglish, nil
	}
	return 0, fmt.Errorf("unknown layout %q, want spreadsheet or english", s)
}

// --- Import Command ---

type importCmd struct {
	replace bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import transactions from a CSV file" }
func (*importCmd) Usage() string {
	return `pft import [-replace] <file.csv>

  Imports the transactions of a CSV file into the ledger. Both the spreadsheet
  layout (Tipo,Ticker,Cantidad,Precio,Fecha) and the english layout
  (kind,instrument,quantity,unit_price,date,id,memo) are accepted.

  Rows that cannot be read are reported and skipped. Transactions already in
  the ledger are not imported twice.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.replace, "replace", false, "Replace the ledger with the imported transactions")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	imported, err := portfolio.ImportCSV(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	reportSkipped(imported)

	_, store, closer, status := setup(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closer()

	ledger := portfolio.NewLedger()
	if !c.replace {
		if ledger, err = store.Load(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	added := 0
	for r := range imported.Records() {
		if _, exists := ledger.Get(r.ID); exists {
			continue
		}
		ledger.Append(r)
		added++
	}
	if err := store.Save(ctx, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Imported %d transaction(s), skipped %d row(s)\n", added, len(imported.Skipped()))
	return subcommands.ExitSuccess
}

// --- Export Command ---

type exportCmd struct {
	layout string
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the transactions to a CSV file" }
func (*exportCmd) Usage() string {
	return `pft export [-layout spreadsheet|english] [-o <file.csv>]

  Exports the ledger as CSV, on the standard output by default. The
  spreadsheet layout carries neither the ids nor the memos.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.layout, "layout", "english", "CSV layout: spreadsheet or english")
	f.StringVar(&c.output, "o", "", "Output file, the standard output by default")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	layout, err := parseLayout(c.layout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing layout: %v\n", err)
		return subcommands.ExitUsageError
	}

	_, store, closer, status := setup(ctx)
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

	var w io.Writer = os.Stdout
	if c.output != "" {
		out, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer out.Close()
		w = out
	}
	if err := portfolio.ExportCSV(w, ledger, layout); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
