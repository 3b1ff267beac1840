package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the ledger into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `pft fmt

  Validates and formats the ledger. This command reads all transactions, drops
  the rows that are not valid, sorts them by date, gives an id to those that
  have none and writes them back in canonical form.

  The dropped rows are printed so that they can be fixed and imported again.
`
}

func (*fmtCmd) SetFlags(f *flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, store, closer, status := setup(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closer()

	ledger, err := store.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, row := range ledger.Skipped() {
		fmt.Fprintf(os.Stderr, "Dropping %v\n", row)
	}
	if err := store.Save(ctx, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving formatted ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Formatted %d transaction(s), dropped %d row(s)\n", ledger.Len(), len(ledger.Skipped()))
	return subcommands.ExitSuccess
}
