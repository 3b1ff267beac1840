package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/renderer"
)

// appendRecord appends a record to the configured store.
func appendRecord(ctx context.Context, r portfolio.Record) subcommands.ExitStatus {
	cfg, store, closer, status := setup(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closer()

	if _, err := portfolio.AppendRecords(ctx, store, r); err != nil {
		fmt.Fprintf(os.Stderr, "Error recording transaction: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (id %s)\n", renderer.Transaction(r, cfg.Currency), r.ID)
	return subcommands.ExitSuccess
}

// tradeFlags are the flags shared by buy and sell.
type tradeFlags struct {
	date       string
	instrument string
	quantity   string
	price      string
	memo       string
}

func (c *tradeFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", portfolio.Today().String(), "Transaction date (YYYY-MM-DD). See 'topic dates' for supported date formats.")
	f.StringVar(&c.instrument, "i", "", "Instrument ticker, e.g. AMXL.MX or AAPL")
	f.StringVar(&c.quantity, "q", "", "Number of shares")
	f.StringVar(&c.price, "p", "", "Price per share")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

// parse reads the flags, a usage error is printed when they are incomplete.
func (c *tradeFlags) parse(f *flag.FlagSet) (day portfolio.Date, q portfolio.Quantity, p portfolio.Money, ok bool) {
	if c.instrument == "" || c.quantity == "" || c.price == "" {
		f.Usage()
		return
	}
	day, err := portfolio.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return
	}
	if q, err = portfolio.ParseQuantity(c.quantity); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing quantity: %v\n", err)
		return
	}
	if p, err = portfolio.ParseMoney(c.price); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return
	}
	return day, q, p, true
}

// --- Buy Command ---

type buyCmd struct{ tradeFlags }

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `pft buy [-d <date>] -i <instrument> -q <quantity> -p <price> [-m <memo>]

  Records the purchase of shares. Quantity and price must be greater than zero.
`
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, q, p, ok := c.parse(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	return appendRecord(ctx, portfolio.NewBuy(day, c.instrument, q, p, c.memo))
}

// --- Sell Command ---

type sellCmd struct{ tradeFlags }

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares to trim or close a position" }
func (*sellCmd) Usage() string {
	return `pft sell [-d <date>] -i <instrument> -q <quantity> -p <price> [-m <memo>]

  Records the sale of shares. Quantity and price must be greater than zero.
  Selling does not change the average cost of the remaining shares.
`
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	day, q, p, ok := c.parse(f)
	if !ok {
		return subcommands.ExitUsageError
	}
	return appendRecord(ctx, portfolio.NewSell(day, c.instrument, q, p, c.memo))
}

// --- Dividend Command ---

type dividendCmd struct {
	date       string
	instrument string
	amount     string
	memo       string
}

func (*dividendCmd) Name() string     { return "dividend" }
func (*dividendCmd) Synopsis() string { return "record a dividend payment for an instrument" }
func (*dividendCmd) Usage() string {
	return `pft dividend [-d <date>] -i <instrument> -a <amount> [-m <memo>]

  Records the total cash received as a dividend. Dividends are reported as
  income and never change a position.
`
}

func (c *dividendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", portfolio.Today().String(), "Payment date (YYYY-MM-DD)")
	f.StringVar(&c.instrument, "i", "", "Instrument paying the dividend")
	f.StringVar(&c.amount, "a", "", "Total dividend amount received")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *dividendCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.instrument == "" || c.amount == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := portfolio.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := portfolio.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	return appendRecord(ctx, portfolio.NewDividend(day, c.instrument, amount, c.memo))
}

// --- Remove Command ---

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete transactions by id" }
func (*rmCmd) Usage() string {
	return `pft rm <id>...

  Deletes the transactions with the given ids, as listed by 'pft tx'.
  Nothing is deleted if one of the ids is unknown.
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ids := make([]uuid.UUID, 0, f.NArg())
	for _, arg := range f.Args() {
		id, err := uuid.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing id %q: %v\n", arg, err)
			return subcommands.ExitUsageError
		}
		ids = append(ids, id)
	}

	_, store, closer, status := setup(ctx)
	if status != subcommands.ExitSuccess {
		return status
	}
	defer closer()

	if _, err := portfolio.DeleteRecords(ctx, store, ids...); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting transactions: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Deleted %d transaction(s)\n", len(ids))
	return subcommands.ExitSuccess
}
