package portfolio

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Valuation is the result of one reduce, enrich and summarize pass.
type Valuation struct {
	Version     string             `json:"version"` // Ledger.Version of the valued ledger
	Positions   []EnrichedPosition `json:"positions"`
	Totals      Totals             `json:"totals"`
	Income      []Income           `json:"income,omitempty"`
	TotalIncome Money              `json:"total_income"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`
	Skipped     []string           `json:"skipped,omitempty"`
}

// Groups totals the valuation by market or sector.
func (v *Valuation) Groups(key GroupKey) []Group { return GroupBy(v.Positions, key) }

// Valuator values the ledger of a store with a quote source.
//
// Positions are recomputed from the freshly loaded ledger on every call, the
// reduction is only reused while the ledger version is unchanged.
type Valuator struct {
	Store   Store
	Quotes  QuoteSource // nil values every position at the zero sentinel
	Options EnrichOptions

	cache Cache
}

// Valuate loads the ledger and values it.
func (v *Valuator) Valuate(ctx context.Context) (*Valuation, error) {
	ledger, err := v.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return v.ValuateLedger(ctx, ledger)
}

// ValuateLedger values ledger.
//
// When the quote source is unavailable the degraded valuation is returned
// together with an error wrapping ErrQuotesUnavailable.
func (v *Valuator) ValuateLedger(ctx context.Context, ledger *Ledger) (*Valuation, error) {
	red := v.cache.Reduce(ledger)

	var quotes QuoteSource
	if v.Quotes != nil {
		quotes = NewQuoteMemo(v.Quotes)
	}
	rows, diags, err := Enrich(ctx, red.Positions, quotes, v.Options)
	if err != nil && !errors.Is(err, ErrQuotesUnavailable) {
		return nil, err
	}

	val := &Valuation{
		Version:     ledger.Version(),
		Positions:   rows,
		Totals:      Summarize(rows),
		Income:      red.Income,
		Diagnostics: append(slices.Clone(red.Diagnostics), diags...),
	}
	for _, in := range red.Income {
		val.TotalIncome = val.TotalIncome.Add(in.Amount)
	}
	for _, row := range ledger.Skipped() {
		val.Skipped = append(val.Skipped, row.Error())
	}
	return val, err
}

// Cache memoizes the reduction of a ledger, keyed on Ledger.Version.
// Its zero value is ready to use.
type Cache struct {
	mu        sync.Mutex
	version   string
	reduction Reduction
	hits      int
}

// Reduce returns Reduce(ledger.All()), computed once per ledger version.
func (c *Cache) Reduce(ledger *Ledger) Reduction {
	version := ledger.Version()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		c.version = version
		c.reduction = Reduce(ledger.All())
	} else {
		c.hits++
	}
	return Reduction{
		Positions:   slices.Clone(c.reduction.Positions),
		Diagnostics: slices.Clone(c.reduction.Diagnostics),
		Income:      slices.Clone(c.reduction.Income),
	}
}
