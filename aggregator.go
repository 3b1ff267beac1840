package portfolio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// UnclassifiedKey is the group of positions without market or sector.
const UnclassifiedKey = "Unclassified"

// EnrichedPosition is a Position valued with its quote.
type EnrichedPosition struct {
	Position
	CurrentPrice Money       // zero when PriceSource is PriceUnknown
	PriceSource  PriceSource
	MarketValue  Money       // OpenQuantity × CurrentPrice
	GainLoss     Money       // MarketValue − CostBasis
	GainLossPct  Percent     // GainLoss / CostBasis, 0 when CostBasis is 0
	Sector       string
	Market       string
}

// MarshalJSON implements the json.Marshaler interface for EnrichedPosition.
func (e EnrichedPosition) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(e.Position)
	w.Append("current_price", e.CurrentPrice)
	w.Append("price_source", e.PriceSource)
	w.Append("market_value", e.MarketValue)
	w.Append("gain_loss_abs", e.GainLoss)
	w.Append("gain_loss_pct", e.GainLossPct)
	w.Optional("sector", e.Sector)
	w.Optional("market", e.Market)
	return w.MarshalJSON()
}

// newEnrichedPosition values p with quote q.
func newEnrichedPosition(p Position, q Quote) EnrichedPosition {
	price, source := q.Price()
	value := price.Mul(p.OpenQuantity)
	gain := value.Sub(p.CostBasis)
	return EnrichedPosition{
		Position:     p,
		CurrentPrice: price,
		PriceSource:  source,
		MarketValue:  value,
		GainLoss:     gain,
		GainLossPct:  gain.PercentOf(p.CostBasis),
		Sector:       q.Sector,
		Market:       q.Market,
	}
}

// EnrichOptions tunes quote lookups.
type EnrichOptions struct {
	Workers int           // concurrent lookups, default 4
	Timeout time.Duration // per lookup, default 10s
}

func (o EnrichOptions) withDefaults() EnrichOptions {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return o
}

// Enrich values positions with quotes from source.
//
// Each distinct instrument is looked up once, lookups run concurrently and the
// result keeps the order of positions. A failed lookup keeps the fields the
// source still returned and adds a diagnostic. When every lookup failed for
// another reason than ErrUnknownInstrument the rows are still returned along
// with an error wrapping ErrQuotesUnavailable.
func Enrich(ctx context.Context, positions []Position, source QuoteSource, opts EnrichOptions) ([]EnrichedPosition, []Diagnostic, error) {
	opts = opts.withDefaults()

	var instruments []string
	slot := make(map[string]int)
	for _, p := range positions {
		if _, ok := slot[p.Instrument]; !ok {
			slot[p.Instrument] = len(instruments)
			instruments = append(instruments, p.Instrument)
		}
	}

	quotes := make([]Quote, len(instruments))
	errs := make([]error, len(instruments))
	if source != nil {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, instrument := range instruments {
			g.Go(func() error {
				lctx, cancel := context.WithTimeout(ctx, opts.Timeout)
				defer cancel()
				quotes[i], errs[i] = source.Quote(lctx, instrument)
				return nil
			})
		}
		g.Wait()
	}

	var diags []Diagnostic
	for i, instrument := range instruments {
		if errs[i] != nil {
			code := QuoteFailed
			if errors.Is(errs[i], ErrUnknownInstrument) {
				code = NotQuoted
			}
			diags = append(diags, Diagnostic{Instrument: instrument, Code: code, Message: errs[i].Error()})
			continue
		}
		if _, src := quotes[i].Price(); src == PriceUnknown {
			diags = append(diags, Diagnostic{Instrument: instrument, Code: NoPrice, Message: "no current price nor previous close, valued at 0"})
		}
		if quotes[i].Market == "" && quotes[i].Sector == "" {
			diags = append(diags, Diagnostic{Instrument: instrument, Code: Unclassified, Message: "no market nor sector"})
		}
	}

	rows := make([]EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, newEnrichedPosition(p, quotes[slot[p.Instrument]]))
	}

	reached := func(err error) bool { return err == nil || errors.Is(err, ErrUnknownInstrument) }
	if len(instruments) > 0 && !slices.ContainsFunc(errs, reached) {
		return rows, diags, fmt.Errorf("%w: %w", ErrQuotesUnavailable, errors.Join(errs...))
	}
	return rows, diags, nil
}

// Totals sums a valuation.
type Totals struct {
	MarketValue Money   `json:"total_market_value"`
	CostBasis   Money   `json:"total_cost_basis"`
	GainLoss    Money   `json:"total_gain_loss_abs"`
	GainLossPct Percent `json:"total_gain_loss_pct"`
	Positions   int     `json:"positions"`
	Unpriced    int     `json:"unpriced"` // positions valued with the zero sentinel
}

// Summarize computes the totals of rows.
func Summarize(rows []EnrichedPosition) Totals {
	var t Totals
	for _, r := range rows {
		t.MarketValue = t.MarketValue.Add(r.MarketValue)
		t.CostBasis = t.CostBasis.Add(r.CostBasis)
		t.Positions++
		if r.PriceSource == PriceUnknown {
			t.Unpriced++
		}
	}
	t.GainLoss = t.MarketValue.Sub(t.CostBasis)
	t.GainLossPct = t.GainLoss.PercentOf(t.CostBasis)
	return t
}

// GroupKey selects the classification used by GroupBy.
type GroupKey string

const (
	ByMarket GroupKey = "market"
	BySector GroupKey = "sector"
)

// ParseGroupKey parses "market" or "sector".
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(strings.ToLower(strings.TrimSpace(s))); k {
	case ByMarket, BySector:
		return k, nil
	}
	return "", fmt.Errorf("unknown group key %q, want %q or %q", s, ByMarket, BySector)
}

// Group is the diversification total for one market or sector.
type Group struct {
	Key         string  `json:"key"`
	MarketValue Money   `json:"market_value"`
	CostBasis   Money   `json:"cost_basis"`
	Weight      Percent `json:"weight"` // share of the total market value
	Positions   int     `json:"positions"`
}

// GroupBy totals rows by market or sector. Rows without the classification go
// to UnclassifiedKey, so the groups always sum to the total market value.
// Groups are sorted by decreasing market value, then by key.
func GroupBy(rows []EnrichedPosition, key GroupKey) []Group {
	index := make(map[string]int)
	var groups []Group
	var total Money
	for _, r := range rows {
		k := r.Market
		if key == BySector {
			k = r.Sector
		}
		if strings.TrimSpace(k) == "" {
			k = UnclassifiedKey
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].MarketValue = groups[i].MarketValue.Add(r.MarketValue)
		groups[i].CostBasis = groups[i].CostBasis.Add(r.CostBasis)
		groups[i].Positions++
		total = total.Add(r.MarketValue)
	}
	for i := range groups {
		groups[i].Weight = groups[i].MarketValue.PercentOf(total)
	}
	slices.SortStableFunc(groups, func(a, b Group) int {
		if c := b.MarketValue.Decimal().Cmp(a.MarketValue.Decimal()); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}

// RankByGain returns a copy of rows sorted by increasing absolute gain, the
// worst performer first.
func RankByGain(rows []EnrichedPosition) []EnrichedPosition {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b EnrichedPosition) int {
		return a.GainLoss.Decimal().Cmp(b.GainLoss.Decimal())
	})
	return ranked
}
