package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrQuotesUnavailable is returned when no quote at all could be retrieved.
var ErrQuotesUnavailable = errors.New("quote source unavailable")

// ErrUnknownInstrument is returned by a quote source that answered but has no
// data for the instrument. The source itself is reachable.
var ErrUnknownInstrument = errors.New("unknown instrument")

// Quote is the best-effort market data for an instrument. Every field may be
// absent: prices are null decimals and classifications are empty strings.
type Quote struct {
	CurrentPrice  decimal.NullDecimal
	PreviousClose decimal.NullDecimal
	Sector        string
	Market        string
}

// PriceSource tells where the current price of a position comes from.
type PriceSource string

const (
	PriceLive          PriceSource = "live"
	PricePreviousClose PriceSource = "previous-close"
	// PriceUnknown means the current price is a zero sentinel, not a real price.
	PriceUnknown PriceSource = "none"
)

// Price resolves the current price: live price, else previous close, else 0.
// Prices that are not positive count as absent.
func (q Quote) Price() (Money, PriceSource) {
	if q.CurrentPrice.Valid && q.CurrentPrice.Decimal.IsPositive() {
		return Money{value: q.CurrentPrice.Decimal}, PriceLive
	}
	if q.PreviousClose.Valid && q.PreviousClose.Decimal.IsPositive() {
		return Money{value: q.PreviousClose.Decimal}, PricePreviousClose
	}
	return Money{}, PriceUnknown
}

// Merge returns q where absent fields are taken from o.
func (q Quote) Merge(o Quote) Quote {
	if !q.CurrentPrice.Valid {
		q.CurrentPrice = o.CurrentPrice
	}
	if !q.PreviousClose.Valid {
		q.PreviousClose = o.PreviousClose
	}
	if q.Sector == "" {
		q.Sector = o.Sector
	}
	if q.Market == "" {
		q.Market = o.Market
	}
	return q
}

// QuoteSource provides quotes for instruments. A failed call may still return
// the fields it could fill from elsewhere, they are kept.
type QuoteSource interface {
	Quote(ctx context.Context, instrument string) (Quote, error)
}

// QuoteFunc adapts a function to a QuoteSource.
type QuoteFunc func(ctx context.Context, instrument string) (Quote, error)

func (f QuoteFunc) Quote(ctx context.Context, instrument string) (Quote, error) {
	return f(ctx, instrument)
}

// QuoteMemo memoizes a QuoteSource: each instrument is looked up once, errors
// included. It is safe for concurrent use and meant to live for a single
// valuation pass.
type QuoteMemo struct {
	source QuoteSource
	mu     sync.Mutex
	memo   map[string]*memoEntry
}

type memoEntry struct {
	once  sync.Once
	quote Quote
	err   error
}

// NewQuoteMemo returns a memo in front of source.
func NewQuoteMemo(source QuoteSource) *QuoteMemo {
	return &QuoteMemo{source: source, memo: make(map[string]*memoEntry)}
}

func (m *QuoteMemo) Quote(ctx context.Context, instrument string) (Quote, error) {
	m.mu.Lock()
	e, ok := m.memo[instrument]
	if !ok {
		e = new(memoEntry)
		m.memo[instrument] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.quote, e.err = m.source.Quote(ctx, instrument)
	})
	return e.quote, e.err
}
