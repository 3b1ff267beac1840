package portfolio

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

func buy(day, instrument string, q, p float64) Record {
	return NewBuy(MustParse(day), instrument, Q(q), NO(p), "")
}

func sell(day, instrument string, q, p float64) Record {
	return NewSell(MustParse(day), instrument, Q(q), NO(p), "")
}

func dividend(day, instrument string, amount float64) Record {
	return NewDividend(MustParse(day), instrument, NO(amount), "")
}

func price(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

var errQuoteDown = errors.New("quote service down")

// fakeQuotes is a QuoteSource backed by a map, it counts lookups per instrument.
// Instruments in fail return errQuoteDown.
type fakeQuotes struct {
	quotes map[string]Quote
	fail   map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeQuotes) Quote(ctx context.Context, instrument string) (Quote, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[instrument]++
	f.mu.Unlock()
	if f.fail[instrument] {
		return Quote{}, errQuoteDown
	}
	return f.quotes[instrument], nil
}

func (f *fakeQuotes) count(instrument string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[instrument]
}
