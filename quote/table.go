package quote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/inverso/portfolio"
	"github.com/shopspring/decimal"
)

// Classification is one line of a classification file.
//
//	{"instrument":"AMXL.MX","sector":"Communication Services","market":"BMV","close":17.02}
//
// Close is an optional manual closing price, served as the previous close.
type Classification struct {
	Instrument string              `json:"instrument"`
	Sector     string              `json:"sector,omitempty"`
	Market     string              `json:"market,omitempty"`
	Close      decimal.NullDecimal `json:"close"`
}

// Table is a static classification source: it knows sectors, markets and
// manual closing prices, never a live price. Instruments that are not listed
// still get an inferred market.
type Table struct {
	entries map[string]Classification
}

// NewTable returns a table for the given classifications.
func NewTable(entries ...Classification) *Table {
	t := &Table{entries: make(map[string]Classification)}
	for _, c := range entries {
		t.entries[key(c.Instrument)] = c
	}
	return t
}

func key(instrument string) string { return strings.ToUpper(strings.TrimSpace(instrument)) }

// DecodeTable reads a JSONL classification stream.
func DecodeTable(r io.Reader) (*Table, error) {
	t := NewTable()
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var c Classification
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if key(c.Instrument) == "" {
			return nil, fmt.Errorf("line %d: instrument is missing", line)
		}
		t.entries[key(c.Instrument)] = c
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTable reads the classification file at path. A missing file is an
// empty table.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewTable(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := DecodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read classification file %q: %w", path, err)
	}
	return t, nil
}

// InferMarket returns the market implied by an instrument symbol: BMV for
// the ".MX" suffix, SIC otherwise.
func InferMarket(instrument string) string {
	if strings.HasSuffix(key(instrument), ".MX") {
		return "BMV"
	}
	return "SIC"
}

// Quote implements portfolio.QuoteSource. It never fails.
func (t *Table) Quote(ctx context.Context, instrument string) (portfolio.Quote, error) {
	c := t.entries[key(instrument)]
	q := portfolio.Quote{Sector: c.Sector, Market: c.Market, PreviousClose: c.Close}
	if q.Market == "" {
		q.Market = InferMarket(instrument)
	}
	return q, nil
}
