package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/inverso/portfolio"
	"github.com/shopspring/decimal"
)

// DefaultYahooURL is the chart API root used by Yahoo.
const DefaultYahooURL = "https://query2.finance.yahoo.com/v8/finance/chart/"

// ErrUnknownInstrument is returned when the provider has no data for an
// instrument. It is portfolio.ErrUnknownInstrument.
var ErrUnknownInstrument = portfolio.ErrUnknownInstrument

// yahooMarkets maps Yahoo exchange names to the markets used in reports.
var yahooMarkets = map[string]string{
	"MEX": "BMV",
	"NMS": "SIC",
	"NYQ": "SIC",
	"NGM": "SIC",
	"NCM": "SIC",
	"ASE": "SIC",
	"PCX": "SIC",
	"BTS": "SIC",
}

// Yahoo reads quotes from the Yahoo Finance chart API.
type Yahoo struct {
	Client    *http.Client
	BaseURL   string
	UserAgent string
}

// NewYahoo returns a Yahoo source using client, nil is http.DefaultClient.
func NewYahoo(client *http.Client) *Yahoo {
	if client == nil {
		client = http.DefaultClient
	}
	return &Yahoo{Client: client, BaseURL: DefaultYahooURL, UserAgent: "pft/1.0"}
}

// Quote implements portfolio.QuoteSource.
//
// The chart metadata carries the live price and the previous close; Yahoo
// has no sector there so Sector is always absent.
//
//	{"chart":{"result":[{"meta":{
//	    "currency":"MXN","symbol":"AMXL.MX","exchangeName":"MEX",
//	    "regularMarketPrice":17.02,"chartPreviousClose":16.87,"previousClose":16.87
//	}}],"error":null}}
func (y *Yahoo) Quote(ctx context.Context, instrument string) (portfolio.Quote, error) {
	var q portfolio.Quote
	symbol := strings.ToUpper(strings.TrimSpace(instrument))
	if symbol == "" {
		return q, fmt.Errorf("empty instrument: %w", ErrUnknownInstrument)
	}

	base := y.BaseURL
	if base == "" {
		base = DefaultYahooURL
	}
	addr := base + url.PathEscape(symbol) + "?interval=1d&range=5d"
	header := http.Header{"User-Agent": []string{y.UserAgent}}

	var jobj any
	if err := jwget(ctx, y.Client, addr, header, &jobj); err != nil {
		var serr *statusError
		if errors.As(err, &serr) && serr.Code == http.StatusNotFound {
			return q, fmt.Errorf("yahoo %s: %w", symbol, ErrUnknownInstrument)
		}
		return q, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	meta, err := jsonpath.Get("$.chart.result[0].meta", jobj)
	if err != nil {
		return q, fmt.Errorf("yahoo %s: no result: %w", symbol, ErrUnknownInstrument)
	}
	q.CurrentPrice = jsonDecimal(meta, "$.regularMarketPrice")
	q.PreviousClose = jsonDecimal(meta, "$.previousClose")
	if !q.PreviousClose.Valid {
		q.PreviousClose = jsonDecimal(meta, "$.chartPreviousClose")
	}
	if exchange, err := jsonpath.Get("$.exchangeName", meta); err == nil {
		if s, ok := exchange.(string); ok {
			q.Market = yahooMarkets[s]
		}
	}
	return q, nil
}

// jsonDecimal reads a number at path, absent when missing or not a number.
func jsonDecimal(jobj any, path string) decimal.NullDecimal {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.NullDecimal{}
	}
	// jsonpath is not clear about whether it returns a list of 1 answer, or
	// a single answer: keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(val))
}
