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
)

// DefaultEODHDURL is the real-time API root of EODHD.
const DefaultEODHDURL = "https://eodhd.com/api/real-time/"

// eodhdMarkets maps EODHD exchange codes to the markets used in reports.
var eodhdMarkets = map[string]string{
	"MX": "BMV",
	"US": "SIC",
}

// EODHD reads quotes from the eodhd.com real-time API. It needs an API key,
// you can get one at https://eodhd.com/.
type EODHD struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

// NewEODHD returns an EODHD source using client, nil is http.DefaultClient.
func NewEODHD(apiKey string, client *http.Client) *EODHD {
	if client == nil {
		client = http.DefaultClient
	}
	return &EODHD{Client: client, BaseURL: DefaultEODHDURL, APIKey: apiKey}
}

// eodhdTicker returns the "SYMBOL.EXCHANGECODE" ticker EODHD uses.
//
// Instruments without an exchange suffix are traded through the SIC and
// listed in the US.
func eodhdTicker(instrument string) string {
	symbol := strings.ToUpper(strings.TrimSpace(instrument))
	if symbol == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + ".US"
}

// Quote implements portfolio.QuoteSource.
//
// Fields EODHD cannot fill are "NA" instead of a number.
//
//	{"code":"AMXL.MX","timestamp":1723150800,"open":16.95,"high":17.1,
//	 "low":16.9,"close":17.02,"volume":1234,"previousClose":16.87,"change":0.15}
func (e *EODHD) Quote(ctx context.Context, instrument string) (portfolio.Quote, error) {
	var q portfolio.Quote
	ticker := eodhdTicker(instrument)
	if ticker == "" {
		return q, fmt.Errorf("empty instrument: %w", ErrUnknownInstrument)
	}

	base := e.BaseURL
	if base == "" {
		base = DefaultEODHDURL
	}
	addr := base + url.PathEscape(ticker) + "?fmt=json&api_token=" + url.QueryEscape(e.APIKey)

	var jobj any
	if err := jwget(ctx, e.Client, addr, nil, &jobj); err != nil {
		var serr *statusError
		if errors.As(err, &serr) && serr.Code == http.StatusNotFound {
			return q, fmt.Errorf("eodhd %s: %w", ticker, ErrUnknownInstrument)
		}
		return q, fmt.Errorf("eodhd %s: %w", ticker, err)
	}
	if code, err := jsonpath.Get("$.code", jobj); err != nil || code == nil {
		return q, fmt.Errorf("eodhd %s: no result: %w", ticker, ErrUnknownInstrument)
	}

	q.CurrentPrice = jsonDecimal(jobj, "$.close")
	q.PreviousClose = jsonDecimal(jobj, "$.previousClose")
	if i := strings.LastIndex(ticker, "."); i >= 0 {
		q.Market = eodhdMarkets[ticker[i+1:]]
	}
	return q, nil
}
