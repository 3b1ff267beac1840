package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inverso/portfolio"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var prices = portfolio.QuoteFunc(func(ctx context.Context, instrument string) (portfolio.Quote, error) {
	switch instrument {
	case "AAPL":
		return portfolio.Quote{CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(200)), Market: "SIC", Sector: "Technology"}, nil
	case "AMXL.MX":
		return portfolio.Quote{PreviousClose: decimal.NewNullDecimal(decimal.NewFromInt(10)), Market: "BMV"}, nil
	}
	return portfolio.Quote{}, nil
})

func newTestServer(t *testing.T, quotes portfolio.QuoteSource) (*Server, portfolio.Store) {
	t.Helper()
	store := portfolio.NewFileStore(filepath.Join(t.TempDir(), "transactions.jsonl"))
	day := portfolio.NewDate(2025, 8, 1)
	_, err := portfolio.AppendRecords(context.Background(), store,
		portfolio.NewBuy(day, "AAPL", portfolio.Q(10), portfolio.M(150, ""), ""),
		portfolio.NewBuy(day, "AMXL.MX", portfolio.Q(100), portfolio.M(15, ""), ""),
		portfolio.NewDividend(day.Add(30), "AMXL.MX", portfolio.M(12, ""), ""),
	)
	require.NoError(t, err)
	return New(&portfolio.Valuator{Store: store, Quotes: quotes}, "USD"), store
}

func serve(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestGetPositions(t *testing.T) {
	s, _ := newTestServer(t, prices)
	w := serve(t, s, http.MethodGet, "/positions", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Positions []struct {
			Instrument  string  `json:"instrument"`
			MarketValue float64 `json:"market_value"`
			GainLoss    float64 `json:"gain_loss_abs"`
			PriceSource string  `json:"price_source"`
			Sector      string  `json:"sector"`
		} `json:"positions"`
		Diagnostics []portfolio.Diagnostic `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Positions, 2)

	assert.Equal(t, "AAPL", body.Positions[0].Instrument)
	assert.Equal(t, 2000.0, body.Positions[0].MarketValue)
	assert.Equal(t, 500.0, body.Positions[0].GainLoss)
	assert.Equal(t, "live", body.Positions[0].PriceSource)

	assert.Equal(t, "AMXL.MX", body.Positions[1].Instrument)
	assert.Equal(t, 1000.0, body.Positions[1].MarketValue)
	assert.Equal(t, -500.0, body.Positions[1].GainLoss)
	assert.Equal(t, "previous-close", body.Positions[1].PriceSource)
	assert.Empty(t, body.Positions[1].Sector)
	assert.Empty(t, body.Diagnostics, "AMXL.MX has a market, it is classified")
}

func TestGetSummary(t *testing.T) {
	s, _ := newTestServer(t, prices)
	w := serve(t, s, http.MethodGet, "/summary", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3000.0, body["total_market_value"])
	assert.Equal(t, 3000.0, body["total_cost_basis"])
	assert.Equal(t, 0.0, body["total_gain_loss_abs"])
	assert.Equal(t, 12.0, body["total_income"])
	assert.Equal(t, 2.0, body["positions"])
}

func TestGetGroups(t *testing.T) {
	s, _ := newTestServer(t, prices)

	w := serve(t, s, http.MethodGet, "/groups/sector", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var groups []struct {
		Key         string  `json:"key"`
		MarketValue float64 `json:"market_value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Technology", groups[0].Key)
	assert.Equal(t, portfolio.UnclassifiedKey, groups[1].Key)
	assert.Equal(t, 3000.0, groups[0].MarketValue+groups[1].MarketValue)

	w = serve(t, s, http.MethodGet, "/groups/country", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactions_Lifecycle(t *testing.T) {
	s, _ := newTestServer(t, prices)

	w := serve(t, s, http.MethodPost, "/transactions", `{"kind":"buy","instrument":"MSFT","quantity":2,"unit_price":400.5,"date":"2025-09-01","memo":"first"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Buy", created.Kind)

	w = serve(t, s, http.MethodGet, "/transactions?instrument=MSFT", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0]["id"])
	assert.Equal(t, "first", listed[0]["memo"])

	w = serve(t, s, http.MethodDelete, "/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, s, http.MethodDelete, "/transactions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, s, http.MethodGet, "/transactions?instrument=MSFT", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPostTransaction_DuplicateID(t *testing.T) {
	s, _ := newTestServer(t, prices)

	const id = "11111111-1111-4111-8111-111111111111"
	w := serve(t, s, http.MethodPost, "/transactions", `{"kind":"buy","instrument":"AAA","quantity":10,"unit_price":5,"date":"2025-09-01","id":"`+id+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(t, s, http.MethodPost, "/transactions", `{"kind":"buy","instrument":"BBB","quantity":3,"unit_price":7,"date":"2025-09-02","id":"`+id+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = serve(t, s, http.MethodGet, "/transactions?instrument=AAA", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0]["id"])

	w = serve(t, s, http.MethodGet, "/transactions?instrument=BBB", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetTransactions_Filters(t *testing.T) {
	s, _ := newTestServer(t, prices)

	tests := []struct {
		query string
		code  int
		count int
	}{
		{"", http.StatusOK, 3},
		{"?kind=dividend", http.StatusOK, 1},
		{"?since=2025-08-02", http.StatusOK, 1},
		{"?instrument=AMXL.MX&kind=buy", http.StatusOK, 1},
		{"?since=tomorrow", http.StatusBadRequest, 0},
		{"?kind=gift", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(t, s, http.MethodGet, "/transactions"+tt.query, "")
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code != http.StatusOK {
				return
			}
			var listed []map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
			assert.Len(t, listed, tt.count)
		})
	}
}

func TestPostTransaction_Invalid(t *testing.T) {
	s, store := newTestServer(t, prices)

	for _, body := range []string{
		`{"kind":"buy","instrument":"MSFT","quantity":0,"unit_price":400,"date":"2025-09-01"}`,
		`{"kind":"sell","instrument":"MSFT","quantity":1,"unit_price":-1,"date":"2025-09-01"}`,
		`{"kind":"dividend","instrument":"MSFT","unit_price":0,"date":"2025-09-01"}`,
		`{"kind":"gift","instrument":"MSFT","quantity":1,"unit_price":1,"date":"2025-09-01"}`,
		`{"instrument":"MSFT"}`,
		`not json`,
	} {
		w := serve(t, s, http.MethodPost, "/transactions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	ledger, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.Len(), "invalid transactions must not be recorded")

	w := serve(t, s, http.MethodDelete, "/transactions/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnavailable(t *testing.T) {
	t.Run("store", func(t *testing.T) {
		// a directory cannot be read as a ledger file.
		s := New(&portfolio.Valuator{Store: portfolio.NewFileStore(t.TempDir()), Quotes: prices}, "USD")
		for _, target := range []string{"/positions", "/summary", "/transactions", "/report"} {
			w := serve(t, s, http.MethodGet, target, "")
			assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
		}
	})
	t.Run("quotes", func(t *testing.T) {
		down := portfolio.QuoteFunc(func(ctx context.Context, instrument string) (portfolio.Quote, error) {
			return portfolio.Quote{}, errors.New("connection refused")
		})
		s, _ := newTestServer(t, down)
		w := serve(t, s, http.MethodGet, "/positions", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), portfolio.ErrQuotesUnavailable.Error())

		// the ledger does not need quotes.
		w = serve(t, s, http.MethodGet, "/transactions", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetReport(t *testing.T) {
	s, _ := newTestServer(t, prices)
	w := serve(t, s, http.MethodGet, "/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<h2>By Sector</h2>")
	assert.Contains(t, w.Body.String(), "AMXL.MX")
}
