package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inverso/portfolio"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

func testValuator(t *testing.T) *portfolio.Valuator {
	t.Helper()
	store := portfolio.NewFileStore(filepath.Join(t.TempDir(), "transactions.jsonl"))
	day := portfolio.NewDate(2025, 8, 1)
	_, err := portfolio.AppendRecords(context.Background(), store,
		portfolio.NewBuy(day, "AAPL", portfolio.Q(10), portfolio.M(150, ""), ""),
		portfolio.NewBuy(day.Add(2), "AMXL.MX", portfolio.Q(100), portfolio.M(15, ""), ""),
	)
	if err != nil {
		t.Fatalf("AppendRecords() unexpected error: %v", err)
	}
	quotes := portfolio.QuoteFunc(func(ctx context.Context, instrument string) (portfolio.Quote, error) {
		return portfolio.Quote{CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(20)), Sector: "Tech-" + instrument}, nil
	})
	return &portfolio.Valuator{Store: store, Quotes: quotes}
}

func call(t *testing.T, lib Library, name string, args map[string]any) (string, string) {
	t.Helper()
	resp := lib(context.Background(), &genai.FunctionCall{ID: "1", Name: name, Args: args})
	if resp.ID != "1" || resp.Name != name {
		t.Errorf("%s() response id/name = %q/%q", name, resp.ID, resp.Name)
	}
	out, _ := resp.Response["output"].(string)
	errMsg, _ := resp.Response["error"].(string)
	return out, errMsg
}

func TestTools(t *testing.T) {
	lib := NewLibrary(Tools(testValuator(t), ""))

	tests := []struct {
		name    string
		args    map[string]any
		want    []string
		wantErr string
	}{
		{name: "Portfolio", want: []string{"| AAPL | 10 |", "| AMXL.MX | 100 |", "## By Sector"}},
		{name: "Groups", args: map[string]any{"key": "sector"}, want: []string{"# By Sector", "| Tech-AAPL | 200.00 |"}},
		{name: "Groups", args: map[string]any{"key": "country"}, wantErr: "unknown group key"},
		{name: "Groups", wantErr: `argument "key" is missing`},
		{name: "Transactions", args: map[string]any{"instrument": "AMXL.MX"}, want: []string{"AMXL.MX"}},
		{name: "Transactions", args: map[string]any{"since": "2025-08-02"}, want: []string{"AMXL.MX"}},
		{name: "Transactions", args: map[string]any{"since": "someday"}, wantErr: "must be a valid date"},
		{name: "Transactions", args: map[string]any{"instrument": 3}, wantErr: "not a string"},
		{name: "Dance", wantErr: "unknown function Dance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errMsg := call(t, lib, tt.name, tt.args)
			if tt.wantErr != "" {
				if !strings.Contains(errMsg, tt.wantErr) {
					t.Errorf("%s(%v) error = %q, want %q", tt.name, tt.args, errMsg, tt.wantErr)
				}
				return
			}
			if errMsg != "" {
				t.Fatalf("%s(%v) unexpected error: %s", tt.name, tt.args, errMsg)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("%s(%v) does not contain %q, got:\n%s", tt.name, tt.args, want, out)
				}
			}
		})
	}
}

func TestTools_TransactionsFilter(t *testing.T) {
	lib := NewLibrary(Tools(testValuator(t), ""))
	out, _ := call(t, lib, "Transactions", map[string]any{"instrument": "AMXL.MX"})
	if strings.Contains(out, "AAPL") {
		t.Errorf("Transactions(AMXL.MX) lists AAPL:\n%s", out)
	}
}

func TestDeclarations(t *testing.T) {
	v := testValuator(t)
	accountant := NewAccountant(v, "USD")
	trader := NewTrader()
	facilitator := newFacilitator(accountant, trader)

	var names []string
	for _, d := range facilitator.Config.Tools[0].FunctionDeclarations {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "Accountant,Trader" {
		t.Errorf("facilitator tools = %s, want Accountant,Trader", got)
	}

	names = nil
	for _, d := range accountant.Config.Tools[0].FunctionDeclarations {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "Portfolio,Groups,Transactions" {
		t.Errorf("accountant tools = %s, want Portfolio,Groups,Transactions", got)
	}
}

func TestExpert_AskNotStarted(t *testing.T) {
	if _, err := NewTrader().Ask(context.Background(), &genai.Part{Text: "hi"}); err == nil {
		t.Errorf("Ask() on a stopped expert error = nil, want an error")
	}
}

func TestText(t *testing.T) {
	c := &genai.Content{Parts: []*genai.Part{{Text: "a"}, {Text: "b"}}}
	if got := Text(c); got != "ab" {
		t.Errorf("Text() = %q, want ab", got)
	}
}
