package portfolio

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestImportCSV_Spreadsheet(t *testing.T) {
	sample := "\ufeffTipo,Ticker,Cantidad,Precio,Fecha\n" +
		"Compra,AMXL.MX,100,\"15,20\",2025-08-01 00:00:00\n" +
		"Venta,AMXL.MX,40,16,2025-08-03\n" +
		"Dividendo,AMXL.MX,,12.5,2025-08-02T10:30:00\n" +
		"\n" +
		"Compra,AAPL,-1,195.5,2025-08-01\n" +
		"Split,AAPL,1,1,2025-08-01\n" +
		"Compra,,1,1,2025-08-01\n" +
		"Compra,AAPL,1,1,someday\n" +
		"Compra,AAPL,1,1,-1d\n" +
		"Venta,AAPL,1,1,+2w\n"

	ledger, err := ImportCSV(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ImportCSV() unexpected error: %v", err)
	}

	type row struct {
		Kind            Kind
		Instrument      string
		Quantity, Price string
		Date            string
	}
	var got []row
	for r := range ledger.Records() {
		got = append(got, row{r.Kind, r.Instrument, r.Quantity.String(), r.UnitPrice.Decimal().String(), r.Date.String()})
	}
	want := []row{
		{Buy, "AMXL.MX", "100", "15.2", "2025-08-01"},
		{Dividend, "AMXL.MX", "0", "12.5", "2025-08-02"},
		{Sell, "AMXL.MX", "40", "16", "2025-08-03"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ImportCSV() records mismatch (-want +got):\n%s", diff)
	}

	var lines []int
	for _, s := range ledger.Skipped() {
		lines = append(lines, s.Line)
	}
	if diff := cmp.Diff([]int{6, 7, 8, 9, 10, 11}, lines); diff != "" {
		t.Errorf("ImportCSV() skipped lines mismatch (-want +got):\n%s", diff)
	}
}

func TestImportCSV_InvalidHeader(t *testing.T) {
	_, err := ImportCSV(strings.NewReader("Ticker,Cantidad\nAAPL,1\n"))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("ImportCSV() error = %v, want ErrInvalidHeader", err)
	}
}

func TestImportCSV_Empty(t *testing.T) {
	ledger, err := ImportCSV(strings.NewReader(""))
	if err != nil || ledger.Len() != 0 {
		t.Errorf("ImportCSV(\"\") = %d records, %v, want an empty ledger", ledger.Len(), err)
	}
}

func TestExportImportCSV(t *testing.T) {
	original := NewLedger()
	original.Append(
		NewBuy(NewDate(2024, 1, 2), "AMXL.MX", Q(100), NO(15.25), "first, with a comma"),
		NewSell(NewDate(2024, 2, 3), "AMXL.MX", Q(30), NO(16.1), ""),
		NewDividend(NewDate(2024, 3, 4), "AMXL.MX", NO(42.42), ""),
	)

	for _, layout := range []Layout{LayoutSpreadsheet, LayoutEnglish} {
		var sb strings.Builder
		if err := ExportCSV(&sb, original, layout); err != nil {
			t.Fatalf("ExportCSV(%d) unexpected error: %v", layout, err)
		}
		decoded, err := ImportCSV(strings.NewReader(sb.String()))
		if err != nil {
			t.Fatalf("ImportCSV(ExportCSV(%d)) unexpected error: %v", layout, err)
		}
		if len(decoded.Skipped()) != 0 {
			t.Fatalf("ImportCSV(ExportCSV(%d)) skipped rows: %v", layout, decoded.Skipped())
		}
		want, got := original.All(), decoded.All()
		if len(got) != len(want) {
			t.Fatalf("layout %d: round trip has %d records, want %d", layout, len(got), len(want))
		}
		for i := range want {
			g, w := got[i], want[i]
			if layout == LayoutSpreadsheet {
				// no id nor memo column
				w.ID, w.Memo = g.ID, ""
			}
			if !g.Equal(w) {
				t.Errorf("layout %d: record %d = %+v, want %+v", layout, i, g, w)
			}
		}
	}
}

func TestExportCSV_SpreadsheetHeader(t *testing.T) {
	l := NewLedger()
	l.Append(buy("2024-01-02", "AAA", 1.5, 10))
	var sb strings.Builder
	if err := ExportCSV(&sb, l, LayoutSpreadsheet); err != nil {
		t.Fatal(err)
	}
	want := "Tipo,Ticker,Cantidad,Precio,Fecha\nCompra,AAA,1.5,10,2024-01-02\n"
	if got := sb.String(); got != want {
		t.Errorf("ExportCSV() = %q, want %q", got, want)
	}
}
