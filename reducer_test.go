package portfolio

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// posView is a comparable view of a Position.
type posView struct {
	Quantity, AverageCost, CostBasis string
}

func viewPositions(ps []Position) map[string]posView {
	m := make(map[string]posView, len(ps))
	for _, p := range ps {
		m[p.Instrument] = posView{
			Quantity:    p.OpenQuantity.Decimal().StringFixed(6),
			AverageCost: p.AverageCost.Decimal().StringFixed(6),
			CostBasis:   p.CostBasis.Decimal().StringFixed(6),
		}
	}
	return m
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name      string
		records   []Record
		want      map[string]posView
		wantDiags []DiagnosticCode
	}{
		{
			name: "blended average",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				buy("2024-01-03", "AAA", 10, 7),
			},
			want: map[string]posView{"AAA": {"20.000000", "6.000000", "120.000000"}},
		},
		{
			name: "fully closed",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				sell("2024-01-03", "AAA", 10, 8),
			},
			want: map[string]posView{},
		},
		{
			name: "sell only",
			records: []Record{
				sell("2024-01-03", "AAA", 5, 8),
			},
			want:      map[string]posView{},
			wantDiags: []DiagnosticCode{SellOnly},
		},
		{
			name: "oversold",
			records: []Record{
				buy("2024-01-02", "AAA", 5, 5),
				sell("2024-01-03", "AAA", 8, 8),
			},
			want:      map[string]posView{},
			wantDiags: []DiagnosticCode{Oversold},
		},
		{
			name: "partial sell keeps the lifetime average",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				buy("2024-01-03", "AAA", 10, 7),
				sell("2024-01-04", "AAA", 5, 9),
			},
			want: map[string]posView{"AAA": {"15.000000", "6.000000", "90.000000"}},
		},
		{
			name: "buy after a full close",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				sell("2024-01-03", "AAA", 10, 9),
				buy("2024-01-04", "AAA", 10, 11),
			},
			want: map[string]posView{"AAA": {"10.000000", "8.000000", "80.000000"}},
		},
		{
			name: "dust below epsilon",
			records: []Record{
				buy("2024-01-02", "AAA", 1, 10),
				sell("2024-01-03", "AAA", 0.9999995, 10),
			},
			want: map[string]posView{},
		},
		{
			name: "dividends do not change positions",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				dividend("2024-02-01", "AAA", 3),
				dividend("2024-02-01", "BBB", 4),
			},
			want: map[string]posView{"AAA": {"10.000000", "5.000000", "50.000000"}},
		},
		{
			name: "zero price buys",
			records: []Record{
				buy("2024-01-02", "GIFT", 10, 0),
			},
			want: map[string]posView{"GIFT": {"10.000000", "0.000000", "0.000000"}},
		},
		{
			name: "independent instruments",
			records: []Record{
				buy("2024-01-02", "AAA", 10, 5),
				buy("2024-01-02", "BBB", 3, 100),
				sell("2024-01-03", "CCC", 1, 1),
				sell("2024-01-04", "BBB", 1, 120),
			},
			want: map[string]posView{
				"AAA": {"10.000000", "5.000000", "50.000000"},
				"BBB": {"2.000000", "100.000000", "200.000000"},
			},
			wantDiags: []DiagnosticCode{SellOnly},
		},
		{
			name:    "empty log",
			records: nil,
			want:    map[string]posView{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(tt.records)
			if diff := cmp.Diff(tt.want, viewPositions(got.Positions)); diff != "" {
				t.Errorf("Reduce() positions mismatch (-want +got):\n%s", diff)
			}
			var codes []DiagnosticCode
			for _, d := range got.Diagnostics {
				codes = append(codes, d.Code)
			}
			if diff := cmp.Diff(tt.wantDiags, codes); diff != "" {
				t.Errorf("Reduce() diagnostics mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduce_SellOnlyDiagnostic(t *testing.T) {
	got := Reduce([]Record{sell("2024-01-03", "XYZ.MX", 5, 8)})
	if len(got.Positions) != 0 {
		t.Fatalf("Reduce() positions = %v, want none", got.Positions)
	}
	if len(got.Diagnostics) != 1 {
		t.Fatalf("Reduce() diagnostics = %v, want exactly one", got.Diagnostics)
	}
	if d := got.Diagnostics[0]; d.Instrument != "XYZ.MX" || d.Code != SellOnly {
		t.Errorf("Reduce() diagnostic = %v, want sell-only for XYZ.MX", d)
	}
}

func TestReduce_FirstSeenOrder(t *testing.T) {
	got := Reduce([]Record{
		buy("2024-01-02", "ZZZ", 1, 1),
		buy("2024-01-02", "AAA", 1, 1),
		buy("2024-01-02", "MMM", 1, 1),
		buy("2024-01-03", "AAA", 1, 1),
	})
	var order []string
	for _, p := range got.Positions {
		order = append(order, p.Instrument)
	}
	if diff := cmp.Diff([]string{"ZZZ", "AAA", "MMM"}, order); diff != "" {
		t.Errorf("Reduce() order mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Income(t *testing.T) {
	got := Reduce([]Record{
		dividend("2024-02-01", "BBB", 4),
		buy("2024-01-02", "AAA", 10, 5),
		dividend("2024-03-01", "AAA", 2.5),
		dividend("2024-04-01", "BBB", 1),
	})
	want := map[string]string{"BBB": "5.00", "AAA": "2.50"}
	gotIncome := make(map[string]string)
	for _, in := range got.Income {
		gotIncome[in.Instrument] = in.Amount.String()
	}
	if diff := cmp.Diff(want, gotIncome); diff != "" {
		t.Errorf("Reduce() income mismatch (-want +got):\n%s", diff)
	}
}

// randomLog generates a log of integer trades over a few instruments.
func randomLog(r *rand.Rand, n int) []Record {
	instruments := []string{"AAA", "BBB", "CCC", "DDD"}
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		day := NewDate(2024, 1, 1+r.IntN(60))
		instrument := instruments[r.IntN(len(instruments))]
		q, p := Q(1+r.IntN(20)), M(1+r.IntN(100), "")
		switch r.IntN(5) {
		case 0, 1, 2:
			records = append(records, NewBuy(day, instrument, q, p, ""))
		case 3:
			records = append(records, NewSell(day, instrument, q, p, ""))
		default:
			records = append(records, NewDividend(day, instrument, p, ""))
		}
	}
	return records
}

func TestReduce_Conservation(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for run := 0; run < 50; run++ {
		records := randomLog(r, 40)
		bought := make(map[string]Quantity)
		sold := make(map[string]Quantity)
		for _, rec := range records {
			switch rec.Kind {
			case Buy:
				bought[rec.Instrument] = bought[rec.Instrument].Add(rec.Quantity)
			case Sell:
				sold[rec.Instrument] = sold[rec.Instrument].Add(rec.Quantity)
			}
		}
		got := viewPositions(Reduce(records).Positions)
		for _, instrument := range []string{"AAA", "BBB", "CCC", "DDD"} {
			open := bought[instrument].Sub(sold[instrument])
			p, ok := got[instrument]
			if !open.IsOpen() {
				if ok {
					t.Errorf("run %d: Reduce() has a position for %s with open quantity %v", run, instrument, open)
				}
				continue
			}
			if !ok {
				t.Errorf("run %d: Reduce() has no position for %s, want %v", run, instrument, open)
				continue
			}
			if want := open.Decimal().StringFixed(6); p.Quantity != want {
				t.Errorf("run %d: Reduce() %s quantity = %s, want %s", run, instrument, p.Quantity, want)
			}
		}
	}
}

func TestReduce_IdempotentAndOrderIndependent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for run := 0; run < 20; run++ {
		records := randomLog(r, 30)
		first := Reduce(records)
		again := Reduce(records)
		if diff := cmp.Diff(viewPositions(first.Positions), viewPositions(again.Positions)); diff != "" {
			t.Fatalf("run %d: Reduce() is not idempotent (-first +again):\n%s", run, diff)
		}

		shuffled := append([]Record(nil), records...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if diff := cmp.Diff(viewPositions(first.Positions), viewPositions(Reduce(shuffled).Positions)); diff != "" {
			t.Errorf("run %d: Reduce() depends on the record order (-ordered +shuffled):\n%s", run, diff)
		}
	}
}
