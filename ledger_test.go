package portfolio

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func instrumentsOf(l *Ledger) []string {
	var got []string
	for r := range l.Records() {
		got = append(got, r.Instrument)
	}
	return got
}

func TestLedger_AppendKeepsChronologicalOrder(t *testing.T) {
	l := NewLedger()
	l.Append(
		buy("2024-03-01", "C", 1, 1),
		buy("2024-01-01", "A", 1, 1),
		buy("2024-03-01", "D", 1, 1),
	)
	l.Append(buy("2024-02-01", "B", 1, 1))

	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, instrumentsOf(l)); diff != "" {
		t.Errorf("Records() order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, slices.Collect(l.Instruments())); diff != "" {
		t.Errorf("Instruments() mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_DerivedIDs(t *testing.T) {
	twin := buy("2024-01-01", "A", 1, 1)
	twin.ID = uuid.Nil

	load := func() *Ledger {
		l := NewLedger()
		l.Append(twin, twin)
		return l
	}
	first, second := load().All(), load().All()
	if first[0].ID == uuid.Nil || first[0].ID == first[1].ID {
		t.Fatalf("derived ids = %v, %v, want two distinct ids", first[0].ID, first[1].ID)
	}
	if first[0].ID != second[0].ID || first[1].ID != second[1].ID {
		t.Errorf("derived ids are not stable across loads")
	}
}

func TestLedger_Delete(t *testing.T) {
	a, b, c := buy("2024-01-01", "A", 1, 1), sell("2024-01-02", "A", 1, 2), dividend("2024-01-03", "A", 1)
	l := NewLedger()
	l.Append(a, b, c)

	if err := l.Delete(b.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, ok := l.Get(b.ID); ok || l.Len() != 2 {
		t.Errorf("Delete() left %d records, want 2 without the sell", l.Len())
	}

	err := l.Delete(a.ID, uuid.New())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Delete(unknown) error = %v, want ErrRecordNotFound", err)
	}
	if l.Len() != 2 {
		t.Errorf("Delete() with an unknown id removed records, got %d want 2", l.Len())
	}
}

func TestLedger_Filter(t *testing.T) {
	l := NewLedger()
	l.Append(
		buy("2024-01-01", "A", 1, 1),
		buy("2024-01-02", "B", 1, 1),
		dividend("2024-01-03", "A", 1),
	)
	var got []Kind
	for r := range l.Filter(ByInstrument("A"), ByKind(Buy, Sell)) {
		got = append(got, r.Kind)
	}
	if diff := cmp.Diff([]Kind{Buy}, got); diff != "" {
		t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_Version(t *testing.T) {
	a, b := buy("2024-01-01", "A", 1, 1), buy("2024-01-02", "B", 1, 1)

	l1, l2 := NewLedger(), NewLedger()
	l1.Append(a, b)
	l2.Append(b, a)
	if l1.Version() != l2.Version() {
		t.Errorf("Version() differs for the same records")
	}

	l2.Delete(a.ID)
	if l1.Version() == l2.Version() {
		t.Errorf("Version() unchanged after a delete")
	}
	if NewLedger().Version() == "" {
		t.Errorf("Version() of an empty ledger is empty")
	}
}
