package portfolio

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned when deleting a record that is not in the ledger.
var ErrRecordNotFound = errors.New("record not found")

// ErrDuplicateRecord is returned when appending a record whose id is already
// in the ledger.
var ErrDuplicateRecord = errors.New("duplicate record id")

// ledgerNamespace seeds the identities derived for records persisted without one.
var ledgerNamespace = uuid.MustParse("6f1b3c64-3c7e-4b53-9a4e-2f0f3c1d8e57")

// Ledger represents a list of transaction records.
//
// In a Ledger records are always in chronological order, records on the same
// day keep their insertion order.
type Ledger struct {
	records []Record
	skipped []RowError
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: make([]Record, 0)}
}

// Append adds records to the ledger.
//
// A record without identity gets one derived from its content, so that a log
// persisted without ids still yields the same ids on every load.
func (l *Ledger) Append(records ...Record) {
	for _, r := range records {
		if r.ID == uuid.Nil {
			r.ID = l.deriveID(r)
		}
		l.records = append(l.records, r)
	}
	l.stableSort()
}

func (l *Ledger) deriveID(r Record) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s|%s|%s|%s", r.Kind, r.Instrument, r.Quantity, r.UnitPrice.Decimal(), r.Date, r.Memo)
	for n := 0; ; n++ {
		id := uuid.NewSHA1(ledgerNamespace, []byte(fmt.Sprintf("%s|%d", key, n)))
		if _, exists := l.Get(id); !exists {
			return id
		}
	}
}

// stableSort sorts the records by date, keeping the relative order of records
// on the same day.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.records, func(i, j int) bool {
		return l.records[i].Date.Before(l.records[j].Date)
	})
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Records iterates over the records in chronological order.
func (l *Ledger) Records() iter.Seq[Record] { return slices.Values(l.records) }

// All returns a copy of the records in chronological order.
func (l *Ledger) All() []Record { return slices.Clone(l.records) }

// Skipped returns the rows that were rejected when the ledger was loaded.
func (l *Ledger) Skipped() []RowError { return l.skipped }

// Report records rows that were rejected while loading the ledger.
func (l *Ledger) Report(rows ...RowError) { l.skipped = append(l.skipped, rows...) }

// Get returns the record with the given identity.
func (l *Ledger) Get(id uuid.UUID) (Record, bool) {
	i := slices.IndexFunc(l.records, func(r Record) bool { return r.ID == id })
	if i < 0 {
		return Record{}, false
	}
	return l.records[i], true
}

// Delete removes the records with the given identities. Nothing is removed if
// any of them is unknown.
func (l *Ledger) Delete(ids ...uuid.UUID) error {
	var errs []error
	for _, id := range ids {
		if _, ok := l.Get(id); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrRecordNotFound, id))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	l.records = slices.DeleteFunc(l.records, func(r Record) bool {
		return slices.Contains(ids, r.ID)
	})
	return nil
}

// Instruments iterates over the instruments in order of first appearance.
func (l *Ledger) Instruments() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]bool)
		for _, r := range l.records {
			if seen[r.Instrument] {
				continue
			}
			seen[r.Instrument] = true
			if !yield(r.Instrument) {
				return
			}
		}
	}
}

// ByInstrument returns a predicate matching records of the given instrument.
func ByInstrument(instrument string) func(Record) bool {
	return func(r Record) bool { return r.Instrument == instrument }
}

// ByKind returns a predicate matching records of the given kinds.
func ByKind(kinds ...Kind) func(Record) bool {
	return func(r Record) bool { return slices.Contains(kinds, r.Kind) }
}

// Since returns a predicate matching records on or after day.
func Since(day Date) func(Record) bool {
	return func(r Record) bool { return !r.Date.Before(day) }
}

// Filter iterates over the records matching all the predicates.
func (l *Ledger) Filter(predicates ...func(Record) bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
	next:
		for _, r := range l.records {
			for _, p := range predicates {
				if !p(r) {
					continue next
				}
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Version returns a hash of the canonical encoding of the ledger. Two ledgers
// with the same records have the same version.
func (l *Ledger) Version() string {
	h := sha256.New()
	for _, r := range l.records {
		// EncodeRecord only fails on write errors, a hash never fails.
		_ = EncodeRecord(h, r)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
