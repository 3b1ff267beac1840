package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrStoreUnavailable is returned when the transaction store cannot be reached.
// It is distinct from an empty store, which loads as an empty ledger.
var ErrStoreUnavailable = errors.New("transaction store unavailable")

// Store persists the full transaction log.
type Store interface {
	// Load returns the full log. A store that does not exist yet loads as an
	// empty ledger. Rows that fail validation are reported by Ledger.Skipped.
	Load(ctx context.Context) (*Ledger, error)
	// Save replaces the full log.
	Save(ctx context.Context, ledger *Ledger) error
}

// FileStore stores the log in a single file: JSONL, or CSV when the file
// name ends with ".csv".
type FileStore struct {
	Path string
	// Layout is the CSV layout used on save.
	Layout Layout
}

// NewFileStore returns a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) isCSV() bool {
	return strings.EqualFold(filepath.Ext(s.Path), ".csv")
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (*Ledger, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// If the file doesn't exist, it's an empty ledger.
			return NewLedger(), nil
		}
		return nil, fmt.Errorf("%w: could not open ledger file %q: %w", ErrStoreUnavailable, s.Path, err)
	}
	defer f.Close()

	var ledger *Ledger
	if s.isCSV() {
		ledger, err = ImportCSV(f)
	} else {
		ledger, err = DecodeLedger(f)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidHeader) {
			return nil, fmt.Errorf("could not decode ledger file %q: %w", s.Path, err)
		}
		return nil, fmt.Errorf("%w: could not read ledger file %q: %w", ErrStoreUnavailable, s.Path, err)
	}
	for _, row := range ledger.Skipped() {
		log.Printf("%s: %v", s.Path, row)
	}
	return ledger, nil
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, ledger *Ledger) error {
	encode := func(w io.Writer) error { return EncodeLedger(w, ledger) }
	if s.isCSV() {
		encode = func(w io.Writer) error { return ExportCSV(w, ledger, s.Layout) }
	}
	if err := atomicWrite(s.Path, encode); err != nil {
		return fmt.Errorf("%w: could not save ledger file %q: %w", ErrStoreUnavailable, s.Path, err)
	}
	return nil
}

// atomicWrite writes a temporary file next to path and renames it over path.
func atomicWrite(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AppendRecords loads a fresh copy of the log, validates and appends records,
// and saves the full log back. Concurrent writers are last writer wins.
//
// Records with an id already in the log, or given twice, are rejected with
// ErrDuplicateRecord and nothing is saved.
func AppendRecords(ctx context.Context, store Store, records ...Record) (*Ledger, error) {
	var errs []error
	for _, r := range records {
		if err := r.ValidateEntry(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	for _, r := range records {
		if r.ID == uuid.Nil {
			continue
		}
		if _, exists := ledger.Get(r.ID); exists || seen[r.ID] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRecord, r.ID))
		}
		seen[r.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	ledger.Append(records...)
	if err := store.Save(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// DeleteRecords loads a fresh copy of the log, removes the records by
// identity and saves the full log back.
func DeleteRecords(ctx context.Context, store Store, ids ...uuid.UUID) (*Ledger, error) {
	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := ledger.Delete(ids...); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}
