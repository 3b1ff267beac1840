// Package pgstore stores the transaction log in a PostgreSQL table.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inverso/portfolio"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// DefaultTable is the table used when none is given.
const DefaultTable = "pft_transactions"

// uniqueViolation is the SQLSTATE of a duplicate primary key.
const uniqueViolation = "23505"

var columns = []string{"seq", "id", "kind", "instrument", "quantity", "unit_price", "day", "memo"}

var _ portfolio.Store = (*Store)(nil)

// Store is a portfolio.Store backed by a PostgreSQL table.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// Open connects to the database at dbURL, verifies connectivity and creates
// the table if needed.
func Open(ctx context.Context, dbURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	// Ensure the connection is established.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	s := &Store{pool: pool, table: DefaultTable}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connections.
func (s *Store) Close() { s.pool.Close() }

func (s *Store) ident() string { return pgx.Identifier{s.table}.Sanitize() }

func (s *Store) migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.ident() + ` (
	seq        integer NOT NULL,
	id         text PRIMARY KEY,
	kind       text NOT NULL,
	instrument text NOT NULL,
	quantity   numeric NOT NULL,
	unit_price numeric NOT NULL,
	day        date NOT NULL,
	memo       text NOT NULL DEFAULT ''
)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("%w: cannot create table %s: %w", portfolio.ErrStoreUnavailable, s.table, err)
	}
	return nil
}

// row is the raw content of a table row.
type row struct {
	Seq        int
	ID         string
	Kind       string
	Instrument string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	Day        time.Time
	Memo       string
}

func (r row) String() string {
	return strings.Join([]string{r.ID, r.Kind, r.Instrument, r.Quantity.String(), r.UnitPrice.String(), r.Day.Format(portfolio.DateFormat), r.Memo}, ",")
}

// record converts a row, the result is validated.
func (r row) record() (portfolio.Record, error) {
	var errs []error
	var rec portfolio.Record
	var err error
	if rec.ID, err = uuid.Parse(r.ID); err != nil {
		errs = append(errs, fmt.Errorf("invalid id %q: %w", r.ID, err))
	}
	if rec.Kind, err = portfolio.ParseKind(r.Kind); err != nil {
		errs = append(errs, err)
	}
	rec.Instrument = r.Instrument
	rec.Quantity = portfolio.Q(r.Quantity)
	rec.UnitPrice = portfolio.M(r.UnitPrice, "")
	rec.Date = portfolio.NewDate(r.Day.Date())
	rec.Memo = r.Memo
	if err := errors.Join(errs...); err != nil {
		return rec, err
	}
	return rec, rec.Validate()
}

func fromRecord(seq int, r portfolio.Record) []any {
	return []any{seq, r.ID.String(), string(r.Kind), r.Instrument, r.Quantity.Decimal(), r.UnitPrice.Decimal(), r.Date.Time(), r.Memo}
}

// Load implements portfolio.Store.
func (s *Store) Load(ctx context.Context) (*portfolio.Ledger, error) {
	query := `SELECT ` + strings.Join(columns, ", ") + ` FROM ` + s.ident() + ` ORDER BY seq`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByPos[row])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	return decodeRows(raw), nil
}

// decodeRows builds the ledger, invalid rows are skipped and logged.
func decodeRows(raw []row) *portfolio.Ledger {
	var records []portfolio.Record
	var skipped []portfolio.RowError
	for i, r := range raw {
		rec, err := r.record()
		if err != nil {
			skipped = append(skipped, portfolio.RowError{Line: i + 1, Row: r.String(), Err: err})
			continue
		}
		records = append(records, rec)
	}
	ledger := portfolio.NewLedger()
	ledger.Append(records...)
	ledger.Report(skipped...)
	for _, e := range skipped {
		log.Printf("%s: %v", DefaultTable, e)
	}
	return ledger
}

// Save implements portfolio.Store. The table is replaced in a single
// transaction.
func (s *Store) Save(ctx context.Context, ledger *portfolio.Ledger) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if _, err := tx.Exec(ctx, `DELETE FROM `+s.ident()); err != nil {
		return fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	var values [][]any
	for r := range ledger.Records() {
		values = append(values, fromRecord(len(values), r))
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{s.table}, columns, pgx.CopyFromRows(values)); err != nil {
		return saveError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return saveError(err)
	}
	return nil
}

// saveError tells rejected data from an unreachable database. Integrity
// constraint violations (SQLSTATE class 23) are not unavailability.
func saveError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || !strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %w", portfolio.ErrStoreUnavailable, err)
	}
	if pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %w", portfolio.ErrDuplicateRecord, err)
	}
	return fmt.Errorf("rejected by %s: %w", DefaultTable, err)
}
