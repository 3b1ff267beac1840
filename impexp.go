package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// this file contains functions to handle the spreadsheet import/export format.
// It should remain human readable, single file and be easy to open in a spreadsheet.

// Layout selects the columns of the CSV format.
type Layout int

const (
	// LayoutSpreadsheet is the historical layout: Tipo,Ticker,Cantidad,Precio,Fecha
	// with kinds Compra, Venta and Dividendo.
	LayoutSpreadsheet Layout = iota
	// LayoutEnglish is kind,instrument,quantity,unit_price,date,id,memo.
	LayoutEnglish
)

// ErrInvalidHeader is returned when a CSV file does not start with a known header.
var ErrInvalidHeader = errors.New("invalid CSV header")

type column int

const (
	colKind column = iota
	colInstrument
	colQuantity
	colPrice
	colDate
	colID
	colMemo
	numColumns
)

// headerNames maps a lower case header name to its column.
var headerNames = map[string]column{
	"tipo":       colKind,
	"kind":       colKind,
	"ticker":     colInstrument,
	"instrument": colInstrument,
	"cantidad":   colQuantity,
	"quantity":   colQuantity,
	"precio":     colPrice,
	"unit_price": colPrice,
	"fecha":      colDate,
	"date":       colDate,
	"id":         colID,
	"memo":       colMemo,
}

var layoutHeaders = map[Layout][]string{
	LayoutSpreadsheet: {"Tipo", "Ticker", "Cantidad", "Precio", "Fecha"},
	LayoutEnglish:     {"kind", "instrument", "quantity", "unit_price", "date", "id", "memo"},
}

// ImportCSV reads records from 'r' in any of the CSV layouts, the header
// decides which.
//
// Rows that cannot be parsed or validated are reported by Ledger.Skipped.
func ImportCSV(r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header: %w", err)
	}
	index, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	ledger := NewLedger()
	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				ledger.skipped = append(ledger.skipped, RowError{Line: perr.Line, Row: strings.Join(row, ","), Err: err})
				continue
			}
			return nil, fmt.Errorf("error reading from input: %w", err)
		}
		if isBlank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		rec, err := parseRow(index, row)
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			ledger.skipped = append(ledger.skipped, RowError{Line: line, Row: strings.Join(row, ","), Err: err})
			continue
		}
		records = append(records, rec)
	}
	ledger.Append(records...)
	return ledger, nil
}

func parseHeader(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if c, ok := headerNames[name]; ok {
			index[c] = i
		}
	}
	var missing []string
	for _, c := range []column{colKind, colInstrument, colQuantity, colPrice, colDate} {
		if index[c] < 0 {
			missing = append(missing, layoutHeaders[LayoutEnglish][c])
		}
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("%w: missing column(s) %s in %q", ErrInvalidHeader, strings.Join(missing, ", "), strings.Join(header, ","))
	}
	return index, nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseRow(index [numColumns]int, row []string) (Record, error) {
	field := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var errs []error
	var rec Record
	var err error

	if rec.Kind, err = ParseKind(field(colKind)); err != nil {
		errs = append(errs, err)
	}
	rec.Instrument = field(colInstrument)
	if q := field(colQuantity); q != "" || rec.Kind != Dividend {
		if rec.Quantity, err = ParseQuantity(q); err != nil {
			errs = append(errs, err)
		}
	}
	if rec.UnitPrice, err = ParseMoney(field(colPrice)); err != nil {
		errs = append(errs, err)
	}
	if rec.Date, err = parseDataDate(field(colDate)); err != nil {
		errs = append(errs, err)
	}
	if id := field(colID); id != "" {
		if rec.ID, err = uuid.Parse(id); err != nil {
			errs = append(errs, fmt.Errorf("invalid id %q: %w", id, err))
		}
	}
	rec.Memo = field(colMemo)
	return rec, errors.Join(errs...)
}

// ExportCSV writes the ledger to 'w' in the given layout.
func ExportCSV(w io.Writer, ledger *Ledger, layout Layout) error {
	cw := csv.NewWriter(w)
	header, ok := layoutHeaders[layout]
	if !ok {
		return fmt.Errorf("unknown CSV layout %d", layout)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for r := range ledger.Records() {
		var row []string
		switch layout {
		case LayoutSpreadsheet:
			row = []string{r.Kind.Spanish(), r.Instrument, r.Quantity.String(), r.UnitPrice.Decimal().String(), r.Date.String()}
		case LayoutEnglish:
			row = []string{string(r.Kind), r.Instrument, r.Quantity.String(), r.UnitPrice.Decimal().String(), r.Date.String(), r.ID.String(), r.Memo}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
