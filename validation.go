package portfolio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RowError reports a row of a persisted log that was skipped at load time.
type RowError struct {
	Line int    // 1-based line number in the source, 0 when unknown
	Row  string // raw content of the row
	Err  error
}

func (e RowError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("skipped row %q: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("line %d: skipped row %q: %v", e.Line, e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// SkippedError joins row errors into a single error, nil if there is none.
func SkippedError(rows []RowError) error {
	errs := make([]error, 0, len(rows))
	for _, r := range rows {
		errs = append(errs, r)
	}
	return errors.Join(errs...)
}

// parseDecimal reads a plain decimal number. A single comma is accepted as
// the decimal separator.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, errors.New("empty number")
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
