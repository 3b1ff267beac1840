package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind identifies the type of a transaction record.
type Kind string

// Kinds of transaction records.
const (
	Buy      Kind = "Buy"
	Sell     Kind = "Sell"
	Dividend Kind = "Dividend"
)

// kindAliases maps every accepted spelling to its Kind, including the labels
// used by the spreadsheet export (Compra, Venta, Dividendo).
var kindAliases = map[string]Kind{
	"buy":       Buy,
	"compra":    Buy,
	"sell":      Sell,
	"venta":     Sell,
	"dividend":  Dividend,
	"dividendo": Dividend,
}

// ParseKind parses a kind, case insensitive.
func ParseKind(s string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return k, nil
}

// Spanish returns the label used in the spreadsheet layout.
func (k Kind) Spanish() string {
	switch k {
	case Buy:
		return "Compra"
	case Sell:
		return "Venta"
	case Dividend:
		return "Dividendo"
	}
	return string(k)
}

// Record is an immutable entry of the ledger.
//
// For Buy and Sell, UnitPrice is the price per unit. For Dividend, Quantity is
// zero and UnitPrice is the total cash amount received.
type Record struct {
	ID         uuid.UUID
	Kind       Kind
	Instrument string
	Quantity   Quantity
	UnitPrice  Money
	Date       Date
	Memo       string
}

// NewBuy creates a new Buy record with a fresh identity.
func NewBuy(day Date, instrument string, quantity Quantity, price Money, memo string) Record {
	return Record{ID: uuid.New(), Kind: Buy, Instrument: instrument, Quantity: quantity, UnitPrice: price, Date: day, Memo: memo}
}

// NewSell creates a new Sell record with a fresh identity.
func NewSell(day Date, instrument string, quantity Quantity, price Money, memo string) Record {
	return Record{ID: uuid.New(), Kind: Sell, Instrument: instrument, Quantity: quantity, UnitPrice: price, Date: day, Memo: memo}
}

// NewDividend creates a new Dividend record for the total amount received.
func NewDividend(day Date, instrument string, amount Money, memo string) Record {
	return Record{ID: uuid.New(), Kind: Dividend, Instrument: instrument, UnitPrice: amount, Date: day, Memo: memo}
}

// Amount returns the cash value of the record.
func (r Record) Amount() Money {
	if r.Kind == Dividend {
		return r.UnitPrice
	}
	return r.UnitPrice.Mul(r.Quantity)
}

// Equal reports whether both records have the same content, identity included.
func (r Record) Equal(o Record) bool {
	return r.ID == o.ID &&
		r.Kind == o.Kind &&
		r.Instrument == o.Instrument &&
		r.Quantity.Equal(o.Quantity) &&
		r.UnitPrice.Decimal().Equal(o.UnitPrice.Decimal()) &&
		r.Date == o.Date &&
		r.Memo == o.Memo
}

// Validate checks the ledger invariants of a record and returns all the
// failures at once.
func (r Record) Validate() error {
	var errs []error
	switch r.Kind {
	case Buy, Sell, Dividend:
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", r.Kind))
	}
	if strings.TrimSpace(r.Instrument) == "" {
		errs = append(errs, errors.New("instrument is missing"))
	}
	if r.Date.IsZero() {
		errs = append(errs, errors.New("date is missing"))
	}
	if r.Quantity.IsNegative() {
		errs = append(errs, fmt.Errorf("quantity %v is negative", r.Quantity))
	}
	if r.UnitPrice.IsNegative() {
		errs = append(errs, fmt.Errorf("unit price %v is negative", r.UnitPrice))
	}
	return errors.Join(errs...)
}

// ValidateEntry applies the stricter rule for new entries: trades need a
// positive quantity and price, dividends a positive amount.
func (r Record) ValidateEntry() error {
	if err := r.Validate(); err != nil {
		return err
	}
	switch r.Kind {
	case Buy, Sell:
		if !r.Quantity.IsPositive() || !r.UnitPrice.IsPositive() {
			return fmt.Errorf("%s of %s: quantity and price must be greater than zero", r.Kind, r.Instrument)
		}
	case Dividend:
		if !r.UnitPrice.IsPositive() {
			return fmt.Errorf("dividend of %s: amount must be greater than zero", r.Instrument)
		}
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface for Record.
func (r Record) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", r.Kind)
	w.Append("instrument", r.Instrument)
	w.Append("quantity", r.Quantity)
	w.Append("unit_price", r.UnitPrice)
	w.Append("date", r.Date)
	w.Optional("id", r.ID)
	w.Optional("memo", r.Memo)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Record.
// Missing mandatory fields are errors, the record is not validated.
func (r *Record) UnmarshalJSON(b []byte) error {
	var temp struct {
		ID         uuid.UUID        `json:"id"`
		Kind       *string          `json:"kind"`
		Instrument *string          `json:"instrument"`
		Quantity   *decimal.Decimal `json:"quantity"`
		UnitPrice  *decimal.Decimal `json:"unit_price"`
		Date       *Date            `json:"date"`
		Memo       string           `json:"memo"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}

	var missing []string
	if temp.Kind == nil {
		missing = append(missing, "kind")
	}
	if temp.Instrument == nil {
		missing = append(missing, "instrument")
	}
	if temp.UnitPrice == nil {
		missing = append(missing, "unit_price")
	}
	if temp.Date == nil {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing field(s): %s", strings.Join(missing, ", "))
	}
	kind, err := ParseKind(*temp.Kind)
	if err != nil {
		return err
	}
	if temp.Quantity == nil {
		if kind != Dividend {
			return errors.New("missing field(s): quantity")
		}
		temp.Quantity = &decimal.Decimal{}
	}

	*r = Record{
		ID:         temp.ID,
		Kind:       kind,
		Instrument: strings.TrimSpace(*temp.Instrument),
		Quantity:   Quantity{value: *temp.Quantity},
		UnitPrice:  Money{value: *temp.UnitPrice},
		Date:       *temp.Date,
		Memo:       temp.Memo,
	}
	return nil
}
