package portfolio

import (
	"fmt"
)

// DiagnosticCode classifies a data problem found while valuing the portfolio.
type DiagnosticCode string

const (
	// SellOnly flags an instrument that was sold but never bought.
	SellOnly DiagnosticCode = "sell-only"
	// Oversold flags an instrument sold in a larger quantity than bought.
	Oversold DiagnosticCode = "oversold"
	// QuoteFailed flags an instrument whose quote lookup returned an error.
	QuoteFailed DiagnosticCode = "quote-failed"
	// NotQuoted flags an instrument the quote source does not know.
	NotQuoted DiagnosticCode = "unknown-instrument"
	// NoPrice flags an instrument without current price nor previous close.
	NoPrice DiagnosticCode = "no-price"
	// Unclassified flags an instrument without market or sector.
	Unclassified DiagnosticCode = "unclassified"
)

// Diagnostic reports a per-instrument data problem. Diagnostics never abort a
// valuation, they explain rows that are missing or degraded.
type Diagnostic struct {
	Instrument string         `json:"instrument"`
	Code       DiagnosticCode `json:"code"`
	Message    string         `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Instrument, d.Code, d.Message)
}

// Position is the open holding in one instrument.
type Position struct {
	Instrument   string   `json:"instrument"`
	OpenQuantity Quantity `json:"open_quantity"`
	AverageCost  Money    `json:"average_cost"`
	CostBasis    Money    `json:"cost_basis"`
}

// Income is the dividend cash received for one instrument.
type Income struct {
	Instrument string `json:"instrument"`
	Amount     Money  `json:"amount"`
}

// Reduction is the result of reducing a list of records.
type Reduction struct {
	Positions   []Position   // open positions in order of first appearance
	Diagnostics []Diagnostic // instruments with inconsistent trades
	Income      []Income     // dividends per instrument, in order of first appearance
}

// group accumulates the trades of one instrument.
type group struct {
	bought    Quantity
	sold      Quantity
	cost      Money // Σ buy quantity × buy price
	dividends Money
	trades    bool
}

// Reduce computes the open positions from records.
//
// Only Buy and Sell records change positions. The average cost is blended over
// every buy ever made for the instrument. Instruments whose open quantity is
// not above 1e-6 have no position. Reduce has no side effects and never fails:
// inconsistent instruments are reported as diagnostics.
func Reduce(records []Record) Reduction {
	var order []string
	groups := make(map[string]*group)
	for _, r := range records {
		g, ok := groups[r.Instrument]
		if !ok {
			g = new(group)
			groups[r.Instrument] = g
			order = append(order, r.Instrument)
		}
		switch r.Kind {
		case Buy:
			g.trades = true
			g.bought = g.bought.Add(r.Quantity)
			g.cost = g.cost.Add(r.UnitPrice.Mul(r.Quantity))
		case Sell:
			g.trades = true
			g.sold = g.sold.Add(r.Quantity)
		case Dividend:
			g.dividends = g.dividends.Add(r.UnitPrice)
		}
	}

	var red Reduction
	for _, instrument := range order {
		g := groups[instrument]
		if !g.dividends.IsZero() {
			red.Income = append(red.Income, Income{Instrument: instrument, Amount: g.dividends})
		}
		if !g.trades {
			continue
		}
		open := g.bought.Sub(g.sold)
		if !g.bought.IsOpen() {
			if g.sold.IsOpen() {
				red.Diagnostics = append(red.Diagnostics, Diagnostic{
					Instrument: instrument,
					Code:       SellOnly,
					Message:    fmt.Sprintf("%v sold without any buy, no position computed", g.sold),
				})
			}
			continue
		}
		if open.IsShort() {
			red.Diagnostics = append(red.Diagnostics, Diagnostic{
				Instrument: instrument,
				Code:       Oversold,
				Message:    fmt.Sprintf("%v sold but only %v bought, no position computed", g.sold, g.bought),
			})
			continue
		}
		if !open.IsOpen() {
			continue // closed
		}
		avg := g.cost.Div(g.bought)
		red.Positions = append(red.Positions, Position{
			Instrument:   instrument,
			OpenQuantity: open,
			AverageCost:  avg,
			CostBasis:    avg.Mul(open),
		})
	}
	return red
}
