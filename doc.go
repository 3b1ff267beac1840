// Package portfolio values an investor's portfolio from its transaction log.
//
// The log is a list of Buy, Sell and Dividend records kept in a Store (a
// JSONL or CSV file, or a database). Every valuation starts again from the
// full log:
//   - Reduce turns records into open positions, with a blended average cost
//     over every buy of the instrument.
//   - Enrich values positions with quotes from a QuoteSource, tolerating
//     missing or failing quotes.
//   - Summarize and GroupBy compute totals and the diversification by market
//     or sector.
//
// Reduce and the aggregation functions never fail for a single bad
// instrument: they report Diagnostics instead. Only an unreachable store or
// quote source is an error (ErrStoreUnavailable, ErrQuotesUnavailable).
//
// This package serves as the foundational logic for the `pft` command-line
// tool and its HTTP API.
package portfolio
