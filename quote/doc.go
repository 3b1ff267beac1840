// Package quote implements portfolio.QuoteSource providers: the Yahoo Finance
// chart API for prices and a static classification table for sectors and
// markets.
package quote
