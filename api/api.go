// Package api serves the portfolio over HTTP with gin.
//
//	GET    /positions            enriched open positions
//	GET    /summary              portfolio totals and dividend income
//	GET    /groups/:key          totals by market or sector
//	GET    /transactions         ledger, filtered by ?instrument=&since=&kind=
//	POST   /transactions         append a transaction
//	DELETE /transactions/:id     delete a transaction
//	GET    /report               the valuation report as an HTML page
package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/renderer"
)

// Server handles the HTTP requests for one portfolio.
type Server struct {
	valuator *portfolio.Valuator
	currency string
}

// New creates a server for the portfolio valued by v, amounts are displayed
// in currency in the HTML report.
func New(v *portfolio.Valuator, currency string) *Server {
	return &Server{valuator: v, currency: currency}
}

// Router returns the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.ReleaseMode {
		r.Use(gin.Logger())
	}

	r.GET("/positions", s.GetPositions)
	r.GET("/summary", s.GetSummary)
	r.GET("/groups/:key", s.GetGroups)
	r.GET("/transactions", s.GetTransactions)
	r.POST("/transactions", s.PostTransaction)
	r.DELETE("/transactions/:id", s.DeleteTransaction)
	r.GET("/report", s.GetReport)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})
	return r
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrStoreUnavailable), errors.Is(err, portfolio.ErrQuotesUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, portfolio.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrDuplicateRecord):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, code int, err error) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

// valuate values the portfolio, any failure is written to c.
func (s *Server) valuate(c *gin.Context) (*portfolio.Valuation, bool) {
	val, err := s.valuator.Valuate(c.Request.Context())
	if err != nil {
		abort(c, statusOf(err), err)
		return nil, false
	}
	return val, true
}

// PositionsResponse is the body of GET /positions.
type PositionsResponse struct {
	Positions   []portfolio.EnrichedPosition `json:"positions"`
	Diagnostics []portfolio.Diagnostic       `json:"diagnostics,omitempty"`
	Skipped     []string                     `json:"skipped,omitempty"`
}

// GetPositions handles requests to get the enriched positions.
func (s *Server) GetPositions(c *gin.Context) {
	val, ok := s.valuate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, PositionsResponse{
		Positions:   val.Positions,
		Diagnostics: val.Diagnostics,
		Skipped:     val.Skipped,
	})
}

// SummaryResponse is the body of GET /summary.
type SummaryResponse struct {
	portfolio.Totals
	Income      []portfolio.Income `json:"income,omitempty"`
	TotalIncome portfolio.Money    `json:"total_income"`
}

// GetSummary handles requests to get the portfolio totals.
func (s *Server) GetSummary(c *gin.Context) {
	val, ok := s.valuate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Totals: val.Totals, Income: val.Income, TotalIncome: val.TotalIncome})
}

// GetGroups handles requests to get the totals by market or sector.
func (s *Server) GetGroups(c *gin.Context) {
	key, err := portfolio.ParseGroupKey(c.Param("key"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	val, ok := s.valuate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, val.Groups(key))
}

// TransactionsQuery are the filters of GET /transactions.
type TransactionsQuery struct {
	Instrument string `form:"instrument"`
	Since      string `form:"since"`
	Kind       string `form:"kind"`
}

// GetTransactions handles requests to list the ledger.
func (s *Server) GetTransactions(c *gin.Context) {
	var q TransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	var preds []func(portfolio.Record) bool
	if q.Instrument != "" {
		preds = append(preds, portfolio.ByInstrument(q.Instrument))
	}
	if q.Since != "" {
		day, err := portfolio.ParseDate(q.Since)
		if err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		preds = append(preds, portfolio.Since(day))
	}
	if q.Kind != "" {
		kind, err := portfolio.ParseKind(q.Kind)
		if err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		preds = append(preds, portfolio.ByKind(kind))
	}

	ledger, err := s.valuator.Store.Load(c.Request.Context())
	if err != nil {
		abort(c, statusOf(err), err)
		return
	}
	records := []portfolio.Record{}
	for r := range ledger.Filter(preds...) {
		records = append(records, r)
	}
	c.JSON(http.StatusOK, records)
}

// PostTransaction handles requests to append a transaction. The created
// record is returned with its id.
func (s *Server) PostTransaction(c *gin.Context) {
	var r portfolio.Record
	if err := c.ShouldBindJSON(&r); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := r.ValidateEntry(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, err := portfolio.AppendRecords(c.Request.Context(), s.valuator.Store, r); err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// DeleteTransaction handles requests to delete a transaction by id.
func (s *Server) DeleteTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if _, err := portfolio.DeleteRecords(c.Request.Context(), s.valuator.Store, id); err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetReport handles requests to get the valuation report as HTML.
func (s *Server) GetReport(c *gin.Context) {
	val, ok := s.valuate(c)
	if !ok {
		return
	}
	md := renderer.ValuationMarkdown(val, renderer.Options{
		Currency: s.currency,
		Groups:   []portfolio.GroupKey{portfolio.ByMarket, portfolio.BySector},
		Ranking:  true,
	})
	page, err := renderer.HTML("Portfolio", md)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
