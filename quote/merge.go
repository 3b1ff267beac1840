package quote

import (
	"context"
	"log"

	"github.com/inverso/portfolio"
)

// merged is a primary source completed field by field by other sources.
type merged struct {
	primary portfolio.QuoteSource
	others  []portfolio.QuoteSource
}

// Merge returns a source that completes the quotes of primary with the
// fields of others, in order.
//
// When primary fails, the quote of the others is returned along with the
// error of primary, so a static classification survives a failed online
// lookup. Failures of the others are logged and ignored.
func Merge(primary portfolio.QuoteSource, others ...portfolio.QuoteSource) portfolio.QuoteSource {
	return &merged{primary: primary, others: others}
}

func (m *merged) Quote(ctx context.Context, instrument string) (portfolio.Quote, error) {
	q, err := m.primary.Quote(ctx, instrument)
	if err != nil {
		q = portfolio.Quote{}
	}
	for _, o := range m.others {
		oq, oerr := o.Quote(ctx, instrument)
		if oerr != nil {
			log.Printf("secondary quote for %s ignored: %v", instrument, oerr)
			continue
		}
		q = q.Merge(oq)
	}
	return q, err
}
