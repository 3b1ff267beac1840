package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/inverso/portfolio"
	"github.com/inverso/portfolio/docs"
	"github.com/inverso/portfolio/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// creates the facilitator
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:        "Facilitator",
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user comes to understand the performance and the diversification of the stocks in
			the portfolio, listed on the Mexican (BMV) and international (SIC) markets.

			Devise a plan of questions to ask to each experts and come up with the best response to the user's request.
			The user will assume that you know about the instruments, check the portfolio first to understand what they are.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		very well aware of the Mexican and US stock markets, of the listed companies and of the latest news about them.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			listed companies, sectors and markets. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAccountant returns the expert in charge of the user's transactions and
// positions, valued by v and displayed in currency.
func NewAccountant(v *portfolio.Valuator, currency string) *Expert {
	lib := Tools(v, currency)
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant, in charge of reading the user's transactions.
		The Accountant knows the open positions, their market value, their gain or loss and how they are spread across markets and sectors.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's portfolio.
				You know how to use the Tools to extract relevant information about the user's positions.
				You are part of a team of experts, yours is everything about the user's portfolio. They might ask
				you questions about the user's portfolio, pardon their approximative language and figure out what they meant.

				Prices marked "n/a" are unknown: the position is valued at 0, say so instead of computing a loss.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// valuate runs a valuation, a degraded valuation is still worth answering.
func valuate(ctx context.Context, v *portfolio.Valuator) (*portfolio.Valuation, error) {
	val, err := v.Valuate(ctx)
	if err != nil && !errors.Is(err, portfolio.ErrQuotesUnavailable) {
		return nil, fmt.Errorf("could not value the portfolio: %w", err)
	}
	return val, nil
}

// Tools returns the functions that read the portfolio.
func Tools(v *portfolio.Valuator, currency string) []Function {
	return []Function{
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Portfolio",
				Description: `Portfolio values the open positions with the latest prices: totals, positions, gain and loss, diversification and dividends received.`,
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown report of the portfolio valuation.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				val, err := valuate(ctx, v)
				if err != nil {
					return failure(id, "Portfolio", err)
				}
				md := renderer.ValuationMarkdown(val, renderer.Options{
					Currency: currency,
					Groups:   []portfolio.GroupKey{portfolio.ByMarket, portfolio.BySector},
					Ranking:  true,
				})
				return success(id, "Portfolio", md)
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Groups",
				Description: `Groups totals the market value and cost basis of the open positions by market or by sector.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"key": {
							Type:        genai.TypeString,
							Enum:        []string{string(portfolio.ByMarket), string(portfolio.BySector)},
							Description: "The classification used to group positions.",
						},
					},
					Required: []string{"key"},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table with one row per group.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				s, err := stringArg(args, "key", true)
				if err != nil {
					return failure(id, "Groups", err)
				}
				key, err := portfolio.ParseGroupKey(s)
				if err != nil {
					return failure(id, "Groups", err)
				}
				val, err := valuate(ctx, v)
				if err != nil {
					return failure(id, "Groups", err)
				}
				return success(id, "Groups", renderer.GroupsMarkdown(val.Groups(key), key, currency))
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Transactions",
				Description: `Transactions lists the buys, sells and dividends recorded by the user, oldest first.`,
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"instrument": {
							Type:        genai.TypeString,
							Description: "Only list the transactions of this instrument, e.g. AMXL.MX or AAPL.",
						},
						"since": {
							Type: genai.TypeString,
							Description: `Only list the transactions on or after this date.
							It uses a flexible date format based on YYYY-MM-DD:

							` + must(docs.Topic("dates")),
						},
					},
				},
				Response: &genai.Schema{
					Type:        genai.TypeString,
					Description: "A markdown table of transactions.",
				},
			},
			Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
				records, err := transactions(ctx, v.Store, args)
				if err != nil {
					return failure(id, "Transactions", err)
				}
				return success(id, "Transactions", renderer.TransactionsMarkdown(records, currency))
			},
		},
	}
}

func transactions(ctx context.Context, store portfolio.Store, args map[string]any) ([]portfolio.Record, error) {
	instrument, err := stringArg(args, "instrument", false)
	if err != nil {
		return nil, err
	}
	since, err := stringArg(args, "since", false)
	if err != nil {
		return nil, err
	}
	var preds []func(portfolio.Record) bool
	if instrument != "" {
		preds = append(preds, portfolio.ByInstrument(instrument))
	}
	if since != "" {
		day, err := portfolio.ParseDate(since)
		if err != nil {
			return nil, fmt.Errorf("argument 'since' must be a valid date got %q. Below is the doc about the format date\n\n%s ", since, must(docs.Topic("dates")))
		}
		preds = append(preds, portfolio.Since(day))
	}

	ledger, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not load ledger: %w", err)
	}
	var records []portfolio.Record
	for r := range ledger.Filter(preds...) {
		records = append(records, r)
	}
	return records, nil
}
