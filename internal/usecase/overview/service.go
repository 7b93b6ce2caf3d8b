package overview

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/usecase/resolution"
)

// Resolver is the slice of the resolution pipeline this service consumes.
type Resolver interface {
	ResolveCurrent(ctx context.Context, symbol string) (*resolution.Quote, error)
}

const (
	defaultConcurrency = 8
	defaultMoverCount  = 5
)

// DefaultSymbols is the market overview shipped out of the box. The
// universe feeds the movers section; everything else is a named section.
var DefaultSymbols = Symbols{
	Indices:     []string{"^GSPC", "^IXIC", "^DJI"},
	Crypto:      []string{"X:btc-usd", "X:eth-usd"},
	Commodities: []string{"GC=F", "CL=F"},
	Universe: []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
		"META", "TSLA", "JPM", "V", "UNH",
	},
}

// Symbols configures which tickers appear on the overview.
type Symbols struct {
	Indices     []string
	Crypto      []string
	Commodities []string
	Universe    []string
}

// All returns every configured symbol once, sections before universe.
func (s Symbols) All() []string {
	seen := make(map[string]struct{})
	var all []string
	for _, group := range [][]string{s.Indices, s.Crypto, s.Commodities, s.Universe} {
		for _, symbol := range group {
			if _, ok := seen[symbol]; ok {
				continue
			}
			seen[symbol] = struct{}{}
			all = append(all, symbol)
		}
	}
	return all
}

// Quote is one overview row. Price is nil while the symbol is
// temporarily unpriceable.
type Quote struct {
	Symbol        string           `json:"symbol"`
	Price         *decimal.Decimal `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"changePercent"`
}

// Result is the assembled market overview.
type Result struct {
	Indices     []Quote `json:"indices"`
	Crypto      []Quote `json:"crypto"`
	Commodities []Quote `json:"commodities"`
	Gainers     []Quote `json:"gainers"`
	Losers      []Quote `json:"losers"`
}

// OverviewService assembles the market overview page
type OverviewService struct {
	Resolver    Resolver
	Logger      *zap.Logger
	Symbols     Symbols
	Concurrency int
	MoverCount  int
}

// NewOverviewService creates a new OverviewService instance
func NewOverviewService(resolver Resolver, symbols Symbols, logger *zap.Logger) *OverviewService {
	return &OverviewService{
		Resolver:    resolver,
		Logger:      logger,
		Symbols:     symbols,
		Concurrency: defaultConcurrency,
		MoverCount:  defaultMoverCount,
	}
}

// Overview quotes every configured symbol with bounded concurrency and
// assembles the sections. Movers rank the universe by change percent;
// symbols that could not be priced are listed in their section with a
// nil price but excluded from the movers ranking. Gainers and losers are
// disjoint: when fewer than twice MoverCount symbols are priced, gainers
// take their full count and losers only what remains.
func (s *OverviewService) Overview(ctx context.Context) (*Result, error) {
	quotes := s.resolveAll(ctx, s.Symbols.All())

	result := &Result{
		Indices:     pick(quotes, s.Symbols.Indices),
		Crypto:      pick(quotes, s.Symbols.Crypto),
		Commodities: pick(quotes, s.Symbols.Commodities),
	}

	universe := pick(quotes, s.Symbols.Universe)
	priced := universe[:0:0]
	for _, q := range universe {
		if q.Price != nil {
			priced = append(priced, q)
		}
	}
	sort.SliceStable(priced, func(i, j int) bool {
		return priced[i].ChangePercent.GreaterThan(priced[j].ChangePercent)
	})

	n := s.MoverCount
	if n > len(priced) {
		n = len(priced)
	}
	m := s.MoverCount
	if rest := len(priced) - n; m > rest {
		m = rest
	}
	result.Gainers = append([]Quote(nil), priced[:n]...)
	losers := append([]Quote(nil), priced[len(priced)-m:]...)
	for i, j := 0, len(losers)-1; i < j; i, j = i+1, j-1 {
		losers[i], losers[j] = losers[j], losers[i]
	}
	result.Losers = losers

	return result, nil
}

// Refresh resolves every configured symbol so the caches stay warm.
// Invoked from the background scheduler; failures are logged per symbol.
func (s *OverviewService) Refresh(ctx context.Context) {
	quotes := s.resolveAll(ctx, s.Symbols.All())
	warmed := 0
	for _, q := range quotes {
		if q.Price != nil {
			warmed++
		}
	}
	s.Logger.Info("overview refresh completed",
		zap.Int("symbols", len(quotes)), zap.Int("priced", warmed))
}

func (s *OverviewService) resolveAll(ctx context.Context, symbols []string) map[string]Quote {
	type indexed struct {
		symbol string
		quote  Quote
	}

	results := make([]indexed, len(symbols))
	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = indexed{symbol: symbol, quote: s.quoteSymbol(ctx, symbol)}
		}(i, symbol)
	}
	wg.Wait()

	quotes := make(map[string]Quote, len(results))
	for _, r := range results {
		quotes[r.symbol] = r.quote
	}
	return quotes
}

func (s *OverviewService) quoteSymbol(ctx context.Context, symbol string) Quote {
	q := Quote{Symbol: symbol}

	quote, err := s.Resolver.ResolveCurrent(ctx, symbol)
	if err != nil {
		s.Logger.Warn("overview quote resolution failed",
			zap.String("symbol", symbol), zap.Error(err))
		return q
	}

	q.Price = quote.Price
	q.Change = quote.Change
	q.ChangePercent = quote.ChangePercent
	return q
}

func pick(quotes map[string]Quote, symbols []string) []Quote {
	out := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		if q, ok := quotes[symbol]; ok {
			out = append(out, q)
		}
	}
	return out
}
