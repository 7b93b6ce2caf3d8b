package portfolio

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/domain"
	"github.com/finview/finview-backend/internal/usecase/resolution"
)

// Resolver is the slice of the resolution pipeline this service consumes.
type Resolver interface {
	ResolveCurrent(ctx context.Context, symbol string) (*resolution.Quote, error)
}

const defaultConcurrency = 8

// HoldingValue is one priced position. Priced is false when the pipeline
// could not produce a current price; value and change are then zero by
// policy so a transient degradation never breaks the whole listing.
type HoldingValue struct {
	Symbol        string           `json:"symbol"`
	Quantity      decimal.Decimal  `json:"quantity"`
	CostBasis     decimal.Decimal  `json:"costBasis"`
	Price         *decimal.Decimal `json:"price"`
	Value         decimal.Decimal  `json:"value"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"changePercent"`
	GainLoss      decimal.Decimal  `json:"gainLoss"`
	Priced        bool             `json:"priced"`
}

// ValuationResult is the full portfolio valuation.
type ValuationResult struct {
	PortfolioID uuid.UUID       `json:"portfolioId"`
	Name        string          `json:"name"`
	Currency    string          `json:"currency"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	GainLoss    decimal.Decimal `json:"gainLoss"`
	DayChange   decimal.Decimal `json:"dayChange"`
	Holdings    []HoldingValue  `json:"holdings"`
}

// PortfolioService handles portfolio valuation
type PortfolioService struct {
	PortfolioRepo domain.PortfolioRepository
	Resolver      Resolver
	Logger        *zap.Logger
	Concurrency   int
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(repo domain.PortfolioRepository, resolver Resolver, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		PortfolioRepo: repo,
		Resolver:      resolver,
		Logger:        logger,
		Concurrency:   defaultConcurrency,
	}
}

// Valuate prices every holding of the portfolio with bounded concurrency
// and combines them: value = price x quantity, day change = change x
// quantity. A failed resolution for one symbol never cancels the others.
func (s *PortfolioService) Valuate(ctx context.Context, portfolioID uuid.UUID) (*ValuationResult, error) {
	p, err := s.PortfolioRepo.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	values := make([]HoldingValue, len(p.Holdings))
	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for i, holding := range p.Holdings {
		wg.Add(1)
		go func(i int, h domain.Holding) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			values[i] = s.priceHolding(ctx, h)
		}(i, holding)
	}
	wg.Wait()

	result := &ValuationResult{
		PortfolioID: p.ID,
		Name:        p.Name,
		Currency:    p.Currency,
		Holdings:    values,
	}
	for _, hv := range values {
		result.TotalValue = result.TotalValue.Add(hv.Value)
		result.TotalCost = result.TotalCost.Add(hv.CostBasis)
		result.DayChange = result.DayChange.Add(hv.Change)
		result.GainLoss = result.GainLoss.Add(hv.GainLoss)
	}

	return result, nil
}

func (s *PortfolioService) priceHolding(ctx context.Context, h domain.Holding) HoldingValue {
	hv := HoldingValue{
		Symbol:    h.Symbol,
		Quantity:  h.Quantity,
		CostBasis: h.CostBasis,
	}

	quote, err := s.Resolver.ResolveCurrent(ctx, h.Symbol)
	if err != nil {
		s.Logger.Warn("holding price resolution failed",
			zap.String("symbol", h.Symbol), zap.Error(err))
		return hv
	}
	if quote.Price == nil {
		// Temporarily unavailable: zero value, zero change
		return hv
	}

	hv.Priced = true
	hv.Price = quote.Price
	hv.Value = quote.Price.Mul(h.Quantity)
	hv.Change = quote.Change.Mul(h.Quantity)
	hv.ChangePercent = quote.ChangePercent
	hv.GainLoss = hv.Value.Sub(h.CostBasis)
	return hv
}
