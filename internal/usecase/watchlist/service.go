package watchlist

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

// Entry is one watched symbol with its latest quote. Price is nil when
// the symbol could not be priced right now; the entry is still listed.
type Entry struct {
	Symbol        string           `json:"symbol"`
	DisplayName   string           `json:"displayName"`
	Price         *decimal.Decimal `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"changePercent"`
}

// QuotesResult is a fully quoted watchlist.
type QuotesResult struct {
	WatchlistID uuid.UUID `json:"watchlistId"`
	Name        string    `json:"name"`
	Entries     []Entry   `json:"entries"`
}

// WatchlistService handles watchlist quoting
type WatchlistService struct {
	WatchlistRepo domain.WatchlistRepository
	MetadataRepo  domain.MetadataRepository
	Resolver      Resolver
	Logger        *zap.Logger
	Concurrency   int
}

// NewWatchlistService creates a new WatchlistService instance
func NewWatchlistService(repo domain.WatchlistRepository, metadata domain.MetadataRepository, resolver Resolver, logger *zap.Logger) *WatchlistService {
	return &WatchlistService{
		WatchlistRepo: repo,
		MetadataRepo:  metadata,
		Resolver:      resolver,
		Logger:        logger,
		Concurrency:   defaultConcurrency,
	}
}

// Quotes resolves every symbol on the watchlist with bounded concurrency,
// preserving the list's ordering. One symbol failing never drops the rest.
func (s *WatchlistService) Quotes(ctx context.Context, watchlistID uuid.UUID) (*QuotesResult, error) {
	wl, err := s.WatchlistRepo.GetByID(ctx, watchlistID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(wl.Symbols))
	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for i, symbol := range wl.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			entries[i] = s.quoteSymbol(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()

	return &QuotesResult{
		WatchlistID: wl.ID,
		Name:        wl.Name,
		Entries:     entries,
	}, nil
}

func (s *WatchlistService) quoteSymbol(ctx context.Context, symbol string) Entry {
	entry := Entry{Symbol: symbol, DisplayName: symbol}

	meta, err := s.MetadataRepo.Get(ctx, symbol)
	if err == nil {
		entry.DisplayName = meta.DisplayOrSymbol()
	}

	quote, err := s.Resolver.ResolveCurrent(ctx, symbol)
	if err != nil {
		s.Logger.Warn("watchlist quote resolution failed",
			zap.String("symbol", symbol), zap.Error(err))
		return entry
	}

	entry.Price = quote.Price
	entry.Change = quote.Change
	entry.ChangePercent = quote.ChangePercent
	return entry
}
