package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BarRepository defines the interface for price bar persistence operations
type BarRepository interface {
	// QueryRange retrieves bars for a symbol within [start, end], ordered
	// ascending by date/timestamp. When wantIntraday is false only daily
	// bars (null timestamp) are returned; when true, intraday bars are
	// included alongside the daily ones.
	QueryRange(ctx context.Context, symbol string, start, end time.Time, wantIntraday bool) ([]PriceBar, error)

	// UpsertBars inserts bars, silently updating rows that already exist
	// under the same natural key (symbol+date for daily bars,
	// symbol+timestamp for intraday). The conflict resolution is atomic
	// in the store; repeated fetches never duplicate rows.
	UpsertBars(ctx context.Context, bars []PriceBar) error
}

// MetadataRepository defines the interface for asset metadata persistence operations
type MetadataRepository interface {
	// Get retrieves the metadata row for a symbol.
	// Returns ErrNotFound when the symbol has never been described.
	Get(ctx context.Context, symbol string) (*AssetMetadata, error)

	// Upsert creates or refreshes the metadata row for meta.Symbol.
	Upsert(ctx context.Context, meta *AssetMetadata) error
}

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio with its holdings
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
}

// WatchlistRepository defines the interface for watchlist persistence operations
type WatchlistRepository interface {
	// GetByID retrieves a watchlist by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Watchlist, error)

	// Create creates a new watchlist
	Create(ctx context.Context, w *Watchlist) error

	// GetByName retrieves a watchlist by its unique name
	// Returns ErrNotFound when no watchlist with that name exists
	GetByName(ctx context.Context, name string) (*Watchlist, error)
}
