package seeder

import (
	"context"

	"github.com/google/uuid"

	"github.com/finview/finview-backend/internal/domain"
)

// Fixed UUIDs for system watchlists so repeated startups never duplicate them
var (
	SYS_DEFAULT_WATCHLIST = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	SYS_CRYPTO_WATCHLIST  = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// SystemWatchlist defines the structure for a system watchlist to be seeded
type SystemWatchlist struct {
	ID      uuid.UUID
	Name    string
	Symbols []string
}

// SystemSeeder handles seeding of required system watchlists
type SystemSeeder struct {
	repo domain.WatchlistRepository
}

// NewSystemSeeder creates a new SystemSeeder instance
func NewSystemSeeder(repo domain.WatchlistRepository) *SystemSeeder {
	return &SystemSeeder{
		repo: repo,
	}
}

// Seed ensures all required system watchlists exist in the database
// If a watchlist doesn't exist, it creates it
func (s *SystemSeeder) Seed(ctx context.Context) error {
	systemWatchlists := []SystemWatchlist{
		{
			ID:      SYS_DEFAULT_WATCHLIST,
			Name:    "Default",
			Symbols: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"},
		},
		{
			ID:      SYS_CRYPTO_WATCHLIST,
			Name:    "Crypto",
			Symbols: []string{"X:btc-usd", "X:eth-usd"},
		},
	}

	for _, sysWatchlist := range systemWatchlists {
		// Try to get the watchlist by name
		_, err := s.repo.GetByName(ctx, sysWatchlist.Name)
		if err != nil {
			// Watchlist doesn't exist, create it
			watchlist := &domain.Watchlist{
				ID:      sysWatchlist.ID,
				Name:    sysWatchlist.Name,
				Symbols: sysWatchlist.Symbols,
			}

			// Validate before creating
			if err := watchlist.Validate(); err != nil {
				return err
			}

			if err := s.repo.Create(ctx, watchlist); err != nil {
				return err
			}
		}
		// If watchlist exists, no action needed
	}

	return nil
}
