package seeder

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/finview/finview-backend/internal/domain"
)

// MockWatchlistRepository is a mock implementation of WatchlistRepository
type MockWatchlistRepository struct {
	mock.Mock
}

func (m *MockWatchlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Watchlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Watchlist), args.Error(1)
}

func (m *MockWatchlistRepository) Create(ctx context.Context, w *domain.Watchlist) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWatchlistRepository) GetByName(ctx context.Context, name string) (*domain.Watchlist, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Watchlist), args.Error(1)
}

func TestSystemSeeder_Seed_WatchlistsMissing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockWatchlistRepository)
	seeder := NewSystemSeeder(mockRepo)

	// Mock GetByName to return "not found" errors for all system watchlists
	mockRepo.On("GetByName", ctx, "Default").Return(nil, domain.ErrNotFound)
	mockRepo.On("GetByName", ctx, "Crypto").Return(nil, domain.ErrNotFound)

	// Mock Create to succeed for all watchlists
	mockRepo.On("Create", ctx, mock.MatchedBy(func(w *domain.Watchlist) bool {
		return w.ID == SYS_DEFAULT_WATCHLIST &&
			w.Name == "Default" &&
			len(w.Symbols) == 5
	})).Return(nil)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(w *domain.Watchlist) bool {
		return w.ID == SYS_CRYPTO_WATCHLIST &&
			w.Name == "Crypto" &&
			len(w.Symbols) == 2
	})).Return(nil)

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	// Verify Create was called 2 times (once for each system watchlist)
	mockRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSystemSeeder_Seed_WatchlistsExist(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockWatchlistRepository)
	seeder := NewSystemSeeder(mockRepo)

	// Mock GetByName to return existing watchlists
	mockRepo.On("GetByName", ctx, "Default").Return(&domain.Watchlist{
		ID:      SYS_DEFAULT_WATCHLIST,
		Name:    "Default",
		Symbols: []string{"AAPL"},
	}, nil)

	mockRepo.On("GetByName", ctx, "Crypto").Return(&domain.Watchlist{
		ID:      SYS_CRYPTO_WATCHLIST,
		Name:    "Crypto",
		Symbols: []string{"X:btc-usd"},
	}, nil)

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	// Verify Create was NOT called (watchlists already exist)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSystemSeeder_Seed_PartialWatchlistsExist(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockWatchlistRepository)
	seeder := NewSystemSeeder(mockRepo)

	// Mock: Default exists, Crypto is missing
	mockRepo.On("GetByName", ctx, "Default").Return(&domain.Watchlist{
		ID:      SYS_DEFAULT_WATCHLIST,
		Name:    "Default",
		Symbols: []string{"AAPL"},
	}, nil)

	mockRepo.On("GetByName", ctx, "Crypto").Return(nil, domain.ErrNotFound)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(w *domain.Watchlist) bool {
		return w.ID == SYS_CRYPTO_WATCHLIST
	})).Return(nil)

	// Execute
	err := seeder.Seed(ctx)

	// Assert
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	// Verify Create was called 1 time (for the missing watchlist)
	mockRepo.AssertNumberOfCalls(t, "Create", 1)
}
