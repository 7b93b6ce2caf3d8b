package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is one position inside a portfolio.
type Holding struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Symbol      string
	Quantity    decimal.Decimal
	CostBasis   decimal.Decimal // total amount paid for the position
}

// Validate ensures the holding adheres to domain rules
// Returns an error if validation fails
func (h *Holding) Validate() error {
	if h.Symbol == "" {
		return errors.New("holding symbol cannot be empty")
	}
	if h.Quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("holding quantity must be positive")
	}
	if h.CostBasis.IsNegative() {
		return errors.New("holding cost basis cannot be negative")
	}
	return nil
}

// Portfolio represents a user's portfolio in the domain layer
type Portfolio struct {
	ID       uuid.UUID
	Name     string
	Currency string
	Holdings []Holding
}

// Watchlist is a named, ordered list of symbols a user tracks.
type Watchlist struct {
	ID      uuid.UUID
	Name    string
	Symbols []string
}

// Validate ensures the watchlist adheres to domain rules
func (w *Watchlist) Validate() error {
	if w.Name == "" {
		return errors.New("watchlist name cannot be empty")
	}
	return nil
}
