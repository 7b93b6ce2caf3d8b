package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finview/finview-backend/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetByID retrieves a portfolio with its holdings
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, name, currency
		FROM portfolios
		WHERE id = $1
	`

	var p domain.Portfolio
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("portfolio %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}

	holdingsQuery := `
		SELECT id, portfolio_id, symbol, quantity, cost_basis
		FROM holdings
		WHERE portfolio_id = $1
		ORDER BY symbol ASC
	`

	rows, err := r.db.QueryContext(ctx, holdingsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h domain.Holding
		var quantityStr, costBasisStr string

		if err := rows.Scan(&h.ID, &h.PortfolioID, &h.Symbol, &quantityStr, &costBasisStr); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		// Parse quantity and cost_basis (DECIMAL)
		quantity, err := decimal.NewFromString(quantityStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		h.Quantity = quantity

		costBasis, err := decimal.NewFromString(costBasisStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cost_basis: %w", err)
		}
		h.CostBasis = costBasis

		p.Holdings = append(p.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return &p, nil
}
