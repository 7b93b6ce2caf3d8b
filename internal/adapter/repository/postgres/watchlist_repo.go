package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/finview/finview-backend/internal/domain"
)

// watchlistRepository implements domain.WatchlistRepository
type watchlistRepository struct {
	db *DB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *DB) domain.WatchlistRepository {
	return &watchlistRepository{db: db}
}

// GetByID retrieves a watchlist by its ID
func (r *watchlistRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Watchlist, error) {
	return r.get(ctx, "id = $1", id)
}

// GetByName retrieves a watchlist by its unique name
func (r *watchlistRepository) GetByName(ctx context.Context, name string) (*domain.Watchlist, error) {
	return r.get(ctx, "name = $1", name)
}

func (r *watchlistRepository) get(ctx context.Context, where string, arg any) (*domain.Watchlist, error) {
	query := fmt.Sprintf(`SELECT id, name FROM watchlists WHERE %s`, where)

	var w domain.Watchlist
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&w.ID, &w.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("watchlist %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	symbolsQuery := `
		SELECT symbol
		FROM watchlist_symbols
		WHERE watchlist_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, symbolsQuery, w.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist symbols: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist symbol: %w", err)
		}
		w.Symbols = append(w.Symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist symbols: %w", err)
	}

	return &w, nil
}

// Create creates a new watchlist with its symbols
func (r *watchlistRepository) Create(ctx context.Context, w *domain.Watchlist) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin create transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO watchlists (id, name) VALUES ($1, $2)`, w.ID, w.Name); err != nil {
		return fmt.Errorf("failed to create watchlist: %w", err)
	}

	for i, symbol := range w.Symbols {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO watchlist_symbols (watchlist_id, position, symbol) VALUES ($1, $2, $3)`,
			w.ID, i, symbol); err != nil {
			return fmt.Errorf("failed to add watchlist symbol %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit create transaction: %w", err)
	}

	return nil
}
