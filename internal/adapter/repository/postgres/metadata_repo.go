package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finview/finview-backend/internal/domain"
)

// metadataRepository implements domain.MetadataRepository
type metadataRepository struct {
	db *DB
}

// NewMetadataRepository creates a new asset metadata repository
func NewMetadataRepository(db *DB) domain.MetadataRepository {
	return &metadataRepository{db: db}
}

// Get retrieves the metadata row for a symbol
func (r *metadataRepository) Get(ctx context.Context, symbol string) (*domain.AssetMetadata, error) {
	query := `
		SELECT symbol, display_name, instrument, exchange, currency, category
		FROM asset_metadata
		WHERE symbol = $1
	`

	var meta domain.AssetMetadata
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(
		&meta.Symbol,
		&meta.DisplayName,
		&meta.Instrument,
		&meta.Exchange,
		&meta.Currency,
		&meta.Category,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("metadata for %s: %w", symbol, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset metadata: %w", err)
	}

	return &meta, nil
}

// Upsert creates or refreshes the metadata row for meta.Symbol
func (r *metadataRepository) Upsert(ctx context.Context, meta *domain.AssetMetadata) error {
	query := `
		INSERT INTO asset_metadata (symbol, display_name, instrument, exchange, currency, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol)
		DO UPDATE SET display_name = EXCLUDED.display_name, instrument = EXCLUDED.instrument,
		              exchange = EXCLUDED.exchange, currency = EXCLUDED.currency, category = EXCLUDED.category
	`

	_, err := r.db.ExecContext(ctx, query,
		meta.Symbol,
		meta.DisplayName,
		string(meta.Instrument),
		meta.Exchange,
		meta.Currency,
		meta.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset metadata: %w", err)
	}

	return nil
}
