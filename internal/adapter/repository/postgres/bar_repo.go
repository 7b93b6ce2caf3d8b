package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finview/finview-backend/internal/domain"
)

// barRepository implements domain.BarRepository.
//
// Expected schema:
//
//	price_bars (
//	    symbol     TEXT        NOT NULL,
//	    date       DATE        NOT NULL,
//	    ts         TIMESTAMPTZ NULL,      -- NULL for daily bars
//	    open       NUMERIC     NOT NULL,
//	    high       NUMERIC     NOT NULL,
//	    low        NUMERIC     NOT NULL,
//	    close      NUMERIC     NOT NULL,
//	    adj_close  NUMERIC     NOT NULL,
//	    volume     BIGINT      NOT NULL
//	)
//	UNIQUE INDEX price_bars_daily_key    ON price_bars (symbol, date) WHERE ts IS NULL
//	UNIQUE INDEX price_bars_intraday_key ON price_bars (symbol, ts)   WHERE ts IS NOT NULL
type barRepository struct {
	db *DB
}

// NewBarRepository creates a new price bar repository
func NewBarRepository(db *DB) domain.BarRepository {
	return &barRepository{db: db}
}

const upsertDailyBarQuery = `
	INSERT INTO price_bars (symbol, date, ts, open, high, low, close, adj_close, volume)
	VALUES ($1, $2, NULL, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (symbol, date) WHERE ts IS NULL
	DO UPDATE SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
	              close = EXCLUDED.close, adj_close = EXCLUDED.adj_close, volume = EXCLUDED.volume
`

const upsertIntradayBarQuery = `
	INSERT INTO price_bars (symbol, date, ts, open, high, low, close, adj_close, volume)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (symbol, ts) WHERE ts IS NOT NULL
	DO UPDATE SET open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
	              close = EXCLUDED.close, adj_close = EXCLUDED.adj_close, volume = EXCLUDED.volume
`

// QueryRange retrieves bars for a symbol within [start, end], ordered ascending
// by date and timestamp. Daily bars sort before intraday bars of the same date.
func (r *barRepository) QueryRange(ctx context.Context, symbol string, start, end time.Time, wantIntraday bool) ([]domain.PriceBar, error) {
	query := `
		SELECT symbol, date, ts, open, high, low, close, adj_close, volume
		FROM price_bars
		WHERE symbol = $1 AND date >= $2 AND date <= $3
	`
	if !wantIntraday {
		query += " AND ts IS NULL"
	}
	query += " ORDER BY date ASC, ts ASC NULLS FIRST"

	rows, err := r.db.QueryContext(ctx, query, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, err
		}
		bars = append(bars, *bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price bars: %w", err)
	}

	return bars, nil
}

// UpsertBars inserts bars, updating rows that already exist under the same
// natural key. The ON CONFLICT clause makes the insert-or-update atomic;
// there is no read-then-write window.
func (r *barRepository) UpsertBars(ctx context.Context, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	for _, bar := range bars {
		if err := bar.Validate(); err != nil {
			return fmt.Errorf("invalid bar for %s: %w", bar.Symbol, err)
		}

		if bar.Intraday() {
			_, err = tx.ExecContext(ctx, upsertIntradayBarQuery,
				bar.Symbol, bar.Date, *bar.Timestamp,
				bar.Open.String(), bar.High.String(), bar.Low.String(),
				bar.Close.String(), bar.AdjClose.String(), bar.Volume,
			)
		} else {
			_, err = tx.ExecContext(ctx, upsertDailyBarQuery,
				bar.Symbol, bar.Date,
				bar.Open.String(), bar.High.String(), bar.Low.String(),
				bar.Close.String(), bar.AdjClose.String(), bar.Volume,
			)
		}
		if err != nil {
			return fmt.Errorf("failed to upsert bar %s/%s: %w", bar.Symbol, bar.At().Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert transaction: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBar reads one price_bars row, parsing NUMERIC columns through strings
func scanBar(row rowScanner) (*domain.PriceBar, error) {
	var bar domain.PriceBar
	var ts sql.NullTime
	var openStr, highStr, lowStr, closeStr, adjStr string

	if err := row.Scan(
		&bar.Symbol,
		&bar.Date,
		&ts,
		&openStr,
		&highStr,
		&lowStr,
		&closeStr,
		&adjStr,
		&bar.Volume,
	); err != nil {
		return nil, fmt.Errorf("failed to scan price bar: %w", err)
	}

	if ts.Valid {
		t := ts.Time
		bar.Timestamp = &t
	}

	for _, field := range []struct {
		name string
		str  string
		dst  *decimal.Decimal
	}{
		{"open", openStr, &bar.Open},
		{"high", highStr, &bar.High},
		{"low", lowStr, &bar.Low},
		{"close", closeStr, &bar.Close},
		{"adj_close", adjStr, &bar.AdjClose},
	} {
		d, err := decimal.NewFromString(field.str)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", field.name, err)
		}
		*field.dst = d
	}

	return &bar, nil
}
