package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Instrument classifies a symbol into the asset class that decides which
// upstream provider serves it.
type Instrument string

const (
	InstrumentEquity    Instrument = "EQUITY"
	InstrumentETF       Instrument = "ETF"
	InstrumentCrypto    Instrument = "CRYPTO"
	InstrumentCommodity Instrument = "COMMODITY"
	InstrumentIndex     Instrument = "INDEX"
)

// PriceBar is one OHLCV record for a symbol.
// Daily bars carry a nil Timestamp and are keyed by (Symbol, Date);
// intraday bars carry a non-nil Timestamp and are keyed by (Symbol, Timestamp).
// The two never collide for the same calendar date: the null-ness of
// Timestamp is part of the natural key.
type PriceBar struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`                // calendar date, UTC midnight
	Timestamp *time.Time      `json:"timestamp,omitempty"` // nil for daily bars
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adjClose"`
	Volume    int64           `json:"volume"`
}

// Validate ensures the bar adheres to domain rules
// Returns an error if validation fails
func (b *PriceBar) Validate() error {
	if b.Symbol == "" {
		return errors.New("bar symbol cannot be empty")
	}
	if b.Date.IsZero() {
		return errors.New("bar date cannot be zero")
	}
	if b.High.LessThan(b.Low) {
		return errors.New("bar high cannot be below low")
	}
	if b.Volume < 0 {
		return errors.New("bar volume cannot be negative")
	}
	return nil
}

// At returns the instant the bar represents: the intraday timestamp when
// present, otherwise the calendar date. Used for ordering mixed series.
func (b *PriceBar) At() time.Time {
	if b.Timestamp != nil {
		return *b.Timestamp
	}
	return b.Date
}

// Intraday reports whether the bar is sub-daily.
func (b *PriceBar) Intraday() bool {
	return b.Timestamp != nil
}

// AssetMetadata is the per-symbol descriptive row. It is created
// best-effort on first resolution of an unknown symbol and may be absent;
// every consumer must tolerate a missing row via DisplayOrSymbol.
type AssetMetadata struct {
	Symbol      string     `json:"symbol"`
	DisplayName string     `json:"displayName"`
	Instrument  Instrument `json:"instrument"`
	Exchange    string     `json:"exchange"`
	Currency    string     `json:"currency"`
	Category    string     `json:"category"`
}

// DisplayOrSymbol returns the display name, falling back to the raw
// symbol when no richer name has been recorded yet.
func (m *AssetMetadata) DisplayOrSymbol() string {
	if m == nil {
		return ""
	}
	if m.DisplayName == "" {
		return m.Symbol
	}
	return m.DisplayName
}

// Snapshot is a provider's current-price observation for a symbol.
// Meta carries whatever descriptive fields the provider reported
// alongside the price (display name, exchange, currency); nil when the
// provider reports none.
type Snapshot struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	At     time.Time       `json:"at"`
	Meta   *AssetMetadata  `json:"meta,omitempty"`
}
