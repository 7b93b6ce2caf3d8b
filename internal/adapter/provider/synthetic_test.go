package provider

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestSyntheticFetchRange_Deterministic(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic()
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	first, err := s.FetchRange(ctx, "AAPL", start, end, false)
	require.NoError(t, err)
	second, err := s.FetchRange(ctx, "AAPL", start, end, false)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSyntheticFetchRange_DifferentSymbolsDiffer(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic()
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.May, 10, 0, 0, 0, 0, time.UTC)

	aapl, err := s.FetchRange(ctx, "AAPL", start, end, false)
	require.NoError(t, err)
	msft, err := s.FetchRange(ctx, "MSFT", start, end, false)
	require.NoError(t, err)

	require.NotEmpty(t, aapl)
	require.NotEmpty(t, msft)
	assert.NotEqual(t, aapl[0].Close, msft[0].Close)
}

func TestSyntheticFetchRange_WindowAndOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic()
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)

	bars, err := s.FetchRange(ctx, "AAPL", start, end, false)
	require.NoError(t, err)
	require.NotEmpty(t, bars)

	for i, bar := range bars {
		require.NoError(t, bar.Validate())
		assert.False(t, bar.At().Before(start))
		assert.False(t, bar.At().After(end))
		if i > 0 {
			assert.True(t, bars[i-1].At().Before(bar.At()))
		}
	}
}

func TestSyntheticFetchRange_IntradayCarriesTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic()
	end := time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)

	bars, err := s.FetchRange(ctx, "BTC-USD", end.Add(-24*time.Hour), end, true)
	require.NoError(t, err)
	require.NotEmpty(t, bars)
	assert.NotNil(t, bars[0].Timestamp)
}

func TestSyntheticFetchSnapshot(t *testing.T) {
	s := NewSynthetic()
	snap, err := s.FetchSnapshot(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)
	assert.True(t, snap.Price.GreaterThan(decimal.Zero))
}
