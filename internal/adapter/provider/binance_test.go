package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finview/finview-backend/internal/domain"
)

func TestPairSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", pairSymbol("X:btc-usd"))
	assert.Equal(t, "BTCUSDT", pairSymbol("BTC-USD"))
	assert.Equal(t, "ETHUSDT", pairSymbol("ETH-USDT"))
	assert.Equal(t, "SOLBTC", pairSymbol("SOL-BTC"))
}

func TestBinanceFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"64250.10000000"}`))
	}))
	defer srv.Close()

	b := NewBinanceWithBaseURL(srv.URL)
	snap, err := b.FetchSnapshot(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, "BTC-USD", snap.Symbol)
	assert.True(t, snap.Price.Equal(mustDecimal(t, "64250.1")))
}

func TestBinanceFetchRange_ParsesKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`[
			[1717372800000, "67000.1", "68100.0", "66500.5", "67800.2", "1234.5", 1717459199999],
			[1717459200000, "67800.2", "69000.0", "67500.0", "68900.9", "2345.6", 1717545599999]
		]`))
	}))
	defer srv.Close()

	b := NewBinanceWithBaseURL(srv.URL)
	end := time.Now().UTC()
	bars, err := b.FetchRange(context.Background(), "BTC-USD", end.AddDate(0, 0, -3), end, false)
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, "BTC-USD", bars[0].Symbol)
	assert.Nil(t, bars[0].Timestamp)
	assert.Equal(t, "67800.2", bars[0].Close.String())
	assert.Equal(t, int64(1234), bars[0].Volume)
	assert.True(t, bars[0].At().Before(bars[1].At()))
}

func TestBinanceFetchRange_PaginatesLongRanges(t *testing.T) {
	const dayMillis = int64(24 * 60 * 60 * 1000)
	end := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -2499) // 2500 daily candles, three pages

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		from, err := strconv.ParseInt(r.URL.Query().Get("startTime"), 10, 64)
		require.NoError(t, err)
		to, err := strconv.ParseInt(r.URL.Query().Get("endTime"), 10, 64)
		require.NoError(t, err)

		var rows []string
		for ts := from; ts <= to && len(rows) < 1000; ts += dayMillis {
			rows = append(rows, fmt.Sprintf(`[%d, "100.0", "101.0", "99.0", "100.5", "10.0", %d]`, ts, ts+dayMillis-1))
		}
		_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
	}))
	defer srv.Close()

	b := NewBinanceWithBaseURL(srv.URL)
	bars, err := b.FetchRange(context.Background(), "BTC-USD", start, end, false)
	require.NoError(t, err)

	assert.Equal(t, 3, requests, "2500 daily candles span three pages")
	require.Len(t, bars, 2500)
	assert.True(t, bars[0].Date.Equal(start), "series starts at the requested start")
	assert.True(t, bars[len(bars)-1].Date.Equal(end), "series reaches the requested end")
	for i := 1; i < len(bars); i++ {
		require.True(t, bars[i-1].At().Before(bars[i].At()), "pages concatenate in order")
	}
}

func TestBinanceFetchRange_ShortPageStopsPagination(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`[[1717372800000, "67000.1", "68100.0", "66500.5", "67800.2", "1234.5", 1717459199999]]`))
	}))
	defer srv.Close()

	b := NewBinanceWithBaseURL(srv.URL)
	end := time.Now().UTC()
	bars, err := b.FetchRange(context.Background(), "BTC-USD", end.AddDate(-10, 0, 0), end, false)
	require.NoError(t, err)

	assert.Equal(t, 1, requests, "a short page means the upstream has no more data")
	assert.Len(t, bars, 1)
}

func TestBinance_RateLimitMapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	b := NewBinanceWithBaseURL(srv.URL)
	_, err := b.FetchSnapshot(context.Background(), "BTC-USD")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
