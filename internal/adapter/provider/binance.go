package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finview/finview-backend/internal/domain"
)

const (
	binanceBaseURL = "https://api.binance.com"

	// Maximum candles the klines endpoint returns per request.
	binanceKlineLimit = 1000
)

// Binance serves crypto pairs from the Binance public REST API.
type Binance struct {
	client  *http.Client
	baseURL string
}

// NewBinance creates a Binance client.
func NewBinance() *Binance {
	return &Binance{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: binanceBaseURL,
	}
}

// NewBinanceWithBaseURL creates a client against a custom endpoint. Used by tests.
func NewBinanceWithBaseURL(baseURL string) *Binance {
	b := NewBinance()
	b.baseURL = baseURL
	return b
}

func (b *Binance) Name() string { return "binance" }

// pairSymbol converts a dashboard crypto symbol into Binance pair
// notation: "X:btc-usd" and "BTC-USD" both become "BTCUSDT" (Binance
// quotes dollars as USDT).
func pairSymbol(symbol string) string {
	s := strings.TrimPrefix(symbol, "X:")
	s = strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	if strings.HasSuffix(s, "USD") {
		s += "T"
	}
	return s
}

// FetchSnapshot returns the current ticker price for the pair.
func (b *Binance) FetchSnapshot(ctx context.Context, symbol string) (*domain.Snapshot, error) {
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, pairSymbol(symbol))

	body, err := httpGet(ctx, b.client, u, b.Name())
	if err != nil {
		return nil, err
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("binance decode: %w: %v", domain.ErrProviderUnavailable, err)
	}

	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return nil, fmt.Errorf("binance parse price %q: %w", ticker.Price, domain.ErrProviderUnavailable)
	}

	return &domain.Snapshot{Symbol: symbol, Price: price, At: time.Now().UTC()}, nil
}

// FetchRange returns klines for [start, end]. Daily candles unless
// intraday resolution is requested, in which case hourly candles are used.
// The klines endpoint caps each response at binanceKlineLimit candles
// starting from startTime, so long ranges are fetched page by page,
// advancing the cursor past the last returned open time until end is
// covered or a short page signals exhaustion.
func (b *Binance) FetchRange(ctx context.Context, symbol string, start, end time.Time, intraday bool) ([]domain.PriceBar, error) {
	interval, step := "1d", 24*time.Hour
	if intraday {
		interval, step = "1h", time.Hour
	}

	var bars []domain.PriceBar
	cursor := start
	for !cursor.After(end) {
		page, lastAt, full, err := b.fetchKlinesPage(ctx, symbol, interval, cursor, end, intraday)
		if err != nil {
			return nil, err
		}
		bars = append(bars, page...)
		if !full || lastAt.IsZero() {
			break
		}
		cursor = lastAt.Add(step)
	}

	return bars, nil
}

// fetchKlinesPage requests one page of klines. It returns the parsed
// bars, the open time of the last raw row, and whether the page was full
// (meaning more data may follow).
func (b *Binance) fetchKlinesPage(ctx context.Context, symbol, interval string, start, end time.Time, intraday bool) ([]domain.PriceBar, time.Time, bool, error) {
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&startTime=%d&endTime=%d&limit=%d",
		b.baseURL, pairSymbol(symbol), interval, start.UnixMilli(), end.UnixMilli(), binanceKlineLimit)

	body, err := httpGet(ctx, b.client, u, b.Name())
	if err != nil {
		return nil, time.Time{}, false, err
	}

	// Kline rows are heterogeneous arrays:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("binance decode: %w: %v", domain.ErrProviderUnavailable, err)
	}

	var lastAt time.Time
	bars := make([]domain.PriceBar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("binance parse open time: %w", domain.ErrProviderUnavailable)
		}
		at := time.UnixMilli(openTime).UTC()
		lastAt = at

		fields := make([]decimal.Decimal, 5)
		for i := 1; i <= 5; i++ {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				return nil, time.Time{}, false, fmt.Errorf("binance parse kline field: %w", domain.ErrProviderUnavailable)
			}
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, time.Time{}, false, fmt.Errorf("binance parse kline value %q: %w", s, domain.ErrProviderUnavailable)
			}
			fields[i-1] = d
		}

		bar := domain.PriceBar{
			Symbol:   symbol,
			Date:     dateOf(at),
			Open:     fields[0],
			High:     fields[1],
			Low:      fields[2],
			Close:    fields[3],
			AdjClose: fields[3], // no corporate actions on crypto pairs
			Volume:   fields[4].IntPart(),
		}
		if intraday {
			t := at
			bar.Timestamp = &t
		}
		bars = append(bars, bar)
	}

	return bars, lastAt, len(rows) == binanceKlineLimit, nil
}
