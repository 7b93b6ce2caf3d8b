package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finview/finview-backend/internal/domain"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo serves equities, ETFs, indices and commodity futures from the
// Yahoo Finance chart API.
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// NewYahoo creates a Yahoo Finance client.
func NewYahoo() *Yahoo {
	return &Yahoo{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: yahooBaseURL,
	}
}

// NewYahooWithBaseURL creates a client against a custom endpoint. Used by tests.
func NewYahooWithBaseURL(baseURL string) *Yahoo {
	y := NewYahoo()
	y.baseURL = baseURL
	return y
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooMeta is the descriptive block the chart API returns next to the
// price series.
type yahooMeta struct {
	Currency     string `json:"currency"`
	ExchangeName string `json:"exchangeName"`
	ShortName    string `json:"shortName"`
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta       yahooMeta `json:"meta"`
			Timestamp  []int64   `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol string, start, end time.Time, interval string) ([]domain.PriceBar, *domain.AssetMetadata, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		y.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix(), interval)

	body, err := httpGet(ctx, y.client, u, y.Name())
	if err != nil {
		return nil, nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, nil, fmt.Errorf("yahoo decode: %w: %v", domain.ErrProviderUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return nil, nil, fmt.Errorf("yahoo api error %s: %w", chart.Chart.Error.Description, domain.ErrProviderUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil, fmt.Errorf("yahoo: empty result: %w", domain.ErrProviderUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	intraday := interval != "1d"

	bars := make([]domain.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // null bars (holidays, half-days)
		}
		at := time.Unix(ts, 0).UTC()

		bar := domain.PriceBar{
			Symbol: symbol,
			Date:   dateOf(at),
			Open:   floatAt(quote.Open, i),
			High:   floatAt(quote.High, i),
			Low:    floatAt(quote.Low, i),
			Close:  floatAt(quote.Close, i),
		}
		if intraday {
			t := at
			bar.Timestamp = &t
		}
		if v := floatAt(quote.Volume, i); !v.IsZero() {
			bar.Volume = v.IntPart()
		}
		bar.AdjClose = bar.Close
		if len(result.Indicators.AdjClose) > 0 {
			if adj := floatAt(result.Indicators.AdjClose[0].AdjClose, i); !adj.IsZero() {
				bar.AdjClose = adj
			}
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].At().Before(bars[j].At()) })
	return bars, chartMeta(symbol, result.Meta), nil
}

// chartMeta converts the chart's meta block into asset metadata, or nil
// when the response carried no descriptive fields.
func chartMeta(symbol string, meta yahooMeta) *domain.AssetMetadata {
	if meta.ShortName == "" && meta.Currency == "" && meta.ExchangeName == "" {
		return nil
	}
	return &domain.AssetMetadata{
		Symbol:      symbol,
		DisplayName: meta.ShortName,
		Exchange:    meta.ExchangeName,
		Currency:    meta.Currency,
	}
}

// FetchRange returns historical bars for [start, end].
func (y *Yahoo) FetchRange(ctx context.Context, symbol string, start, end time.Time, intraday bool) ([]domain.PriceBar, error) {
	interval := "1d"
	if intraday {
		interval = "60m"
	}
	bars, _, err := y.fetchChart(ctx, symbol, start, end, interval)
	return bars, err
}

// FetchSnapshot returns the latest traded price, taken from the tail of
// an hourly chart over the last two days, along with the descriptive
// metadata the chart reports.
func (y *Yahoo) FetchSnapshot(ctx context.Context, symbol string) (*domain.Snapshot, error) {
	now := time.Now().UTC()
	bars, meta, err := y.fetchChart(ctx, symbol, now.AddDate(0, 0, -2), now, "60m")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo: no price data for %s: %w", symbol, domain.ErrProviderUnavailable)
	}

	last := bars[len(bars)-1]
	return &domain.Snapshot{Symbol: symbol, Price: last.Close, At: last.At(), Meta: meta}, nil
}

func floatAt(values []*float64, i int) decimal.Decimal {
	if i >= len(values) || values[i] == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*values[i])
}
