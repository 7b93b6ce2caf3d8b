package provider

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finview/finview-backend/internal/domain"
)

// Synthetic generates a deterministic random walk per symbol. Deployments
// without upstream API access inject it in place of the real clients; the
// pipeline itself never knows the difference.
type Synthetic struct{}

// NewSynthetic creates a synthetic data generator.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

func (s *Synthetic) Name() string { return "synthetic" }

// seedFor derives a stable per-symbol seed so repeated calls generate the
// same history.
func seedFor(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// walk generates bars at the given step over [start, end].
func (s *Synthetic) walk(symbol string, start, end time.Time, step time.Duration, intraday bool) []domain.PriceBar {
	rng := rand.New(rand.NewSource(seedFor(symbol)))
	price := 20 + float64(seedFor(symbol)%480)

	// Walk from a fixed epoch so any requested window lands on the same
	// deterministic path.
	epoch := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	var bars []domain.PriceBar
	for at := epoch; !at.After(end); at = at.Add(step) {
		open := price
		move := (rng.Float64() - 0.5) * 0.04 * price
		price += move
		if price < 1 {
			price = 1
		}
		if at.Before(start) {
			continue
		}

		high := open
		low := open
		if price > high {
			high = price
		}
		if price < low {
			low = price
		}

		bar := domain.PriceBar{
			Symbol:   symbol,
			Date:     dateOf(at),
			Open:     decimal.NewFromFloat(open).Round(4),
			High:     decimal.NewFromFloat(high * 1.005).Round(4),
			Low:      decimal.NewFromFloat(low * 0.995).Round(4),
			Close:    decimal.NewFromFloat(price).Round(4),
			AdjClose: decimal.NewFromFloat(price).Round(4),
			Volume:   int64(rng.Intn(5_000_000) + 100_000),
		}
		if intraday {
			t := at
			bar.Timestamp = &t
		}
		bars = append(bars, bar)
	}
	return bars
}

// FetchRange generates daily (or hourly) bars for [start, end].
func (s *Synthetic) FetchRange(_ context.Context, symbol string, start, end time.Time, intraday bool) ([]domain.PriceBar, error) {
	step := 24 * time.Hour
	if intraday {
		step = time.Hour
	}
	return s.walk(symbol, start, end, step, intraday), nil
}

// FetchSnapshot generates the current point of the walk.
func (s *Synthetic) FetchSnapshot(_ context.Context, symbol string) (*domain.Snapshot, error) {
	now := time.Now().UTC()
	bars := s.walk(symbol, now.Add(-48*time.Hour), now, time.Hour, true)
	if len(bars) == 0 {
		return &domain.Snapshot{Symbol: symbol, Price: decimal.NewFromInt(100), At: now}, nil
	}
	last := bars[len(bars)-1]
	return &domain.Snapshot{Symbol: symbol, Price: last.Close, At: last.At()}, nil
}
