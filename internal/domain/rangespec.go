package domain

import (
	"fmt"
	"strings"
	"time"
)

// NamedRange enumerates the chart ranges the dashboard offers.
type NamedRange string

const (
	Range1D  NamedRange = "1D"
	Range5D  NamedRange = "5D"
	Range1M  NamedRange = "1M"
	Range3M  NamedRange = "3M"
	Range6M  NamedRange = "6M"
	RangeYTD NamedRange = "YTD"
	Range1Y  NamedRange = "1Y"
	Range3Y  NamedRange = "3Y"
	Range5Y  NamedRange = "5Y"
	Range10Y NamedRange = "10Y"
	RangeMax NamedRange = "MAX"
)

// rangeDays maps a named range to its calendar look-back in days.
// YTD is computed from the current date and MAX is capped at 20 years.
var rangeDays = map[NamedRange]int{
	Range1D:  1,
	Range5D:  7,
	Range1M:  31,
	Range3M:  92,
	Range6M:  183,
	Range1Y:  365,
	Range3Y:  1096,
	Range5Y:  1827,
	Range10Y: 3653,
	RangeMax: 7305,
}

// sufficiencyByRange holds the hand-tuned minimum bar counts below which
// stored data is considered too sparse and the pipeline escalates to the
// upstream provider. These are policy, not contract; recalibrate freely
// but keep rangespec_test.go in step.
var sufficiencyByRange = map[NamedRange]int{
	Range1D:  10,
	Range5D:  4,
	Range1M:  18,
	Range3M:  55,
	Range6M:  110,
	Range1Y:  230,
	Range3Y:  700,
	Range5Y:  1150,
	Range10Y: 2300,
	RangeMax: 250,
}

// Cache TTLs per freshness class. Short ranges need near-live data,
// long ranges tolerate hour-scale staleness.
const (
	TTLIntraday = 2 * time.Minute
	TTLShort    = 5 * time.Minute
	TTLLong     = time.Hour
)

// intradaySpan is the widest request window that is still served with
// sub-daily bars.
const intradaySpan = 7 * 24 * time.Hour

// ParseRange parses a user-supplied range token.
func ParseRange(s string) (NamedRange, error) {
	r := NamedRange(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rangeDays[r]; !ok {
		return "", fmt.Errorf("%w: unknown range %q", ErrInvalidRequest, s)
	}
	return r, nil
}

// ResolutionRequest describes one resolve call. A non-zero Start switches
// the request to a custom window, which overrides the named-range policy
// tables for window and day count (TTL and sufficiency are then derived
// from the span).
type ResolutionRequest struct {
	Symbol string
	Range  NamedRange
	Start  time.Time
	End    time.Time
}

// Custom reports whether the request carries an explicit window.
func (r ResolutionRequest) Custom() bool {
	return !r.Start.IsZero()
}

// Window resolves the [start, end] interval the request covers.
// A future end date is clamped to now; start after end is rejected.
func (r ResolutionRequest) Window(now time.Time) (time.Time, time.Time, error) {
	if r.Symbol == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
	}
	if r.Custom() {
		end := r.End
		if end.IsZero() || end.After(now) {
			end = now
		}
		if r.Start.After(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s after end %s",
				ErrInvalidRequest, r.Start.Format(time.DateOnly), end.Format(time.DateOnly))
		}
		return r.Start, end, nil
	}
	if r.Range == RangeYTD {
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, now, nil
	}
	days, ok := rangeDays[r.Range]
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown range %q", ErrInvalidRequest, r.Range)
	}
	return now.AddDate(0, 0, -days), now, nil
}

// TTL returns the cache TTL for the request's freshness class.
func (r ResolutionRequest) TTL(now time.Time) time.Duration {
	start, end, err := r.Window(now)
	if err != nil {
		return TTLShort
	}
	span := end.Sub(start)
	switch {
	case span <= 2*24*time.Hour:
		return TTLIntraday
	case span <= 92*24*time.Hour:
		return TTLShort
	default:
		return TTLLong
	}
}

// SufficiencyThreshold returns the minimum stored bar count that lets the
// pipeline answer from the store without escalating to a provider.
// Custom windows and YTD use three quarters of the expected trading days
// in the span.
func (r ResolutionRequest) SufficiencyThreshold(now time.Time) int {
	if !r.Custom() && r.Range != RangeYTD {
		if n, ok := sufficiencyByRange[r.Range]; ok {
			return n
		}
	}
	start, end, err := r.Window(now)
	if err != nil {
		return 1
	}
	spanDays := int(end.Sub(start).Hours() / 24)
	tradingDays := spanDays * 5 / 7
	threshold := tradingDays * 3 / 4
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

// WantIntraday reports whether the request window is narrow enough to be
// served with sub-daily bars.
func (r ResolutionRequest) WantIntraday(now time.Time) bool {
	start, end, err := r.Window(now)
	if err != nil {
		return false
	}
	return end.Sub(start) <= intradaySpan
}

// CacheKey builds the series cache key for (symbol, range).
func (r ResolutionRequest) CacheKey() string {
	if r.Custom() {
		end := "now"
		if !r.End.IsZero() {
			end = r.End.Format("20060102")
		}
		return fmt.Sprintf("series:%s:%s-%s", r.Symbol, r.Start.Format("20060102"), end)
	}
	return fmt.Sprintf("series:%s:%s", r.Symbol, r.Range)
}

// QuoteCacheKey builds the symbol-only key used by current-price-only calls.
func QuoteCacheKey(symbol string) string {
	return "quote:" + symbol
}
