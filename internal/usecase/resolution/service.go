package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/finview/finview-backend/internal/domain"
)

// Source identifies the tier that produced a resolution.
type Source string

const (
	SourceCache    Source = "cache"
	SourceStore    Source = "store"
	SourceProvider Source = "provider"
	SourceDegraded Source = "degraded"
)

// Resolution is the result of one resolve call: the current price and an
// ordered, duplicate-free series over the requested range. CurrentPrice
// is nil when no tier could produce any data; callers must treat that as
// "temporarily unavailable", not "symbol invalid".
type Resolution struct {
	Symbol        string            `json:"symbol"`
	CurrentPrice  *decimal.Decimal  `json:"currentPrice"`
	Change        decimal.Decimal   `json:"change"`
	ChangePercent decimal.Decimal   `json:"changePercent"`
	Series        []domain.PriceBar `json:"series"`
	Source        Source            `json:"source"`
}

// Quote is the cheap current-price-only result used by listing views.
type Quote struct {
	Symbol        string           `json:"symbol"`
	Price         *decimal.Decimal `json:"price"`
	Change        decimal.Decimal  `json:"change"`
	ChangePercent decimal.Decimal  `json:"changePercent"`
}

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 500 * time.Millisecond
)

// Service is the price resolution pipeline. For a (symbol, range) request
// it consults cache, store and provider in that order, repairs gaps by
// escalating to the next tier, writes fresh data back down, and degrades
// to partial data instead of failing when a tier is unavailable.
type Service struct {
	cache     domain.Cache
	bars      domain.BarRepository
	metadata  domain.MetadataRepository
	router    *Router
	publisher domain.PricePublisher
	logger    *zap.Logger

	// group collapses concurrent cold-cache resolves of the same
	// (symbol, range) into a single store/provider pass.
	group singleflight.Group

	retryAttempts int
	retryBase     time.Duration
	sleep         sleepFunc
	now           func() time.Time
}

// NewService creates a new resolution Service instance
func NewService(
	cache domain.Cache,
	bars domain.BarRepository,
	metadata domain.MetadataRepository,
	router *Router,
	publisher domain.PricePublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:         cache,
		bars:          bars,
		metadata:      metadata,
		router:        router,
		publisher:     publisher,
		logger:        logger,
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
		sleep:         sleepCtx,
		now:           time.Now,
	}
}

// Resolve returns the current price and bar series for the request.
// Only ErrInvalidRequest (bad symbol, inverted window) is surfaced as an
// error before any tier is touched; tier failures degrade instead.
func (s *Service) Resolve(ctx context.Context, req domain.ResolutionRequest) (*Resolution, error) {
	req.Symbol = domain.NormalizeSymbol(req.Symbol)
	now := s.now().UTC()

	start, end, err := req.Window(now)
	if err != nil {
		return nil, err
	}

	// Tier 1: cache. Correctness is bounded by TTL only; a hit is final.
	key := req.CacheKey()
	if payload, cerr := s.cache.Get(ctx, key); cerr == nil {
		var res Resolution
		if jerr := json.Unmarshal(payload, &res); jerr == nil {
			res.Source = SourceCache
			return &res, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(cerr, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed, falling through to store",
			zap.String("key", key), zap.Error(cerr))
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.resolveUncached(ctx, req, start, end, now)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolution), nil
}

// ResolveCurrent is the cheap current-price-only form, served from a
// symbol-only cache key and backed by a short-range resolve on miss.
func (s *Service) ResolveCurrent(ctx context.Context, symbol string) (*Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", domain.ErrInvalidRequest)
	}

	key := domain.QuoteCacheKey(symbol)
	if payload, err := s.cache.Get(ctx, key); err == nil {
		var q Quote
		if jerr := json.Unmarshal(payload, &q); jerr == nil {
			return &q, nil
		}
	}

	res, err := s.Resolve(ctx, domain.ResolutionRequest{Symbol: symbol, Range: domain.Range5D})
	if err != nil {
		return nil, err
	}

	q := &Quote{
		Symbol:        symbol,
		Price:         res.CurrentPrice,
		Change:        res.Change,
		ChangePercent: res.ChangePercent,
	}

	if payload, jerr := json.Marshal(q); jerr == nil {
		if cerr := s.cache.SetWithTTL(ctx, key, payload, domain.TTLIntraday); cerr != nil {
			s.logger.Warn("quote cache write failed", zap.String("key", key), zap.Error(cerr))
		}
	}

	return q, nil
}

func (s *Service) resolveUncached(ctx context.Context, req domain.ResolutionRequest, start, end, now time.Time) (*Resolution, error) {
	wantIntraday := req.WantIntraday(now)
	threshold := req.SufficiencyThreshold(now)

	// Tier 2: store.
	stored, storeErr := s.bars.QueryRange(ctx, req.Symbol, start, end, wantIntraday)
	if storeErr != nil {
		s.logger.Warn("store query failed, escalating to provider",
			zap.String("symbol", req.Symbol), zap.Error(storeErr))
	}

	if storeErr == nil && len(stored) >= threshold {
		res := s.buildResolution(req.Symbol, stored, nil, SourceStore)
		s.writeCache(ctx, req, res, now)
		return res, nil
	}

	// Tier 3: provider escalation.
	client := s.router.ClientFor(req.Symbol)

	fetched, fetchErr := withRetry(ctx, s.retryAttempts, s.retryBase, s.sleep,
		func(ctx context.Context) ([]domain.PriceBar, error) {
			return client.FetchRange(ctx, req.Symbol, start, end, wantIntraday)
		})
	snapshot, snapErr := withRetry(ctx, s.retryAttempts, s.retryBase, s.sleep,
		func(ctx context.Context) (*domain.Snapshot, error) {
			return client.FetchSnapshot(ctx, req.Symbol)
		})
	if snapErr != nil {
		s.logger.Warn("snapshot fetch failed",
			zap.String("symbol", req.Symbol),
			zap.String("provider", client.Name()),
			zap.Error(snapErr))
		snapshot = nil
	}

	if fetchErr != nil {
		s.logger.Warn("provider range fetch failed",
			zap.String("symbol", req.Symbol),
			zap.String("provider", client.Name()),
			zap.Error(fetchErr))

		// Store tier itself was down as well: nothing left to degrade to
		// unless at least the snapshot came through.
		if storeErr != nil && snapshot == nil {
			return nil, fmt.Errorf("no tier could resolve %s: %w", req.Symbol, fetchErr)
		}

		// Partial data outranks no data. Degraded results are not cached
		// so the next call retries the provider.
		return s.buildResolution(req.Symbol, stored, snapshot, SourceDegraded), nil
	}

	// Leave the store more complete than we found it. The upsert is
	// idempotent on the natural key, so a concurrent fetch is harmless.
	if err := s.bars.UpsertBars(ctx, fetched); err != nil {
		s.logger.Warn("bar upsert failed, serving fetched data uncommitted",
			zap.String("symbol", req.Symbol), zap.Error(err))
	}

	s.ensureMetadata(ctx, req.Symbol, snapshot)

	if s.publisher != nil {
		if err := s.publisher.PublishBars(ctx, req.Symbol, fetched); err != nil {
			s.logger.Warn("bar refresh publish failed",
				zap.String("symbol", req.Symbol), zap.Error(err))
		}
	}

	series := appendSnapshotPoint(fetched, snapshot)
	res := s.buildResolution(req.Symbol, series, snapshot, SourceProvider)
	s.writeCache(ctx, req, res, now)
	return res, nil
}

// buildResolution normalizes the series and derives the current price:
// the provider snapshot when one was obtained, else the close of the most
// recent bar, else nil. Change is measured against the next-to-last bar's
// close; a single-bar series yields zero change by policy.
func (s *Service) buildResolution(symbol string, series []domain.PriceBar, snapshot *domain.Snapshot, source Source) *Resolution {
	series = normalizeSeries(series)

	res := &Resolution{
		Symbol: symbol,
		Series: series,
		Source: source,
	}

	switch {
	case snapshot != nil:
		price := snapshot.Price
		res.CurrentPrice = &price
	case len(series) > 0:
		price := series[len(series)-1].Close
		res.CurrentPrice = &price
	default:
		return res
	}

	if len(series) >= 2 {
		prevClose := series[len(series)-2].Close
		res.Change = res.CurrentPrice.Sub(prevClose)
		if !prevClose.IsZero() {
			res.ChangePercent = res.Change.Div(prevClose).Mul(decimal.NewFromInt(100)).Round(4)
		}
	}

	return res
}

func (s *Service) writeCache(ctx context.Context, req domain.ResolutionRequest, res *Resolution, now time.Time) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn("resolution marshal failed", zap.String("symbol", req.Symbol), zap.Error(err))
		return
	}
	if err := s.cache.SetWithTTL(ctx, req.CacheKey(), payload, req.TTL(now)); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", req.CacheKey()), zap.Error(err))
	}
}

// ensureMetadata keeps a best-effort metadata row for every symbol that
// resolves: created on first sight, classified by shape, and enriched
// with any descriptive fields the provider snapshot reported (display
// name, exchange, currency). Existing values are never overwritten, only
// blanks filled.
func (s *Service) ensureMetadata(ctx context.Context, symbol string, snapshot *domain.Snapshot) {
	var reported *domain.AssetMetadata
	if snapshot != nil {
		reported = snapshot.Meta
	}

	existing, err := s.metadata.Get(ctx, symbol)
	switch {
	case err == nil:
		if !enrichMetadata(existing, reported) {
			return
		}
		if err := s.metadata.Upsert(ctx, existing); err != nil {
			s.logger.Warn("metadata enrich failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return
	case !errors.Is(err, domain.ErrNotFound):
		s.logger.Warn("metadata lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	meta := &domain.AssetMetadata{
		Symbol:     symbol,
		Instrument: domain.ClassifySymbol(symbol),
	}
	enrichMetadata(meta, reported)
	if err := s.metadata.Upsert(ctx, meta); err != nil {
		s.logger.Warn("metadata upsert failed", zap.String("symbol", symbol), zap.Error(err))
	}
}

// enrichMetadata fills blank descriptive fields of meta from what the
// provider reported and says whether anything changed.
func enrichMetadata(meta, reported *domain.AssetMetadata) bool {
	if reported == nil {
		return false
	}
	changed := false
	if meta.DisplayName == "" && reported.DisplayName != "" {
		meta.DisplayName = reported.DisplayName
		changed = true
	}
	if meta.Exchange == "" && reported.Exchange != "" {
		meta.Exchange = reported.Exchange
		changed = true
	}
	if meta.Currency == "" && reported.Currency != "" {
		meta.Currency = reported.Currency
		changed = true
	}
	return changed
}

// appendSnapshotPoint presents a fresh snapshot as the latest point of
// the series when it postdates the last bar, so a stored daily bar for
// "today" never hides the live intraday price. The synthetic point is not
// persisted.
func appendSnapshotPoint(series []domain.PriceBar, snapshot *domain.Snapshot) []domain.PriceBar {
	if snapshot == nil {
		return series
	}
	if len(series) > 0 && !snapshot.At.After(series[len(series)-1].At()) {
		return series
	}

	at := snapshot.At
	y, m, d := at.Date()
	return append(series, domain.PriceBar{
		Symbol:    snapshot.Symbol,
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Timestamp: &at,
		Open:      snapshot.Price,
		High:      snapshot.Price,
		Low:       snapshot.Price,
		Close:     snapshot.Price,
		AdjClose:  snapshot.Price,
	})
}

// normalizeSeries sorts bars ascending by date/timestamp and drops
// duplicate natural keys, keeping the later occurrence.
func normalizeSeries(series []domain.PriceBar) []domain.PriceBar {
	if len(series) == 0 {
		return series
	}

	sorted := make([]domain.PriceBar, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At().Before(sorted[j].At()) })

	out := sorted[:0]
	seen := make(map[string]int, len(sorted))
	for _, bar := range sorted {
		key := naturalKey(&bar)
		if idx, ok := seen[key]; ok {
			out[idx] = bar
			continue
		}
		seen[key] = len(out)
		out = append(out, bar)
	}
	return out
}

func naturalKey(bar *domain.PriceBar) string {
	if bar.Intraday() {
		return bar.Symbol + "@" + bar.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return bar.Symbol + "@" + bar.Date.UTC().Format(time.DateOnly)
}
