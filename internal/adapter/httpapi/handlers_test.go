package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/domain"
	"github.com/finview/finview-backend/internal/usecase/overview"
	"github.com/finview/finview-backend/internal/usecase/portfolio"
	"github.com/finview/finview-backend/internal/usecase/resolution"
	"github.com/finview/finview-backend/internal/usecase/watchlist"
)

type MockChartResolver struct {
	mock.Mock
}

func (m *MockChartResolver) Resolve(ctx context.Context, req domain.ResolutionRequest) (*resolution.Resolution, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolution.Resolution), args.Error(1)
}

func (m *MockChartResolver) ResolveCurrent(ctx context.Context, symbol string) (*resolution.Quote, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolution.Quote), args.Error(1)
}

type MockPortfolioValuator struct {
	mock.Mock
}

func (m *MockPortfolioValuator) Valuate(ctx context.Context, id uuid.UUID) (*portfolio.ValuationResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portfolio.ValuationResult), args.Error(1)
}

type MockWatchlistQuoter struct {
	mock.Mock
}

func (m *MockWatchlistQuoter) Quotes(ctx context.Context, id uuid.UUID) (*watchlist.QuotesResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*watchlist.QuotesResult), args.Error(1)
}

type MockMarketOverviewer struct {
	mock.Mock
}

func (m *MockMarketOverviewer) Overview(ctx context.Context) (*overview.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*overview.Result), args.Error(1)
}

type healthFunc func(context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type serverFixture struct {
	resolver *MockChartResolver
	valuator *MockPortfolioValuator
	quoter   *MockWatchlistQuoter
	overview *MockMarketOverviewer
	server   *Server
	handler  http.Handler
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()

	f := &serverFixture{
		resolver: new(MockChartResolver),
		valuator: new(MockPortfolioValuator),
		quoter:   new(MockWatchlistQuoter),
		overview: new(MockMarketOverviewer),
	}
	f.server = NewServer(f.resolver, f.valuator, f.quoter, f.overview, zap.NewNop(), "", nil)
	f.handler = f.server.Handler()
	return f
}

func (f *serverFixture) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleChart(t *testing.T) {
	// Setup
	f := newFixture(t)
	price := decimal.NewFromInt(121)

	// Mock expectations: default range is 1M
	f.resolver.On("Resolve", mock.Anything, domain.ResolutionRequest{
		Symbol: "AAPL", Range: domain.Range1M,
	}).Return(&resolution.Resolution{
		Symbol:       "AAPL",
		CurrentPrice: &price,
		Source:       resolution.SourceStore,
	}, nil)

	// Execute
	rec := f.get("/api/v1/chart/AAPL")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body["symbol"])
	assert.Equal(t, "store", body["source"])
	f.resolver.AssertExpectations(t)
}

func TestHandleChart_NamedRange(t *testing.T) {
	// Setup
	f := newFixture(t)

	// Mock expectations
	f.resolver.On("Resolve", mock.Anything, domain.ResolutionRequest{
		Symbol: "MSFT", Range: domain.Range1Y,
	}).Return(&resolution.Resolution{Symbol: "MSFT", Source: resolution.SourceCache}, nil)

	// Execute
	rec := f.get("/api/v1/chart/MSFT?range=1Y")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	f.resolver.AssertExpectations(t)
}

func TestHandleChart_CustomWindow(t *testing.T) {
	// Setup
	f := newFixture(t)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	// Mock expectations
	f.resolver.On("Resolve", mock.Anything, domain.ResolutionRequest{
		Symbol: "AAPL", Start: start, End: end,
	}).Return(&resolution.Resolution{Symbol: "AAPL", Source: resolution.SourceStore}, nil)

	// Execute
	rec := f.get("/api/v1/chart/AAPL?start=2025-03-01&end=2025-04-01")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	f.resolver.AssertExpectations(t)
}

func TestHandleChart_StartOnlyWindow(t *testing.T) {
	// Setup: an omitted end means "up to now", expressed as a zero End
	f := newFixture(t)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Mock expectations
	f.resolver.On("Resolve", mock.Anything, domain.ResolutionRequest{
		Symbol: "AAPL", Start: start,
	}).Return(&resolution.Resolution{Symbol: "AAPL", Source: resolution.SourceStore}, nil)

	// Execute
	rec := f.get("/api/v1/chart/AAPL?start=2025-03-01")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	f.resolver.AssertExpectations(t)
}

func TestHandleChart_BadRange(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/v1/chart/AAPL?range=2W")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHandleChart_BadCustomDates(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/v1/chart/AAPL?start=March-1&end=2025-04-01")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChart_InvalidRequestMapsTo400(t *testing.T) {
	// Setup
	f := newFixture(t)

	// Mock expectations: the service rejects the window itself
	f.resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(nil, domain.ErrInvalidRequest)

	// Execute
	rec := f.get("/api/v1/chart/AAPL?start=2025-04-01&end=2025-03-01")

	// Assert
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChart_DegradedStillOK(t *testing.T) {
	// Setup: all tiers empty, service returns a degraded result, not an error
	f := newFixture(t)

	f.resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(&resolution.Resolution{
			Symbol: "AAPL",
			Series: []domain.PriceBar{},
			Source: resolution.SourceDegraded,
		}, nil)

	// Execute
	rec := f.get("/api/v1/chart/AAPL")

	// Assert: degraded is 200 with an explicit null current price
	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["source"])
	assert.Nil(t, body["currentPrice"])
}

func TestHandleChart_ProviderDownMapsTo502(t *testing.T) {
	f := newFixture(t)

	f.resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(nil, domain.ErrProviderUnavailable)

	rec := f.get("/api/v1/chart/AAPL")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleQuote(t *testing.T) {
	// Setup
	f := newFixture(t)
	price := decimal.NewFromInt(200)

	// Mock expectations
	f.resolver.On("ResolveCurrent", mock.Anything, "AAPL").
		Return(&resolution.Quote{Symbol: "AAPL", Price: &price}, nil)

	// Execute
	rec := f.get("/api/v1/quote/AAPL")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbol":"AAPL"`)
}

func TestHandlePortfolioValue(t *testing.T) {
	// Setup
	f := newFixture(t)
	id := uuid.New()

	// Mock expectations
	f.valuator.On("Valuate", mock.Anything, id).Return(&portfolio.ValuationResult{
		PortfolioID: id,
		Name:        "Growth",
		TotalValue:  decimal.NewFromInt(4000),
	}, nil)

	// Execute
	rec := f.get("/api/v1/portfolios/" + id.String() + "/value")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Growth"`)
}

func TestHandlePortfolioValue_BadID(t *testing.T) {
	f := newFixture(t)

	rec := f.get("/api/v1/portfolios/not-a-uuid/value")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.valuator.AssertNotCalled(t, "Valuate", mock.Anything, mock.Anything)
}

func TestHandlePortfolioValue_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.valuator.On("Valuate", mock.Anything, id).
		Return(nil, domain.ErrNotFound)

	rec := f.get("/api/v1/portfolios/" + id.String() + "/value")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleWatchlistQuotes(t *testing.T) {
	// Setup
	f := newFixture(t)
	id := uuid.New()

	// Mock expectations
	f.quoter.On("Quotes", mock.Anything, id).Return(&watchlist.QuotesResult{
		WatchlistID: id,
		Name:        "Tech",
		Entries:     []watchlist.Entry{{Symbol: "AAPL", DisplayName: "Apple Inc."}},
	}, nil)

	// Execute
	rec := f.get("/api/v1/watchlists/" + id.String() + "/quotes")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"displayName":"Apple Inc."`)
}

func TestHandleMarketOverview(t *testing.T) {
	// Setup
	f := newFixture(t)

	// Mock expectations
	f.overview.On("Overview", mock.Anything).Return(&overview.Result{
		Gainers: []overview.Quote{{Symbol: "NVDA"}},
	}, nil)

	// Execute
	rec := f.get("/api/v1/market/overview")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"NVDA"`)
}

func TestHandleMarketOverview_InternalError(t *testing.T) {
	f := newFixture(t)

	f.overview.On("Overview", mock.Anything).Return(nil, errors.New("boom"))

	rec := f.get("/api/v1/market/overview")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandleHealth(t *testing.T) {
	// Setup: one healthy and one failing check
	f := &serverFixture{
		resolver: new(MockChartResolver),
		valuator: new(MockPortfolioValuator),
		quoter:   new(MockWatchlistQuoter),
		overview: new(MockMarketOverviewer),
	}
	checks := map[string]HealthChecker{
		"postgres": healthFunc(func(context.Context) error { return nil }),
		"redis":    healthFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	f.server = NewServer(f.resolver, f.valuator, f.quoter, f.overview, zap.NewNop(), "", checks)
	f.handler = f.server.Handler()

	// Execute
	rec := f.get("/healthz")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestAuthAppliesToAPIButNotHealth(t *testing.T) {
	// Setup: token configured, no Authorization header sent
	f := &serverFixture{
		resolver: new(MockChartResolver),
		valuator: new(MockPortfolioValuator),
		quoter:   new(MockWatchlistQuoter),
		overview: new(MockMarketOverviewer),
	}
	f.server = NewServer(f.resolver, f.valuator, f.quoter, f.overview, zap.NewNop(), "secret", nil)
	f.handler = f.server.Handler()

	// Execute + Assert
	assert.Equal(t, http.StatusUnauthorized, f.get("/api/v1/market/overview").Code)
	assert.Equal(t, http.StatusOK, f.get("/healthz").Code)
}
