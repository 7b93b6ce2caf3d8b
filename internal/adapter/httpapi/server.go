// Package httpapi exposes the dashboard's read API over HTTP/JSON.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/domain"
	"github.com/finview/finview-backend/internal/usecase/overview"
	"github.com/finview/finview-backend/internal/usecase/portfolio"
	"github.com/finview/finview-backend/internal/usecase/resolution"
	"github.com/finview/finview-backend/internal/usecase/watchlist"
)

// ChartResolver resolves price series and current quotes.
type ChartResolver interface {
	Resolve(ctx context.Context, req domain.ResolutionRequest) (*resolution.Resolution, error)
	ResolveCurrent(ctx context.Context, symbol string) (*resolution.Quote, error)
}

// PortfolioValuator prices a portfolio's holdings.
type PortfolioValuator interface {
	Valuate(ctx context.Context, id uuid.UUID) (*portfolio.ValuationResult, error)
}

// WatchlistQuoter quotes a watchlist's symbols.
type WatchlistQuoter interface {
	Quotes(ctx context.Context, id uuid.UUID) (*watchlist.QuotesResult, error)
}

// MarketOverviewer assembles the market overview page.
type MarketOverviewer interface {
	Overview(ctx context.Context) (*overview.Result, error)
}

// HealthChecker reports backing-store health for /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server wires the usecase services into a gin router
type Server struct {
	ResolutionService ChartResolver
	PortfolioService  PortfolioValuator
	WatchlistService  WatchlistQuoter
	OverviewService   MarketOverviewer
	Logger            *zap.Logger

	apiToken string
	checks   map[string]HealthChecker
}

// NewServer creates a new Server instance. An empty apiToken disables
// authentication; checks are probed by /healthz and may be nil.
func NewServer(
	resolutionService ChartResolver,
	portfolioService PortfolioValuator,
	watchlistService WatchlistQuoter,
	overviewService MarketOverviewer,
	logger *zap.Logger,
	apiToken string,
	checks map[string]HealthChecker,
) *Server {
	return &Server{
		ResolutionService: resolutionService,
		PortfolioService:  portfolioService,
		WatchlistService:  watchlistService,
		OverviewService:   overviewService,
		Logger:            logger,
		apiToken:          apiToken,
		checks:            checks,
	}
}

// Handler builds the gin engine with middleware and all routes registered.
func (s *Server) Handler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(s.Logger))

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api/v1")
	if s.apiToken != "" {
		api.Use(AuthMiddleware(s.apiToken))
	}
	api.GET("/chart/:symbol", s.handleChart)
	api.GET("/quote/:symbol", s.handleQuote)
	api.GET("/portfolios/:id/value", s.handlePortfolioValue)
	api.GET("/watchlists/:id/quotes", s.handleWatchlistQuotes)
	api.GET("/market/overview", s.handleMarketOverview)

	return router
}
