package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finview/finview-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// handleChart serves GET /api/v1/chart/:symbol.
// Either range=1D|5D|...|MAX or start=YYYY-MM-DD[&end=YYYY-MM-DD] selects the
// window; an omitted end means "up to now", range defaults to 1M. Degraded
// results are still 200: the client renders whatever bars came back and a
// nil currentPrice.
func (s *Server) handleChart(c *gin.Context) {
	req := domain.ResolutionRequest{Symbol: c.Param("symbol")}

	startParam := c.Query("start")
	endParam := c.Query("end")
	if startParam != "" || endParam != "" {
		start, err := time.Parse(dateLayout, startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date, want YYYY-MM-DD"})
			return
		}
		req.Start = start
		if endParam != "" {
			end, err := time.Parse(dateLayout, endParam)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date, want YYYY-MM-DD"})
				return
			}
			req.End = end
		}
	} else {
		named, err := domain.ParseRange(c.DefaultQuery("range", string(domain.Range1M)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Range = named
	}

	result, err := s.ResolutionService.Resolve(c.Request.Context(), req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleQuote serves GET /api/v1/quote/:symbol.
func (s *Server) handleQuote(c *gin.Context) {
	quote, err := s.ResolutionService.ResolveCurrent(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// handlePortfolioValue serves GET /api/v1/portfolios/:id/value.
func (s *Server) handlePortfolioValue(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid portfolio id"})
		return
	}

	result, err := s.PortfolioService.Valuate(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleWatchlistQuotes serves GET /api/v1/watchlists/:id/quotes.
func (s *Server) handleWatchlistQuotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid watchlist id"})
		return
	}

	result, err := s.WatchlistService.Quotes(c.Request.Context(), id)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleMarketOverview serves GET /api/v1/market/overview.
func (s *Server) handleMarketOverview(c *gin.Context) {
	result, err := s.OverviewService.Overview(c.Request.Context())
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleHealth serves GET /healthz, probing each registered check.
func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	checks := make(gin.H, len(s.checks))
	for name, check := range s.checks {
		if err := check.Health(c.Request.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

// abortWithError maps domain errors to HTTP status codes.
func (s *Server) abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable), errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.Logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
