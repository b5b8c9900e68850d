package quotecache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/metrics"
	"github.com/nomixtrade/marketsync/pkg/models"
)

// CompanyService is the slice of the backend gateway being cached.
type CompanyService interface {
	GetCompany(ctx context.Context, symbol string) (models.CompanyDetails, error)
	GetCompanyGraph(ctx context.Context, symbol string) ([]models.GraphPoint, error)
}

const (
	detailsTTL = 24 * time.Hour
	graphTTL   = time.Hour
)

// Companies serves company lookups through the cache. With a nil cache
// client it degrades to a plain passthrough, so callers need no
// Redis-or-not branching.
type Companies struct {
	svc   CompanyService
	cache *Client
}

// NewCompanies wraps svc with the cache. cache may be nil.
func NewCompanies(svc CompanyService, cache *Client) *Companies {
	return &Companies{svc: svc, cache: cache}
}

// GetCompany returns the company details, from cache when possible.
func (c *Companies) GetCompany(ctx context.Context, symbol string) (models.CompanyDetails, error) {
	key := "company:" + symbol + ":details"

	var details models.CompanyDetails
	if c.lookup(ctx, key, "details", &details) {
		return details, nil
	}

	details, err := c.svc.GetCompany(ctx, symbol)
	if err != nil {
		return details, err
	}
	c.store(ctx, key, details, detailsTTL)
	return details, nil
}

// GetCompanyGraph returns the forecast series, from cache when possible.
func (c *Companies) GetCompanyGraph(ctx context.Context, symbol string) ([]models.GraphPoint, error) {
	key := "company:" + symbol + ":graph"

	var series []models.GraphPoint
	if c.lookup(ctx, key, "graph", &series) {
		return series, nil
	}

	series, err := c.svc.GetCompanyGraph(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, series, graphTTL)
	return series, nil
}

// lookup reports a usable cache hit. Errors are logged and treated as
// misses; the backend stays the source of truth.
func (c *Companies) lookup(ctx context.Context, key, kind string, out interface{}) bool {
	if c.cache == nil {
		return false
	}
	hit, err := c.cache.GetJSON(ctx, key, out)
	if err != nil {
		logger.Log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if hit {
		metrics.CacheHits.WithLabelValues(kind).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(kind).Inc()
	return false
}

// store writes through to the cache, best-effort.
func (c *Companies) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetJSON(ctx, key, v, ttl); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
