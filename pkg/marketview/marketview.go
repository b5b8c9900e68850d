// Package marketview assembles the render-ready market state for one
// selected trading date: the stock list, the index snapshot and the
// favorite marks, fetched concurrently and merged under a request token
// so a slow response for a superseded date can never overwrite fresher
// data.
package marketview

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/favorites"
	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/metrics"
	"github.com/nomixtrade/marketsync/pkg/models"
)

// Service is the slice of the backend gateway the view model needs.
type Service interface {
	ListStocks(ctx context.Context, targetDate time.Time) ([]models.Stock, error)
	GetIndexSnapshot(ctx context.Context, targetDate time.Time) (*models.IndexSnapshot, error)
}

// StockLoadState distinguishes "the backend has no rows for this date"
// from "the fetch failed", which render very differently.
type StockLoadState int

const (
	// StocksPending means no refresh has completed for the current date yet.
	StocksPending StockLoadState = iota
	// StocksLoaded means the fetch succeeded with at least one row.
	StocksLoaded
	// StocksEmpty means the fetch succeeded but the date has no rows.
	StocksEmpty
	// StocksFailed means the fetch itself failed; Err carries the cause.
	StocksFailed
)

// View is an immutable snapshot of the assembled market state.
type View struct {
	Date   time.Time
	State  StockLoadState
	Err    error
	Stocks []models.Stock
	// Index is nil when the date has no snapshot or its fetch failed;
	// both render as a missing index card.
	Index *models.IndexSnapshot
}

// Row is one display line: a stock joined with its favorite mark and
// the forecast for the selected horizon.
type Row struct {
	models.Stock
	Favorite   bool
	Prediction float64
	Bullish    bool
}

// Model orchestrates the concurrent fetches and owns the merged view.
type Model struct {
	svc  Service
	favs *favorites.Store

	latest uint64 // most recently issued refresh token

	mu   sync.Mutex
	view View
}

// New creates a Model reading favorite marks from favs.
func New(svc Service, favs *favorites.Store) *Model {
	return &Model{svc: svc, favs: favs}
}

// Refresh fetches the stock list, index snapshot and favorites for one
// date concurrently and merges whatever still belongs to the newest
// request. The three fetches are independent: an index failure never
// aborts the stock fetch and vice versa. Refresh returns once all its
// fetches settle; the returned view may already belong to a newer
// Refresh when this one was superseded mid-flight.
func (m *Model) Refresh(ctx context.Context, targetDate time.Time) View {
	token := atomic.AddUint64(&m.latest, 1)
	metrics.RefreshCounter.Inc()

	m.mu.Lock()
	if token == atomic.LoadUint64(&m.latest) {
		m.view = View{Date: targetDate, State: StocksPending}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		stocks, err := m.svc.ListStocks(ctx, targetDate)
		m.applyStocks(token, stocks, err)
	}()

	go func() {
		defer wg.Done()
		snap, err := m.svc.GetIndexSnapshot(ctx, targetDate)
		if err != nil {
			// Optional resource: degrade to absent, keep the rest of the view.
			logger.Log.Warn("index snapshot fetch failed",
				zap.String("date", targetDate.Format(models.TradeDateLayout)), zap.Error(err))
			snap = nil
		}
		m.applyIndex(token, snap)
	}()

	go func() {
		defer wg.Done()
		// Favorites are keyed to the user, not the date; reloading on every
		// refresh keeps the marks honest after login changes.
		m.favs.Load(ctx)
	}()

	wg.Wait()
	return m.Snapshot()
}

// Snapshot returns the current merged view.
func (m *Model) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Rows joins the current stock list with favorite marks and the
// forecast values for a horizon, in fetch order.
func (m *Model) Rows(h Horizon) []Row {
	view := m.Snapshot()
	rows := make([]Row, 0, len(view.Stocks))
	for _, s := range view.Stocks {
		rows = append(rows, Row{
			Stock:      s,
			Favorite:   m.favs.IsFavorite(s.Symbol),
			Prediction: PredictionFor(s, h),
			Bullish:    IsBullish(s, h),
		})
	}
	return rows
}

// applyStocks merges a stock fetch result, unless a newer refresh has
// been issued since this one started.
func (m *Model) applyStocks(token uint64, stocks []models.Stock, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropStaleLocked(token) {
		return
	}
	switch {
	case err != nil:
		m.view.State = StocksFailed
		m.view.Err = err
		m.view.Stocks = nil
		logger.Log.Warn("stock list fetch failed", zap.Error(err))
	case len(stocks) == 0:
		m.view.State = StocksEmpty
		m.view.Err = nil
		m.view.Stocks = nil
	default:
		m.view.State = StocksLoaded
		m.view.Err = nil
		m.view.Stocks = stocks
	}
}

// applyIndex merges an index result under the same token rule.
func (m *Model) applyIndex(token uint64, snap *models.IndexSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropStaleLocked(token) {
		return
	}
	m.view.Index = snap
}

func (m *Model) dropStaleLocked(token uint64) bool {
	if token != atomic.LoadUint64(&m.latest) {
		metrics.StaleDropCounter.Inc()
		logger.Log.Debug("dropping stale response", zap.Uint64("token", token))
		return true
	}
	return false
}
