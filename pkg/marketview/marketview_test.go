package marketview

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nomixtrade/marketsync/pkg/favorites"
	"github.com/nomixtrade/marketsync/pkg/models"
	"github.com/nomixtrade/marketsync/pkg/session"
)

type fakeService struct {
	mu        sync.Mutex
	stocks    map[string][]models.Stock
	stocksErr error
	index     map[string]*models.IndexSnapshot
	indexErr  error
	// gates block ListStocks for a date until closed.
	gates map[string]chan struct{}
	// calls receives the date of every ListStocks call.
	calls chan string
}

func (f *fakeService) ListStocks(ctx context.Context, targetDate time.Time) ([]models.Stock, error) {
	key := targetDate.Format(models.TradeDateLayout)
	f.mu.Lock()
	gate := f.gates[key]
	f.mu.Unlock()
	if f.calls != nil {
		f.calls <- key
	}
	if gate != nil {
		<-gate
	}
	if f.stocksErr != nil {
		return nil, f.stocksErr
	}
	return f.stocks[key], nil
}

func (f *fakeService) GetIndexSnapshot(ctx context.Context, targetDate time.Time) (*models.IndexSnapshot, error) {
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	return f.index[targetDate.Format(models.TradeDateLayout)], nil
}

type fakeFavService struct {
	listed []string
}

func (f *fakeFavService) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	return f.listed, nil
}
func (f *fakeFavService) AddFavorite(ctx context.Context, userID int64, symbol string) error {
	return nil
}
func (f *fakeFavService) RemoveFavorite(ctx context.Context, userID int64, symbol string) error {
	return nil
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.TradeDateLayout, s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func guestModel(svc Service) *Model {
	return New(svc, favorites.New(&fakeFavService{}, session.New("", "")))
}

func TestRefreshLoaded(t *testing.T) {
	day := "2024-01-05"
	svc := &fakeService{
		stocks: map[string][]models.Stock{
			day: {{Symbol: "ENGRO", Name: "Engro Corp", Last: 310, Open: 300}},
		},
		index: map[string]*models.IndexSnapshot{
			day: {Current: 11500, Date: day},
		},
	}
	m := guestModel(svc)

	view := m.Refresh(context.Background(), date(t, day))
	if view.State != StocksLoaded {
		t.Fatalf("State = %v; want StocksLoaded", view.State)
	}
	if len(view.Stocks) != 1 || view.Stocks[0].Symbol != "ENGRO" {
		t.Errorf("Stocks = %+v; want the fetched ENGRO row", view.Stocks)
	}
	if view.Index == nil || view.Index.Current != 11500 {
		t.Errorf("Index = %+v; want the fetched snapshot", view.Index)
	}
}

func TestRefreshDistinguishesEmptyFromFailed(t *testing.T) {
	day := date(t, "2024-01-05")

	empty := guestModel(&fakeService{stocks: map[string][]models.Stock{}})
	view := empty.Refresh(context.Background(), day)
	if view.State != StocksEmpty || view.Err != nil {
		t.Errorf("empty result: State = %v, Err = %v; want StocksEmpty with nil Err", view.State, view.Err)
	}

	failed := guestModel(&fakeService{stocksErr: fmt.Errorf("connection refused")})
	view = failed.Refresh(context.Background(), day)
	if view.State != StocksFailed {
		t.Errorf("failed fetch: State = %v; want StocksFailed", view.State)
	}
	if view.Err == nil {
		t.Error("failed fetch must carry its error in the view")
	}
}

func TestRefreshIndexAbsentIsNotAnError(t *testing.T) {
	day := "2024-01-05"
	svc := &fakeService{
		stocks: map[string][]models.Stock{day: {{Symbol: "SYS", Name: "Systems Ltd", Last: 400, Open: 390}}},
		// No index entry for the date: the gateway reports (nil, nil).
	}
	m := guestModel(svc)

	view := m.Refresh(context.Background(), date(t, day))
	if view.Index != nil {
		t.Error("missing index data must surface as an absent snapshot")
	}
	if view.State != StocksLoaded {
		t.Errorf("State = %v; stocks must load independently of the index", view.State)
	}
}

func TestRefreshIndexFailureDegradesToAbsent(t *testing.T) {
	day := "2024-01-05"
	svc := &fakeService{
		stocks:   map[string][]models.Stock{day: {{Symbol: "SYS", Name: "Systems Ltd", Last: 400, Open: 390}}},
		indexErr: fmt.Errorf("timeout"),
	}
	m := guestModel(svc)

	view := m.Refresh(context.Background(), date(t, day))
	if view.Index != nil {
		t.Error("index fetch failure must degrade to an absent snapshot")
	}
	if view.State != StocksLoaded || view.Err != nil {
		t.Errorf("stock load must be unaffected, got State=%v Err=%v", view.State, view.Err)
	}
}

func TestStaleRefreshIsDropped(t *testing.T) {
	day1, day2 := "2024-01-01", "2024-01-02"
	gate := make(chan struct{})
	svc := &fakeService{
		stocks: map[string][]models.Stock{
			day1: {{Symbol: "OLD", Name: "Old Rows", Last: 1, Open: 1}},
			day2: {{Symbol: "NEW", Name: "New Rows", Last: 2, Open: 1}},
		},
		gates: map[string]chan struct{}{day1: gate},
		calls: make(chan string, 4),
	}
	m := guestModel(svc)

	first := make(chan View, 1)
	go func() {
		first <- m.Refresh(context.Background(), date(t, day1))
	}()

	// Wait until the first refresh is actually in flight.
	select {
	case got := <-svc.calls:
		if got != day1 {
			t.Fatalf("unexpected first call for %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never reached the service")
	}

	// A newer date supersedes the in-flight request.
	view := m.Refresh(context.Background(), date(t, day2))
	if len(view.Stocks) != 1 || view.Stocks[0].Symbol != "NEW" {
		t.Fatalf("second refresh view = %+v; want the new date's rows", view.Stocks)
	}
	<-svc.calls // drain the day2 call record

	// Release the stale response; it must be discarded, not merged.
	close(gate)
	<-first

	final := m.Snapshot()
	if final.Date.Format(models.TradeDateLayout) != day2 {
		t.Errorf("final view date = %v; want %s", final.Date, day2)
	}
	if len(final.Stocks) != 1 || final.Stocks[0].Symbol != "NEW" {
		t.Errorf("final view stocks = %+v; stale rows leaked in", final.Stocks)
	}
}

func TestRowsMergeFavorites(t *testing.T) {
	day := "2024-01-05"
	svc := &fakeService{
		stocks: map[string][]models.Stock{day: {
			{Symbol: "ENGRO", Name: "Engro Corp", Last: 300, Open: 290, Pred1: 305},
			{Symbol: "SYS", Name: "Systems Ltd", Last: 400, Open: 410, Pred1: 390},
		}},
	}
	sess := session.New("", "")
	if err := sess.Login(1, "tester"); err != nil {
		t.Fatalf("login: %v", err)
	}
	favs := favorites.New(&fakeFavService{listed: []string{"SYS"}}, sess)
	m := New(svc, favs)

	m.Refresh(context.Background(), date(t, day))
	rows := m.Rows(HorizonDay)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d; want 2", len(rows))
	}
	if rows[0].Favorite || !rows[1].Favorite {
		t.Errorf("favorite marks = %v/%v; want only SYS marked", rows[0].Favorite, rows[1].Favorite)
	}
	if !rows[0].Bullish || rows[1].Bullish {
		t.Errorf("bullish flags = %v/%v; want ENGRO bullish, SYS bearish", rows[0].Bullish, rows[1].Bullish)
	}
	if rows[0].Prediction != 305 {
		t.Errorf("ENGRO prediction = %v; want 305", rows[0].Prediction)
	}
}
