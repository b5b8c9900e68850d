// Package favorites owns the favorited-symbol set for the active
// session. It is the single writer of that set: the view model and the
// rendering layer only ever read it or ask for a toggle.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nomixtrade/marketsync/pkg/logger"
	"github.com/nomixtrade/marketsync/pkg/metrics"
	"github.com/nomixtrade/marketsync/pkg/session"
)

// Service is the slice of the backend gateway this store needs.
type Service interface {
	ListFavorites(ctx context.Context, userID int64) ([]string, error)
	AddFavorite(ctx context.Context, userID int64, symbol string) error
	RemoveFavorite(ctx context.Context, userID int64, symbol string) error
}

// ErrUnauthenticated rejects a mutation attempted without a signed-in
// user. The surrounding UI prompts for login; the set is untouched.
var ErrUnauthenticated = errors.New("sign in required to manage favorites")

// ErrToggleInFlight rejects a toggle for a symbol whose previous toggle
// has not finished yet. Toggles of other symbols are unaffected.
var ErrToggleInFlight = errors.New("a toggle for this symbol is still pending")

// SyncError reports an optimistic update that could not be confirmed by
// the backend. The local set has already been rolled back when the
// caller sees it.
type SyncError struct {
	Symbol string
	Adding bool
	Err    error
}

func (e *SyncError) Error() string {
	action := "remove"
	if e.Adding {
		action = "add"
	}
	return fmt.Sprintf("could not %s favorite %s: %v", action, e.Symbol, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Store holds the favorite set, preserving the order symbols arrived in
// since that order is what gets rendered.
type Store struct {
	svc  Service
	sess *session.Context

	mu       sync.Mutex
	order    []string
	set      map[string]struct{}
	inflight map[string]struct{}
}

// New creates an empty Store bound to a gateway and session context.
func New(svc Service, sess *session.Context) *Store {
	return &Store{
		svc:      svc,
		sess:     sess,
		set:      make(map[string]struct{}),
		inflight: make(map[string]struct{}),
	}
}

// Load replaces the set with the backend's list for the current user.
// Guests get an empty set. A fetch failure also degrades to an empty
// set: the dashboard stays usable with zero favorites.
func (s *Store) Load(ctx context.Context) {
	cur := s.sess.Current()
	if !cur.LoggedIn() {
		s.replace(nil)
		return
	}

	symbols, err := s.svc.ListFavorites(ctx, cur.UserID)
	if err != nil {
		logger.Log.Warn("favorites load failed, starting empty",
			zap.Int64("user_id", cur.UserID), zap.Error(err))
		s.replace(nil)
		return
	}
	s.replace(symbols)
}

// IsFavorite reports membership for one symbol.
func (s *Store) IsFavorite(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.set[symbol]
	return ok
}

// Symbols returns the favorited symbols in arrival order.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Count returns the number of favorited symbols.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Toggle flips membership for symbol, optimistically: the local set
// changes before the backend call so the caller's next read is already
// correct. On backend failure the set is restored to its pre-toggle
// state and a SyncError is returned. It reports the membership the
// caller should display (post-toggle on success, pre-toggle on failure).
//
// A second toggle of the same symbol while one is pending is rejected
// with ErrToggleInFlight, so out-of-order responses can never overwrite
// a newer optimistic flip.
func (s *Store) Toggle(ctx context.Context, symbol string) (bool, error) {
	cur := s.sess.Current()
	if !cur.LoggedIn() {
		metrics.FavoriteToggles.WithLabelValues("toggle", "unauthenticated").Inc()
		return s.IsFavorite(symbol), ErrUnauthenticated
	}

	s.mu.Lock()
	if _, busy := s.inflight[symbol]; busy {
		s.mu.Unlock()
		return false, fmt.Errorf("%s: %w", symbol, ErrToggleInFlight)
	}
	_, wasFavorite := s.set[symbol]
	snapshot := make([]string, len(s.order))
	copy(snapshot, s.order)
	if wasFavorite {
		s.removeLocked(symbol)
	} else {
		s.addLocked(symbol)
	}
	s.inflight[symbol] = struct{}{}
	s.mu.Unlock()

	action := "add"
	var err error
	if wasFavorite {
		action = "remove"
		err = s.svc.RemoveFavorite(ctx, cur.UserID, symbol)
	} else {
		err = s.svc.AddFavorite(ctx, cur.UserID, symbol)
	}

	s.mu.Lock()
	delete(s.inflight, symbol)
	if err != nil {
		s.restoreLocked(snapshot)
	}
	s.mu.Unlock()

	if err != nil {
		metrics.FavoriteToggles.WithLabelValues(action, "error").Inc()
		metrics.FavoriteRollbacks.Inc()
		logger.Log.Warn("favorite sync failed, rolled back",
			zap.String("symbol", symbol), zap.String("action", action), zap.Error(err))
		return wasFavorite, &SyncError{Symbol: symbol, Adding: !wasFavorite, Err: err}
	}

	metrics.FavoriteToggles.WithLabelValues(action, "success").Inc()
	return !wasFavorite, nil
}

func (s *Store) addLocked(symbol string) {
	if _, ok := s.set[symbol]; ok {
		return
	}
	s.set[symbol] = struct{}{}
	s.order = append(s.order, symbol)
}

func (s *Store) removeLocked(symbol string) {
	if _, ok := s.set[symbol]; !ok {
		return
	}
	delete(s.set, symbol)
	for i, sym := range s.order {
		if sym == symbol {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) restoreLocked(order []string) {
	s.order = order
	s.set = make(map[string]struct{}, len(order))
	for _, sym := range order {
		s.set[sym] = struct{}{}
	}
}

// replace swaps in a fresh membership list, deduplicating while
// preserving the first occurrence's position.
func (s *Store) replace(symbols []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.set = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		if _, dup := s.set[sym]; dup {
			continue
		}
		s.set[sym] = struct{}{}
		s.order = append(s.order, sym)
	}
}
