// Package session owns the process-wide identity state. Identity is
// established exactly once per successful login and cleared on logout;
// every other component re-reads Current() instead of caching it.
//
// The session survives restarts as a single signed token file, so the
// user id and display name are always persisted and cleared together —
// there is no state where one exists without the other.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is how long a persisted session stays valid without a new login.
const TTL = 30 * 24 * time.Hour

// Session is the current identity. The zero value is a guest.
type Session struct {
	UserID      int64
	DisplayName string
}

// LoggedIn reports whether a user identity is present.
func (s Session) LoggedIn() bool { return s.UserID != 0 }

// Context holds the active session and its persistence settings.
type Context struct {
	mu   sync.RWMutex
	cur  Session
	file string
	key  []byte
}

type claims struct {
	UserID      int64  `json:"uid"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// New creates a Context persisting to file, signed with key. An empty
// file or key disables persistence; the session then lives in memory only.
func New(file, key string) *Context {
	c := &Context{file: file}
	if key != "" {
		c.key = []byte(key)
	}
	return c
}

// Restore loads a previously persisted session. A missing file is a
// guest session, not an error. A token that fails validation (tampered,
// expired, wrong key) also degrades to guest and reports why.
func (c *Context) Restore() error {
	if c.file == "" || c.key == nil {
		return nil
	}
	raw, err := os.ReadFile(c.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading session file: %w", err)
	}

	var cl claims
	token, err := jwt.ParseWithClaims(string(raw), &cl, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("persisted session rejected: %v", err)
	}

	c.mu.Lock()
	c.cur = Session{UserID: cl.UserID, DisplayName: cl.DisplayName}
	c.mu.Unlock()
	return nil
}

// Login establishes the identity and persists it. Call once per
// successful authentication.
func (c *Context) Login(userID int64, displayName string) error {
	if userID == 0 {
		return fmt.Errorf("login requires a user id")
	}
	c.mu.Lock()
	c.cur = Session{UserID: userID, DisplayName: displayName}
	c.mu.Unlock()
	return c.persist(userID, displayName)
}

// Logout clears the identity and removes the persisted token. Idempotent.
func (c *Context) Logout() error {
	c.mu.Lock()
	c.cur = Session{}
	c.mu.Unlock()

	if c.file == "" {
		return nil
	}
	if err := os.Remove(c.file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// Current returns the active session. The zero Session means guest.
func (c *Context) Current() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur
}

// persist writes the signed token atomically, so a crash mid-write can
// never leave a half-formed session on disk.
func (c *Context) persist(userID int64, displayName string) error {
	if c.file == "" || c.key == nil {
		return nil
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:      userID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
		},
	})
	signed, err := token.SignedString(c.key)
	if err != nil {
		return fmt.Errorf("signing session token: %w", err)
	}

	dir := filepath.Dir(c.file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp := c.file + ".tmp"
	if err := os.WriteFile(tmp, []byte(signed), 0o600); err != nil {
		return fmt.Errorf("writing session token: %w", err)
	}
	if err := os.Rename(tmp, c.file); err != nil {
		return fmt.Errorf("replacing session token: %w", err)
	}
	return nil
}
