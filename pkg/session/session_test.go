package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGuestByDefault(t *testing.T) {
	c := New("", "")
	if c.Current().LoggedIn() {
		t.Fatal("fresh context should be a guest session")
	}
}

func TestLoginLogoutLifecycle(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "session"), "test-key")

	if err := c.Login(42, "Ayesha"); err != nil {
		t.Fatalf("login: %v", err)
	}
	got := c.Current()
	if got.UserID != 42 || got.DisplayName != "Ayesha" {
		t.Errorf("Current = %+v; want user 42 / Ayesha", got)
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if c.Current().LoggedIn() {
		t.Error("session should be cleared after logout")
	}
	// Logout must be idempotent
	if err := c.Logout(); err != nil {
		t.Errorf("second logout: %v", err)
	}
}

func TestLoginRequiresUserID(t *testing.T) {
	c := New("", "")
	if err := c.Login(0, "nobody"); err == nil {
		t.Fatal("expected error for zero user id")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session")

	first := New(file, "test-key")
	if err := first.Login(7, "Bilal"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A new context with the same file and key sees the same identity.
	second := New(file, "test-key")
	if err := second.Restore(); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got := second.Current()
	if got.UserID != 7 || got.DisplayName != "Bilal" {
		t.Errorf("restored session = %+v; want user 7 / Bilal", got)
	}
}

func TestRestoreMissingFileIsGuest(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "absent"), "test-key")
	if err := c.Restore(); err != nil {
		t.Fatalf("missing file should not be an error, got %v", err)
	}
	if c.Current().LoggedIn() {
		t.Error("missing file should restore to guest")
	}
}

func TestRestoreRejectsTamperedToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session")

	c := New(file, "test-key")
	if err := c.Login(7, "Bilal"); err != nil {
		t.Fatalf("login: %v", err)
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read token: %v", err)
	}
	raw[len(raw)-1] ^= 0xff
	if err := os.WriteFile(file, raw, 0o600); err != nil {
		t.Fatalf("rewrite token: %v", err)
	}

	fresh := New(file, "test-key")
	if err := fresh.Restore(); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
	if fresh.Current().LoggedIn() {
		t.Error("tampered token must degrade to guest")
	}
}

func TestRestoreRejectsWrongKey(t *testing.T) {
	file := filepath.Join(t.TempDir(), "session")

	c := New(file, "key-one")
	if err := c.Login(9, "Sana"); err != nil {
		t.Fatalf("login: %v", err)
	}

	other := New(file, "key-two")
	if err := other.Restore(); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
	if other.Current().LoggedIn() {
		t.Error("session must stay guest after rejected restore")
	}
}
