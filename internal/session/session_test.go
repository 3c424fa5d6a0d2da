package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestStaticSource(t *testing.T) {
	src := NewStatic("opaque-token")
	if !src.LoggedIn() {
		t.Fatalf("expected logged in")
	}
	tok, err := src.Token()
	if err != nil || tok != "opaque-token" {
		t.Fatalf("unexpected token %q err=%v", tok, err)
	}

	empty := NewStatic("  ")
	if empty.LoggedIn() {
		t.Fatalf("expected logged out for empty token")
	}
	if _, err := empty.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestExpiredJWTIsRejected(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src := NewStatic(signed(t, now.Add(-time.Minute)))
	src.SetClock(func() time.Time { return now })
	if _, err := src.Token(); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	fresh := NewStatic(signed(t, now.Add(time.Hour)))
	fresh.SetClock(func() time.Time { return now })
	if _, err := fresh.Token(); err != nil {
		t.Fatalf("expected fresh token to pass, got %v", err)
	}
}

func TestFileSourceDistinguishesMissingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	src := NewFile(path)
	if src.LoggedIn() {
		t.Fatalf("expected logged out without a session file")
	}

	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !src.LoggedIn() {
		t.Fatalf("expected logged in once the session file exists")
	}
	if _, err := src.Token(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken for empty session file, got %v", err)
	}

	if err := src.SetToken("abc"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if tok, err := src.Token(); err != nil || tok != "abc" {
		t.Fatalf("unexpected token %q err=%v", tok, err)
	}
	if err := src.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if src.LoggedIn() {
		t.Fatalf("expected logged out after logout")
	}
}
