package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("authentication token not found")
	ErrTokenExpired = errors.New("authentication token expired")
)

// Source supplies the bearer token for generate requests. A session is
// "logged in" when a token was configured or the token file exists; the
// token itself is read lazily so a login in another process is picked up.
type Source struct {
	mu       sync.Mutex
	token    string
	path     string
	loggedIn bool
	now      func() time.Time
}

func NewStatic(token string) *Source {
	token = strings.TrimSpace(token)
	return &Source{token: token, loggedIn: token != "", now: time.Now}
}

func NewFile(path string) *Source {
	return &Source{path: path, now: time.Now}
}

// SetClock replaces the clock used for expiry checks.
func (s *Source) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Source) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		_, err := os.Stat(s.path)
		return err == nil
	}
	return s.loggedIn
}

func (s *Source) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := s.token
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return "", ErrNoToken
	}
	if Expired(token, s.now()) {
		return "", ErrTokenExpired
	}
	return token, nil
}

// SetToken replaces the in-memory token and marks the session logged in.
// File-backed sources write the token through to disk.
func (s *Source) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token = strings.TrimSpace(token)
	if s.path != "" {
		if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
			return fmt.Errorf("write token file: %w", err)
		}
		return nil
	}
	s.token = token
	s.loggedIn = true
	return nil
}

func (s *Source) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.loggedIn = false
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove token file: %w", err)
		}
	}
	return nil
}

// Expired reports whether token is a JWT whose exp claim is in the past.
// Opaque tokens are never considered expired; the service decides.
func Expired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
