package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Persisted keys. They are always written and cleared together.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Store owns the credential record: access token, refresh token and the
// cached user. It is safe for concurrent use when its Storage is.
//
// A Store without storage models a non-interactive context: reads report no
// session and writes are dropped.
type Store struct {
	storage Storage
}

// NewStore wraps storage. A nil storage yields an unavailable store.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Available reports whether credentials can be read or written at all.
func (s *Store) Available() bool {
	return s != nil && s.storage != nil
}

// AccessToken returns the stored access token.
func (s *Store) AccessToken() (string, bool) {
	return s.get(KeyAccessToken)
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken() (string, bool) {
	return s.get(KeyRefreshToken)
}

// SetTokens stores a new access token and, when refresh is non-empty, a new
// refresh token. An empty refresh keeps the one already stored.
func (s *Store) SetTokens(access, refresh string) error {
	if !s.Available() {
		return nil
	}
	if err := s.storage.Set(KeyAccessToken, access); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if refresh == "" {
		return nil
	}
	if err := s.storage.Set(KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// SetUser caches the user record.
func (s *Store) SetUser(user User) error {
	if !s.Available() {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.storage.Set(KeyUser, string(raw)); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// User returns the cached user record. A corrupt record reads as absent.
func (s *Store) User() (*User, bool) {
	raw, ok := s.get(KeyUser)
	if !ok {
		return nil, false
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// Clear removes the whole credential record. It is idempotent.
func (s *Store) Clear() error {
	if !s.Available() {
		return nil
	}
	if err := s.storage.Delete(KeyAccessToken, KeyRefreshToken, KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is stored and its exp claim
// lies after now. The signature is not verified; the backend does that.
func (s *Store) IsAuthenticated(now time.Time) bool {
	token, ok := s.AccessToken()
	if !ok {
		return false
	}
	exp, err := tokenExpiry(token)
	if err != nil || exp.IsZero() {
		return false
	}
	return exp.After(now)
}

// HasRole reports whether the cached user holds the named role.
func (s *Store) HasRole(name string) bool {
	user, ok := s.User()
	return ok && user.HasRole(name)
}

// IsAdmin reports whether the cached user is an administrator.
func (s *Store) IsAdmin() bool {
	user, ok := s.User()
	return ok && user.IsAdmin()
}

func (s *Store) get(key string) (string, bool) {
	if !s.Available() {
		return "", false
	}
	v, ok := s.storage.Get(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}
