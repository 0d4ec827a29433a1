// Package session persists the bearer token and signed-in user used by the
// REST source.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hazyhaar/himnario/pkg/cache"
)

const (
	TokenKey = "himnario:auth:token"
	UserKey  = "himnario:auth:user"
)

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// User is the signed-in account.
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Store keeps credentials in a cache.Store under fixed keys.
type Store struct {
	kv cache.Store
}

func New(kv cache.Store) *Store {
	return &Store{kv: kv}
}

// Token returns the stored token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, TokenKey)
	if errors.Is(err, cache.ErrMiss) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(v), nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token must not be empty")
	}
	return s.kv.Set(ctx, TokenKey, []byte(token))
}

// User returns the stored user, or nil when none is stored or the stored
// value is unreadable.
func (s *Store) User(ctx context.Context) (*User, error) {
	v, err := s.kv.Get(ctx, UserKey)
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	var u User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) SetUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.kv.Set(ctx, UserKey, data)
}

// Clear removes both the token and the user.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(
		s.kv.Delete(ctx, TokenKey),
		s.kv.Delete(ctx, UserKey),
	)
}
