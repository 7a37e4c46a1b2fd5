// Package auth holds the authenticated session: who the active user is and
// which bearer token proves it. The session is created once at login (or
// loaded from client storage at start-up) and passed by reference to the
// chat, cache and API components.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fitnest/client/internal/config"
	"fitnest/client/internal/models"
	"fitnest/client/internal/storage"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotLoggedIn  = errors.New("auth: not logged in")
	ErrInvalidToken = errors.New("auth: token carries no user id")
)

// Session is the active identity.
type Session struct {
	UserID   int64
	Token    string
	Username string
}

// BearerToken lets a Session act as the API client's token source.
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Valid reports whether chat and cache operations may proceed.
func (s *Session) Valid() bool {
	return s != nil && s.UserID > 0 && s.Token != ""
}

// Authenticator is the part of the backend client login needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.LoginResponse, error)
}

// Login authenticates and persists token, user id and username.
func Login(ctx context.Context, a Authenticator, store storage.Store, username, password string) (*Session, error) {
	resp, err := a.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("auth: login returned no access token")
	}

	s := &Session{UserID: resp.UserID, Token: resp.AccessToken, Username: resp.Username}
	if s.UserID == 0 {
		id, err := UserIDFromToken(resp.AccessToken)
		if err != nil {
			return nil, err
		}
		s.UserID = id
	}
	if s.Username == "" {
		s.Username = username
	}

	if err := Save(ctx, store, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the session keys.
func Save(ctx context.Context, store storage.Store, s *Session) error {
	if err := store.Set(ctx, config.KeyToken, s.Token); err != nil {
		return fmt.Errorf("auth: save token: %w", err)
	}
	if err := store.Set(ctx, config.KeyUserID, strconv.FormatInt(s.UserID, 10)); err != nil {
		return fmt.Errorf("auth: save user id: %w", err)
	}
	if s.Username != "" {
		if err := store.Set(ctx, config.KeyUsername, s.Username); err != nil {
			return fmt.Errorf("auth: save username: %w", err)
		}
	}
	return nil
}

// Load restores the session from client storage. A stored token without a
// stored user id falls back to the token's id claim.
func Load(ctx context.Context, store storage.Store) (*Session, error) {
	token, err := store.Get(ctx, config.KeyToken)
	if err != nil {
		return nil, fmt.Errorf("auth: read token: %w", err)
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	rawID, err := store.Get(ctx, config.KeyUserID)
	if err != nil {
		return nil, fmt.Errorf("auth: read user id: %w", err)
	}
	var userID int64
	if rawID != "" {
		userID, err = strconv.ParseInt(rawID, 10, 64)
		if err != nil || userID <= 0 {
			return nil, fmt.Errorf("%w: stored user id %q", ErrNotLoggedIn, rawID)
		}
	} else {
		userID, err = UserIDFromToken(token)
		if err != nil {
			return nil, err
		}
	}

	username, err := store.Get(ctx, config.KeyUsername)
	if err != nil {
		return nil, fmt.Errorf("auth: read username: %w", err)
	}
	return &Session{UserID: userID, Token: token, Username: username}, nil
}

// Logout forgets the session.
func Logout(ctx context.Context, store storage.Store) error {
	for _, key := range []string{config.KeyToken, config.KeyUserID, config.KeyUsername} {
		if err := store.Remove(ctx, key); err != nil {
			return fmt.Errorf("auth: remove %s: %w", key, err)
		}
	}
	return nil
}

// UserIDFromToken reads the "id" claim without verifying the signature.
// The client cannot verify it anyway; the backend does on every request.
func UserIDFromToken(token string) (int64, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	for _, name := range []string{"id", "user_id"} {
		switch v := claims[name].(type) {
		case float64:
			if v > 0 {
				return int64(v), nil
			}
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, ErrInvalidToken
}
