package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/recipeshare/backend/internal/types"
)

// Claims is the payload of a session cookie token. ID (jti) names the
// server-side session and Subject the user.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues, resolves and revokes sessions
type Manager struct {
	store    Store
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewManager creates a manager signing tokens with secret
func NewManager(store Store, secret string, lifetime time.Duration) *Manager {
	return &Manager{
		store:    store,
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime is how long an issued session stays valid
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue starts a session for id and returns the signed cookie token
func (m *Manager) Issue(ctx context.Context, id types.Identity) (string, *Session, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    id.UserID,
		Email:     id.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   strconv.FormatUint(uint64(sess.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, sess, nil
}

// Resolve validates a cookie token and loads its session. Any invalid,
// tampered, expired or revoked token yields ErrNoSession.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, ErrNoSession
	}

	sess, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if claims.Subject != strconv.FormatUint(uint64(sess.UserID), 10) {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Revoke ends the session with the given ID
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
