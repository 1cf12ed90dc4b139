// Package session keeps server-side login sessions and the signed cookie
// tokens that reference them.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/pageza/recipeshare/backend/internal/types"
)

// ErrNoSession is returned when a session is missing, expired or revoked
var ErrNoSession = errors.New("no active session")

// Session is a server-held login record
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity returns the caller identity the session represents
func (s *Session) Identity() types.Identity {
	return types.Identity{UserID: s.UserID, Email: s.Email}
}

// Store persists sessions by ID
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrNoSession for unknown or expired sessions
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
