package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/session"
	"github.com/pageza/recipeshare/backend/internal/types"
)

const (
	identityKey  = "identity"
	sessionIDKey = "session_id"
)

// SessionResolver turns a cookie token into a live session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// Session resolves the session cookie into a request identity. Requests
// without a valid session continue anonymously.
func Session(resolver SessionResolver, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				c.Error(apperror.Internal(err))
				c.Abort()
				return
			}
			logger.Debug("ignoring invalid session cookie",
				zap.String("request_id", c.GetString(RequestIDKey)))
			c.Next()
			return
		}

		id := sess.Identity()
		c.Set(identityKey, id)
		c.Set(sessionIDKey, sess.ID)
		c.Request = c.Request.WithContext(types.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireSession rejects requests that carry no valid session
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.Error(apperror.Unauthorized("login required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by Session
func CurrentIdentity(c *gin.Context) (types.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return types.Identity{}, false
	}
	id, ok := v.(types.Identity)
	return id, ok
}

// CurrentSessionID returns the id of the session resolved for this request
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
