package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/middleware"
	"github.com/pageza/recipeshare/backend/internal/models"
	"github.com/pageza/recipeshare/backend/internal/service"
	"github.com/pageza/recipeshare/backend/internal/session"
	"github.com/pageza/recipeshare/backend/internal/types"
)

// SessionIssuer starts and ends login sessions
type SessionIssuer interface {
	Issue(ctx context.Context, id types.Identity) (string, *session.Session, error)
	Revoke(ctx context.Context, sessionID string) error
	Lifetime() time.Duration
}

// CookieOptions controls the session cookie
type CookieOptions struct {
	Name   string
	Secure bool
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler serves registration, login and session status
type AuthHandler struct {
	auth     service.IAuthService
	sessions SessionIssuer
	cookie   CookieOptions
}

func NewAuthHandler(auth service.IAuthService, sessions SessionIssuer, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		cookie:   cookie,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", middleware.RequireSession(), h.Logout)
		auth.GET("/status", h.Status)
	}
}

// Register creates an account and logs it in
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bodyError(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "User registered and logged in successfully!",
		"userId":    user.ID,
		"userEmail": user.Email,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bodyError(err))
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.startSession(c, user); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Logged in successfully!",
		"userId":    user.ID,
		"userEmail": user.Email,
	})
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), middleware.CurrentSessionID(c)); err != nil {
		c.Error(apperror.Internal(err))
		return
	}
	h.clearCookie(c)

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully!"})
}

func (h *AuthHandler) Status(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loggedIn":  true,
		"userId":    id.UserID,
		"userEmail": id.Email,
	})
}

// startSession replaces any session the request already carries
func (h *AuthHandler) startSession(c *gin.Context, user *models.User) error {
	ctx := c.Request.Context()
	if previous := middleware.CurrentSessionID(c); previous != "" {
		if err := h.sessions.Revoke(ctx, previous); err != nil {
			return apperror.Internal(err)
		}
	}

	token, _, err := h.sessions.Issue(ctx, types.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return apperror.Internal(err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.sessions.Lifetime().Seconds()), "/", "", h.cookie.Secure, true)
	return nil
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
