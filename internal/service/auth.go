package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/apperror"
	"github.com/pageza/recipeshare/backend/internal/metrics"
	"github.com/pageza/recipeshare/backend/internal/models"
)

// ErrInvalidCredentials is the single message for every failed login
const ErrInvalidCredentials = "invalid email or password"

// Credentials are the fields accepted by register and login
type Credentials struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,max=72"`
}

// AuthService handles account registration and password verification
type AuthService struct {
	db         *gorm.DB
	bcryptCost int
	metrics    *metrics.Metrics
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, bcryptCost int, m *metrics.Metrics) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:         db,
		bcryptCost: bcryptCost,
		metrics:    m,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a bcrypt-hashed password
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	creds := Credentials{Email: normalizeEmail(email), Password: password}
	if err := validate.Struct(creds); err != nil {
		return nil, validationError(err)
	}

	if _, err := models.GetUserByEmail(ctx, s.db, creds.Email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Email:        creds.Email,
		PasswordHash: string(hash),
	}
	if err := models.CreateUser(ctx, s.db, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Internal(err)
	}

	s.metrics.UserRegistered()
	return user, nil
}

// Login verifies credentials. Unknown emails and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.BadRequest("email and password are required")
	}

	user, err := models.GetUserByEmail(ctx, s.db, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unauthorized(ErrInvalidCredentials)
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized(ErrInvalidCredentials)
	}
	return user, nil
}

// GetUserByID loads a user or returns NotFound
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := models.GetUser(ctx, s.db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return user, nil
}
