package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/pageza/recipeshare/backend/internal/models"
)

// GormStore keeps sessions in the sessions table
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a database-backed store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Create(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).Create(&models.Session{
		ID:        sess.ID,
		UserID:    sess.UserID,
		Email:     sess.Email,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*Session, error) {
	var rec models.Session
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	if !s.now().Before(rec.ExpiresAt) {
		_ = s.Delete(ctx, id)
		return nil, ErrNoSession
	}

	return &Session{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired purges sessions past their expiry and returns how many were removed
func (s *GormStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
