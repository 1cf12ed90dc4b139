package models

import "time"

// Session is a server-side login session, used by the database session store
type Session struct {
	ID        string    `gorm:"type:varchar(36);primarykey"`
	UserID    uint      `gorm:"not null;index"`
	Email     string    `gorm:"size:120;not null"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

// All lists every model managed by auto-migration, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Recipe{},
		&SavedRecipe{},
		&LikedRecipe{},
		&Session{},
	}
}
