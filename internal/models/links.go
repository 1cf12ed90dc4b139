package models

import "time"

// SavedRecipe records that a user bookmarked a recipe
type SavedRecipe struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RecipeID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

// LikedRecipe records that a user liked a recipe. The number of rows per
// recipe always equals Recipe.Likes.
type LikedRecipe struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	RecipeID  uint `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}
