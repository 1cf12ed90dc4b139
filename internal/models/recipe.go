package models

import (
	"strings"
	"time"
)

// IngredientSeparator delimits ingredients in the stored text column
const IngredientSeparator = ","

// UploadsPath is the URL prefix under which stored images are served
const UploadsPath = "/uploads/"

// Recipe is a user-authored recipe. Ingredients are kept as delimited text
// and exposed as a list through RecipeResponse.
type Recipe struct {
	ID            uint      `gorm:"primarykey"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
	Title         string  `gorm:"size:100;not null"`
	Description   string  `gorm:"type:text;not null"`
	Ingredients   string  `gorm:"type:text;not null"`
	Instructions  string  `gorm:"type:text;not null"`
	ImageFilename *string `gorm:"size:255"`
	Likes         int     `gorm:"not null;default:0"`
	CreatorID     uint    `gorm:"not null;index"`
	Creator       User    `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
}

// RecipeResponse is the wire representation of a recipe
type RecipeResponse struct {
	ID            uint     `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Ingredients   []string `json:"ingredients"`
	Instructions  string   `json:"instructions"`
	ImageFilename *string  `json:"image_filename"`
	ImageURL      *string  `json:"image_url"`
	Likes         int      `json:"likes"`
	CreatedAt     string   `json:"created_at"`
	CreatorID     uint     `json:"creatorId"`
	CreatorEmail  string   `json:"creatorEmail"`
}

// ToResponse converts the recipe for the API. Creator must be loaded for
// creatorEmail to be populated.
func (r *Recipe) ToResponse() RecipeResponse {
	resp := RecipeResponse{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Ingredients:   SplitIngredients(r.Ingredients),
		Instructions:  r.Instructions,
		ImageFilename: r.ImageFilename,
		Likes:         r.Likes,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		CreatorID:     r.CreatorID,
		CreatorEmail:  r.Creator.Email,
	}
	if r.ImageFilename != nil && *r.ImageFilename != "" {
		url := UploadsPath + *r.ImageFilename
		resp.ImageURL = &url
	}
	return resp
}

// ToResponses converts a slice of recipes, never returning nil
func ToResponses(recipes []Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, recipes[i].ToResponse())
	}
	return out
}

// SplitIngredients splits stored ingredient text into trimmed, non-empty items
func SplitIngredients(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, IngredientSeparator) {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// NormalizeIngredients rewrites user input into the canonical stored form
func NormalizeIngredients(s string) string {
	return strings.Join(SplitIngredients(s), IngredientSeparator)
}
