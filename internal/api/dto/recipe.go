package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/api/validation"
	"github.com/yuta/recipe-box/internal/database/models"
)

type IngredientParams struct {
	ID       *uuid.UUID `json:"id,omitempty"`
	Name     string     `json:"name"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
	Category string     `json:"category"`
	Destroy  bool       `json:"_destroy,omitempty"`
}

type VideoParams struct {
	VideoID      *string    `json:"video_id,omitempty"`
	Etag         *string    `json:"etag,omitempty"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty"`
	Status       *string    `json:"status,omitempty"`
	IsEmbeddable *bool      `json:"is_embeddable,omitempty"`
	IsDeleted    *bool      `json:"is_deleted,omitempty"`
	CachedAt     *time.Time `json:"cached_at,omitempty"`
	Destroy      bool       `json:"_destroy,omitempty"`
}

type RecipeRequest struct {
	Name        string             `json:"name"`
	Notes       string             `json:"notes"`
	Ingredients []IngredientParams `json:"ingredients,omitempty"`
	Video       *VideoParams       `json:"video,omitempty"`
}

func (r RecipeRequest) Validate() map[string]string {
	errors := make(map[string]string)

	name := validation.SanitizeString(r.Name)
	if name == "" {
		errors["name"] = "Recipe name is required"
	} else if len([]rune(name)) > models.RecipeNameMaxLength {
		errors["name"] = "Recipe name must be at most 100 characters"
	}

	for _, ing := range r.Ingredients {
		if ing.Destroy {
			continue
		}
		if ing.Category != "" && ing.Category != models.CategoryIngredient && ing.Category != models.CategorySeasoning {
			errors["ingredients"] = "Ingredient category must be ingredient or seasoning"
		}
	}

	if r.Video != nil && r.Video.Status != nil {
		switch models.VideoStatus(*r.Video.Status) {
		case models.VideoStatusPublic, models.VideoStatusPrivate, models.VideoStatusUnlisted:
		default:
			errors["video"] = "Video status must be public, private or unlisted"
		}
	}

	return errors
}

type RecipeSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

type RecipeListResponse struct {
	Recipes     []RecipeSummary `json:"recipes"`
	RecipeCount int64           `json:"recipe_count"`
	Page        int             `json:"page"`
	PerPage     int             `json:"per_page"`
}

type RecipeResponse struct {
	Message string         `json:"message,omitempty"`
	Recipe  *models.Recipe `json:"recipe"`
}

type VideoUpdateRequest struct {
	Etag         *string    `json:"etag,omitempty"`
	Status       *string    `json:"status,omitempty"`
	IsEmbeddable *bool      `json:"is_embeddable,omitempty"`
	IsDeleted    *bool      `json:"is_deleted,omitempty"`
	CachedAt     *time.Time `json:"cached_at,omitempty"`
}

func (r VideoUpdateRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Status != nil {
		switch models.VideoStatus(*r.Status) {
		case models.VideoStatusPublic, models.VideoStatusPrivate, models.VideoStatusUnlisted:
		default:
			errors["status"] = "Video status must be public, private or unlisted"
		}
	}

	return errors
}
