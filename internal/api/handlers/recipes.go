package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/gorm"
)

type RecipesHandler struct {
	db *gorm.DB
}

func NewRecipesHandler(db *gorm.DB) *RecipesHandler {
	return &RecipesHandler{db: db}
}

func (h *RecipesHandler) findRecipe(r *http.Request, userID uuid.UUID) (*models.Recipe, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}

	var recipe models.Recipe
	err = h.db.WithContext(r.Context()).
		Preload("Ingredients").
		Preload("Video").
		Where("id = ? AND user_id = ?", id, userID).
		First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// List handles GET /api/v1/users/{user_id}/recipes, most recently updated
// first, with the video thumbnail folded into each summary.
func (h *RecipesHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	params := dto.PaginationParams{}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	params.Normalize()

	var total int64
	if err := h.db.WithContext(r.Context()).
		Model(&models.Recipe{}).
		Where("user_id = ?", user.ID).
		Count(&total).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Listing recipes failed")
		return
	}

	var recipes []models.Recipe
	err := h.db.WithContext(r.Context()).
		Preload("Video").
		Where("user_id = ?", user.ID).
		Order("updated_at DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&recipes).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Listing recipes failed")
		return
	}

	summaries := make([]dto.RecipeSummary, 0, len(recipes))
	for _, recipe := range recipes {
		summary := dto.RecipeSummary{
			ID:        recipe.ID,
			Name:      recipe.Name,
			CreatedAt: recipe.CreatedAt,
			UpdatedAt: recipe.UpdatedAt,
		}
		if recipe.Video != nil {
			summary.ThumbnailURL = recipe.Video.ThumbnailURL
		}
		summaries = append(summaries, summary)
	}

	writeJSON(w, http.StatusOK, dto.RecipeListResponse{
		Recipes:     summaries,
		RecipeCount: total,
		Page:        params.Page,
		PerPage:     params.PerPage,
	})
}

// Show handles GET /api/v1/users/{user_id}/recipes/{id}.
func (h *RecipesHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	recipe, err := h.findRecipe(r, user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Recipe not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.RecipeResponse{Recipe: recipe})
}

// Create handles POST /api/v1/users/{user_id}/recipes with nested
// ingredients and an optional video.
func (h *RecipesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	var req dto.RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Creating recipe failed", Details: errs})
		return
	}

	recipe := models.Recipe{
		UserID: user.ID,
		Name:   req.Name,
		Notes:  req.Notes,
	}

	err := h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}

		for _, params := range req.Ingredients {
			if params.Destroy {
				continue
			}
			ing := newIngredient(recipe.ID, params)
			if err := tx.Create(&ing).Error; err != nil {
				return err
			}
			recipe.Ingredients = append(recipe.Ingredients, ing)
		}

		if req.Video != nil && !req.Video.Destroy {
			video := &models.Video{RecipeID: recipe.ID}
			applyVideoParams(video, *req.Video)
			if err := tx.Create(video).Error; err != nil {
				return err
			}
			recipe.Video = video
		}

		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Creating recipe failed")
		return
	}

	writeJSON(w, http.StatusCreated, dto.RecipeResponse{
		Message: "Recipe created",
		Recipe:  &recipe,
	})
}

// Update handles PUT /api/v1/users/{user_id}/recipes/{id}. Nested
// ingredients upsert by id; a _destroy flag removes the identified row.
func (h *RecipesHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	recipe, err := h.findRecipe(r, user.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Recipe not found")
		return
	}

	var req dto.RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Updating recipe failed", Details: errs})
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Updates(map[string]interface{}{
			"name":  req.Name,
			"notes": req.Notes,
		}).Error; err != nil {
			return err
		}

		for _, params := range req.Ingredients {
			switch {
			case params.ID != nil && params.Destroy:
				if err := tx.Where("id = ? AND recipe_id = ?", *params.ID, recipe.ID).
					Delete(&models.Ingredient{}).Error; err != nil {
					return err
				}
			case params.ID != nil:
				if err := tx.Model(&models.Ingredient{}).
					Where("id = ? AND recipe_id = ?", *params.ID, recipe.ID).
					Updates(map[string]interface{}{
						"name":     params.Name,
						"quantity": params.Quantity,
						"unit":     params.Unit,
						"category": ingredientCategory(params.Category),
					}).Error; err != nil {
					return err
				}
			case !params.Destroy:
				ing := newIngredient(recipe.ID, params)
				if err := tx.Create(&ing).Error; err != nil {
					return err
				}
			}
		}

		if req.Video != nil {
			switch {
			case req.Video.Destroy:
				if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Video{}).Error; err != nil {
					return err
				}
			case recipe.Video != nil:
				applyVideoParams(recipe.Video, *req.Video)
				if err := tx.Save(recipe.Video).Error; err != nil {
					return err
				}
			default:
				video := &models.Video{RecipeID: recipe.ID}
				applyVideoParams(video, *req.Video)
				if err := tx.Create(video).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Updating recipe failed")
		return
	}

	updated, err := h.findRecipe(r, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Updating recipe failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.RecipeResponse{
		Message: "Recipe updated",
		Recipe:  updated,
	})
}

// Destroy handles DELETE /api/v1/users/{user_id}/recipes/{id} and removes
// the nested ingredients and video with the recipe.
func (h *RecipesHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	user, ok := requireOwner(w, r, "user_id")
	if !ok {
		return
	}

	recipe, err := h.findRecipe(r, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Deleting recipe failed")
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Video{}).Error; err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Deleting recipe failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Recipe deleted"})
}

func ingredientCategory(category string) string {
	if category == "" {
		return models.CategoryIngredient
	}
	return category
}

func newIngredient(recipeID uuid.UUID, params dto.IngredientParams) models.Ingredient {
	return models.Ingredient{
		RecipeID: recipeID,
		Name:     params.Name,
		Quantity: models.Quantity(params.Quantity),
		Unit:     params.Unit,
		Category: ingredientCategory(params.Category),
	}
}

func applyVideoParams(video *models.Video, params dto.VideoParams) {
	if params.VideoID != nil {
		video.VideoID = *params.VideoID
	}
	if params.Etag != nil {
		video.Etag = *params.Etag
	}
	if params.ThumbnailURL != nil {
		video.ThumbnailURL = *params.ThumbnailURL
	}
	if params.Status != nil {
		video.Status = models.VideoStatus(*params.Status)
	}
	if params.IsEmbeddable != nil {
		video.IsEmbeddable = *params.IsEmbeddable
	}
	if params.IsDeleted != nil {
		video.IsDeleted = *params.IsDeleted
	}
	if params.CachedAt != nil {
		video.CachedAt = params.CachedAt
	}
}
