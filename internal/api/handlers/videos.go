package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yuta/recipe-box/internal/api/dto"
	"github.com/yuta/recipe-box/internal/api/middleware"
	"github.com/yuta/recipe-box/internal/database/models"
	"gorm.io/gorm"
)

type VideosHandler struct {
	db *gorm.DB
}

func NewVideosHandler(db *gorm.DB) *VideosHandler {
	return &VideosHandler{db: db}
}

// Update handles PUT /api/v1/videos/{id}. The video is addressed directly,
// so ownership is resolved through its recipe.
func (h *VideosHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}

	var video models.Video
	if err := h.db.WithContext(r.Context()).First(&video, "id = ?", id).Error; err != nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}

	var recipe models.Recipe
	if err := h.db.WithContext(r.Context()).First(&recipe, "id = ?", video.RecipeID).Error; err != nil {
		writeError(w, http.StatusNotFound, "Video not found")
		return
	}
	if recipe.UserID != user.ID {
		writeError(w, http.StatusForbidden, forbiddenMessage)
		return
	}

	var req dto.VideoUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Updating video failed", Details: errs})
		return
	}

	applyVideoParams(&video, dto.VideoParams{
		Etag:         req.Etag,
		Status:       req.Status,
		IsEmbeddable: req.IsEmbeddable,
		IsDeleted:    req.IsDeleted,
		CachedAt:     req.CachedAt,
	})

	if err := h.db.WithContext(r.Context()).Save(&video).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "Updating video failed")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string        `json:"message"`
		Video   *models.Video `json:"video"`
	}{
		Message: "Video updated",
		Video:   &video,
	})
}
