package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoStatus string

const (
	VideoStatusPublic   VideoStatus = "public"
	VideoStatusPrivate  VideoStatus = "private"
	VideoStatusUnlisted VideoStatus = "unlisted"
)

type Video struct {
	Base
	RecipeID     uuid.UUID   `gorm:"type:uuid;uniqueIndex;not null" json:"recipe_id"`
	VideoID      string      `gorm:"index" json:"video_id"`
	Etag         string      `json:"etag"`
	ThumbnailURL string      `json:"thumbnail_url"`
	Status       VideoStatus `gorm:"default:'private'" json:"status"`
	IsEmbeddable bool        `gorm:"default:true" json:"is_embeddable"`
	IsDeleted    bool        `gorm:"default:false" json:"is_deleted"`
	CachedAt     *time.Time  `json:"cached_at"`
}

func (Video) TableName() string {
	return "videos"
}

// AfterSave bumps the owning recipe so list ordering reflects video updates.
func (v *Video) AfterSave(tx *gorm.DB) error {
	return tx.Model(&Recipe{}).
		Where("id = ?", v.RecipeID).
		UpdateColumn("updated_at", time.Now()).Error
}
