package models

import "github.com/google/uuid"

const RecipeNameMaxLength = 100

type Recipe struct {
	Base
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name   string    `gorm:"size:100;not null" json:"name"`
	Notes  string    `json:"notes"`

	// Relationships
	User        *User        `gorm:"foreignKey:UserID" json:"-"`
	Ingredients []Ingredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
	Video       *Video       `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"video,omitempty"`
}

func (Recipe) TableName() string {
	return "recipes"
}
