package models

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/google/uuid"
)

const (
	CategoryIngredient = "ingredient"
	CategorySeasoning  = "seasoning"
)

// Quantity is a decimal amount that renders as an integer when whole,
// so 2.0 serializes as 2 and 1.5 stays 1.5.
type Quantity float64

func (q Quantity) MarshalJSON() ([]byte, error) {
	f := float64(q)
	if f == math.Trunc(f) {
		return []byte(strconv.FormatInt(int64(f), 10)), nil
	}
	return json.Marshal(f)
}

type Ingredient struct {
	Base
	RecipeID uuid.UUID `gorm:"type:uuid;index;not null" json:"recipe_id"`
	Name     string    `gorm:"not null" json:"name"`
	Quantity Quantity  `gorm:"type:decimal(10,2)" json:"quantity"`
	Unit     string    `json:"unit"`
	Category string    `gorm:"default:'ingredient'" json:"category"` // ingredient, seasoning
}

func (Ingredient) TableName() string {
	return "ingredients"
}
