package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe представляет рецепт/технологическую карту партии
type Recipe struct {
	ID        string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null;index"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	Items     []RecipeItem   `json:"items" gorm:"foreignKey:RecipeID"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы
func (Recipe) TableName() string {
	return "recipes"
}

// BeforeCreate генерирует UUID
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// RecipeItem представляет ингредиент в рецепте: расход сырья на одну партию
type RecipeItem struct {
	ID               string      `json:"id" gorm:"type:uuid;primaryKey"`
	RecipeID         string      `json:"recipe_id" gorm:"type:uuid;not null;index"`
	IngredientID     string      `json:"ingredient_id" gorm:"type:uuid;not null;index"`
	Ingredient       *Ingredient `json:"ingredient,omitempty" gorm:"foreignKey:IngredientID"`
	QuantityPerBatch float64     `json:"quantity_per_batch" gorm:"type:decimal(10,4);not null"`
	CreatedAt        time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы
func (RecipeItem) TableName() string {
	return "recipe_items"
}

// BeforeCreate генерирует UUID
func (ri *RecipeItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == "" {
		ri.ID = uuid.New().String()
	}
	return nil
}

// ProductRecipeLink представляет явную связку товар-рецепт
// с реальным выходом готовых единиц с одной партии
// Если связка есть — ее выход авторитетен и перекрывает эвристику по имени
type ProductRecipeLink struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID     string    `json:"product_id" gorm:"type:uuid;not null;uniqueIndex"`
	Product       *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	RecipeID      string    `json:"recipe_id" gorm:"type:uuid;not null;index"`
	Recipe        *Recipe   `json:"recipe,omitempty" gorm:"foreignKey:RecipeID"`
	UnitsPerBatch float64   `json:"units_per_batch" gorm:"type:decimal(10,2);not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы
func (ProductRecipeLink) TableName() string {
	return "product_recipe_links"
}

// BeforeCreate генерирует UUID
func (prl *ProductRecipeLink) BeforeCreate(tx *gorm.DB) error {
	if prl.ID == "" {
		prl.ID = uuid.New().String()
	}
	return nil
}
