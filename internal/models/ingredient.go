package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient представляет сырье с текущим остатком и средней ценой закупки
type Ingredient struct {
	ID              string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Unit            string         `json:"unit" gorm:"type:varchar(20);not null;default:'kg'"`
	AverageUnitCost float64        `json:"average_unit_cost" gorm:"type:decimal(10,2);default:0"`
	CurrentStock    float64        `json:"current_stock" gorm:"type:decimal(10,2);default:0"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы
func (Ingredient) TableName() string {
	return "ingredients"
}

// BeforeCreate генерирует UUID
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}
