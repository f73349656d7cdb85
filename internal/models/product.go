package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product представляет готовую продукцию из каталога
type Product struct {
	ID           string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Category     string         `json:"category" gorm:"type:varchar(255)"`
	CategoryID   string         `json:"category_id" gorm:"type:uuid;index"`
	Unit         string         `json:"unit" gorm:"type:varchar(20);default:'pcs'"`
	IsActive     bool           `json:"is_active" gorm:"default:true;index"`
	CurrentStock float64        `json:"current_stock" gorm:"type:decimal(10,2);default:0"` // Остаток готовой продукции
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы
func (Product) TableName() string {
	return "products"
}

// BeforeCreate генерирует UUID
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// ProportionSetting представляет строку таблицы пропорций:
// какой процент стандартного заказа приходится на товар
// Проценты нормализуются к 100 при расчете раскладки
type ProportionSetting struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	ProductName string    `json:"product_name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Percentage  float64   `json:"percentage" gorm:"type:decimal(5,2);not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы
func (ProportionSetting) TableName() string {
	return "proportion_settings"
}

// BeforeCreate генерирует UUID
func (ps *ProportionSetting) BeforeCreate(tx *gorm.DB) error {
	if ps.ID == "" {
		ps.ID = uuid.New().String()
	}
	return nil
}
