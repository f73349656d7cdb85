package services

import (
	"fmt"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"

	"gorm.io/gorm"
)

// CatalogService читает каталог готовой продукции из БД
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// GetActiveProducts возвращает активные товары с остатками готовой продукции
func (s *CatalogService) GetActiveProducts() ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Where("is_active = ?", true).
		Order("category, name").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки каталога: %w", err)
	}
	return products, nil
}
