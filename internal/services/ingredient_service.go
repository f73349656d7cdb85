package services

import (
	"fmt"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"

	"gorm.io/gorm"
)

// IngredientService читает сырье с остатками и средними ценами из БД
type IngredientService struct {
	db *gorm.DB
}

// NewIngredientService создает новый экземпляр IngredientService
func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// GetIngredients возвращает все сырье
func (s *IngredientService) GetIngredients() ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.Order("name").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки сырья: %w", err)
	}
	return ingredients, nil
}
