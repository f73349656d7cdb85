package services

import (
	"fmt"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"

	"gorm.io/gorm"
)

// RecipeService читает рецепты и связки товар-рецепт из БД
type RecipeService struct {
	db *gorm.DB
}

// NewRecipeService создает новый экземпляр RecipeService
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// GetRecipes возвращает активные рецепты с позициями
// Рецепт без позиций тоже возвращается: движок обязан показать его
// как проблему настройки, а не молча пропустить
func (s *RecipeService) GetRecipes() ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.Where("is_active = ?", true).
		Preload("Items").
		Order("name").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки рецептов: %w", err)
	}
	return recipes, nil
}

// GetYieldLinks возвращает все связки товар-рецепт с реальным выходом
func (s *RecipeService) GetYieldLinks() ([]models.ProductRecipeLink, error) {
	var links []models.ProductRecipeLink
	if err := s.db.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки связок товар-рецепт: %w", err)
	}
	return links, nil
}
