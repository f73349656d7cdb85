package services

import (
	"fmt"
	"math"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"

	"gorm.io/gorm"
)

// ProportionService читает таблицу пропорций стандартного заказа из БД
type ProportionService struct {
	db *gorm.DB
}

// NewProportionService создает новый экземпляр ProportionService
func NewProportionService(db *gorm.DB) *ProportionService {
	return &ProportionService{db: db}
}

// GetProportionTable возвращает все строки таблицы пропорций
func (s *ProportionService) GetProportionTable() ([]models.ProportionSetting, error) {
	var settings []models.ProportionSetting
	if err := s.db.Order("product_name").Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки таблицы пропорций: %w", err)
	}
	return settings, nil
}

// HasProportions проверяет, настроена ли хоть одна пропорция
func (s *ProportionService) HasProportions() (bool, error) {
	var count int64
	if err := s.db.Model(&models.ProportionSetting{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("ошибка проверки таблицы пропорций: %w", err)
	}
	return count > 0, nil
}

// SplitByProportions раскладывает общий объем стандартного заказа по товарам
// Проценты нормализуются к своей сумме (настройщики не всегда добивают ровно до 100),
// количества округляются до целых единиц продукции
func SplitByProportions(table []models.ProportionSetting, totalQuantity float64) map[string]float64 {
	split := make(map[string]float64)
	if totalQuantity <= 0 || len(table) == 0 {
		return split
	}

	percentSum := 0.0
	for _, row := range table {
		if row.Percentage > 0 {
			percentSum += row.Percentage
		}
	}
	if percentSum <= 0 {
		return split
	}

	for _, row := range table {
		if row.Percentage <= 0 {
			continue
		}
		split[row.ProductName] = math.Round(totalQuantity * row.Percentage / percentSum)
	}

	return split
}
