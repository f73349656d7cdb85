package services

import (
	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// Узкие читающие контракты движка расчета закупок.
// Движок не владеет персистентностью — он потребляет уже
// материализованные данные внешних модулей (планирование, каталог,
// технологи, склад). Каждый контракт реализован GORM-сервисом,
// в тестах подменяется in-memory фейком.

// ScheduleSource читает график пополнения клиентов
type ScheduleSource interface {
	// GetSchedules возвращает все актуальные записи графика (с клиентом и позициями)
	GetSchedules() ([]models.ClientSchedule, error)
	// GetOrderDetail возвращает детализированный заказ по записи графика,
	// nil без ошибки — если детализация не заполнена
	GetOrderDetail(scheduleID string) (*models.ScheduleOrderDetail, error)
}

// CatalogSource читает каталог готовой продукции
type CatalogSource interface {
	// GetActiveProducts возвращает активные товары вместе с остатками готовой продукции
	GetActiveProducts() ([]models.Product, error)
}

// ProportionSource читает таблицу пропорций стандартного заказа
type ProportionSource interface {
	GetProportionTable() ([]models.ProportionSetting, error)
	// HasProportions — быстрый признак "пропорции вообще настроены"
	HasProportions() (bool, error)
}

// RecipeSource читает рецепты и связки товар-рецепт
type RecipeSource interface {
	GetRecipes() ([]models.Recipe, error)
	GetYieldLinks() ([]models.ProductRecipeLink, error)
}

// IngredientSource читает сырье с остатками и средними ценами
type IngredientSource interface {
	GetIngredients() ([]models.Ingredient, error)
}
