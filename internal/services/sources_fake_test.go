package services

import (
	"sync"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// In-memory фейки источников данных для тестов движка

type fakeScheduleSource struct {
	mu        sync.Mutex
	schedules []models.ClientSchedule
	details   map[string]*models.ScheduleOrderDetail
	err       error
	detailErr error
	getCalls  int
}

func (f *fakeScheduleSource) GetSchedules() ([]models.ClientSchedule, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.schedules, nil
}

func (f *fakeScheduleSource) GetOrderDetail(scheduleID string) (*models.ScheduleOrderDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[scheduleID], nil
}

type fakeCatalogSource struct {
	products []models.Product
	err      error
}

func (f *fakeCatalogSource) GetActiveProducts() ([]models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

type fakeProportionSource struct {
	table []models.ProportionSetting
	err   error
}

func (f *fakeProportionSource) GetProportionTable() ([]models.ProportionSetting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeProportionSource) HasProportions() (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return len(f.table) > 0, nil
}

type fakeRecipeSource struct {
	recipes []models.Recipe
	links   []models.ProductRecipeLink
	err     error
}

func (f *fakeRecipeSource) GetRecipes() ([]models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.recipes, nil
}

func (f *fakeRecipeSource) GetYieldLinks() ([]models.ProductRecipeLink, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.links, nil
}

type fakeIngredientSource struct {
	ingredients []models.Ingredient
	err         error
}

func (f *fakeIngredientSource) GetIngredients() ([]models.Ingredient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ingredients, nil
}

// newTestEngine собирает движок над фейками: чанк 50, без пауз, кэш 10, выход 40
func newTestEngine(
	schedules *fakeScheduleSource,
	catalog *fakeCatalogSource,
	proportions *fakeProportionSource,
	recipes *fakeRecipeSource,
	ingredients *fakeIngredientSource,
) *ProcurementEngineService {
	return NewProcurementEngineService(
		schedules,
		catalog,
		proportions,
		recipes,
		ingredients,
		NewBatchRunner(50, 0),
		NewResultCache(10),
		nil,
		40,
	)
}

func mustDate(t string) time.Time {
	parsed, err := time.Parse("2006-01-02", t)
	if err != nil {
		panic(err)
	}
	return parsed
}

func activeProduct(name string, stock float64) models.Product {
	return models.Product{ID: "prod-" + name, Name: name, IsActive: true, CurrentStock: stock}
}

func scheduleFor(id, clientName string, date string, kind models.OrderKind, total float64) models.ClientSchedule {
	return models.ClientSchedule{
		ID:            id,
		ClientID:      "client-" + clientName,
		Client:        models.Client{ID: "client-" + clientName, Name: clientName, Status: models.ClientStatusActive},
		ScheduledDate: date,
		Status:        models.ScheduleStatusScheduled,
		OrderKind:     kind,
		TotalQuantity: total,
	}
}
