package models

// Выходные структуры движка расчета закупок
// Никогда не персистятся: это снимок одного расчета, кэшируемый целиком

// IgnoreReason представляет причину, по которой товар не попал в производство
type IgnoreReason string

const (
	IgnoreReasonNoYieldLink    IgnoreReason = "no_yield_link"             // Связка товар-рецепт битая (рецепт из связки не найден)
	IgnoreReasonNoRecipe       IgnoreReason = "no_recipe"                 // Рецепт не найден ни по связке, ни по имени
	IgnoreReasonEmptyRecipe    IgnoreReason = "recipe_has_no_ingredients" // Рецепт есть, но без ингредиентов
)

// YieldSource показывает, откуда взят выход с партии
type YieldSource string

const (
	YieldSourceReal     YieldSource = "real"     // Из настроенной связки товар-рецепт
	YieldSourceFallback YieldSource = "fallback" // Эвристика: рецепт по имени + дефолтный выход
)

// AuditItem представляет вклад одного клиента в спрос — след для трассировки
type AuditItem struct {
	ClientName          string             `json:"client_name"`
	ScheduleStatus      ScheduleStatus     `json:"schedule_status"`
	ScheduledDate       string             `json:"scheduled_date"`
	ClientStatus        ClientStatus       `json:"client_status"`
	QuantitiesByProduct map[string]float64 `json:"quantities_by_product"`
}

// IgnoredProduct представляет товар, который требовал производства,
// но не смог быть превращен в потребность по сырью
// Такие товары всегда показываются пользователю, молча не выбрасываются
type IgnoredProduct struct {
	ProductName    string       `json:"product_name"`
	NeededQuantity float64      `json:"needed_quantity"`
	Reason         IgnoreReason `json:"reason"`
}

// CalculationDetail представляет полный след расчета по одному товару
type CalculationDetail struct {
	ProductName     string      `json:"product_name"`
	NeededQuantity  float64     `json:"needed_quantity"`
	RecipeName      string      `json:"recipe_name"`
	RealYield       *float64    `json:"real_yield,omitempty"` // Выход из связки, если она была
	YieldUsed       float64     `json:"yield_used"`
	BatchesComputed int         `json:"batches_computed"`
	YieldSource     YieldSource `json:"yield_source"`
}

// IngredientNeed представляет итоговую строку потребности по сырью
type IngredientNeed struct {
	IngredientID  string  `json:"ingredient_id"`
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalNeeded   float64 `json:"total_needed"`
	CurrentStock  float64 `json:"current_stock"`
	QuantityToBuy float64 `json:"quantity_to_buy"` // max(0, total_needed - current_stock)
	AverageCost   float64 `json:"average_cost"`
	TotalCost     float64 `json:"total_cost"`
}

// CalculationSummary представляет сводку по расчету
type CalculationSummary struct {
	TotalProducts     int     `json:"total_products"`      // Товаров с положительным спросом
	TotalBatches      int     `json:"total_batches"`       // Партий суммарно по всем товарам
	TotalIngredients  int     `json:"total_ingredients"`   // Различных ингредиентов в потребности
	TotalPurchaseCost float64 `json:"total_purchase_cost"` // Общая стоимость закупки
	ProcessedProducts int     `json:"processed_products"`  // Товаров успешно обсчитано
	IgnoredProducts   int     `json:"ignored_products"`    // Товаров пропущено (см. ignored_products)
	CoveragePercent   float64 `json:"coverage_percent"`    // processed / (processed + ignored) * 100
}

// ProcurementResult представляет полный результат одного расчета закупок
type ProcurementResult struct {
	AuditItems         []AuditItem         `json:"audit_items"`
	IngredientNeeds    []IngredientNeed    `json:"ingredient_needs"`
	IgnoredProducts    []IgnoredProduct    `json:"ignored_products"`
	CalculationDetails []CalculationDetail `json:"calculation_details"`
	Summary            CalculationSummary  `json:"summary"`
}
