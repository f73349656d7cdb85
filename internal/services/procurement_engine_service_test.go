package services

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// pipelineFixture — сквозной сценарий пекарни:
//   - Store Alpha заказывает стандартные 70, пропорции 60/40 дают Cake 42 и Muffin 28
//   - Store Beta заказывает индивидуально: Brownie 110 и Cookie 10
//   - Cake покрыт остатком (100 на складе) и в производство не попадает
//   - Muffin без рецепта — пропускается с причиной
//   - Brownie считается по рецепту-тезке с дефолтным выходом 40
//   - Cookie считается по связке с реальным выходом 55 (тезка-рецепт игнорируется)
func pipelineFixture() (*fakeScheduleSource, *fakeCatalogSource, *fakeProportionSource, *fakeRecipeSource, *fakeIngredientSource) {
	alpha := scheduleFor("s1", "Store Alpha", "2026-01-10", models.OrderKindStandard, 70)
	beta := scheduleFor("s2", "Store Beta", "2026-01-12", models.OrderKindCustomized, 0)

	schedules := &fakeScheduleSource{
		schedules: []models.ClientSchedule{alpha, beta},
		details: map[string]*models.ScheduleOrderDetail{
			"s2": {
				ID:         "d2",
				ScheduleID: "s2",
				OrderKind:  models.OrderKindCustomized,
				Items: []models.ScheduleOrderDetailItem{
					{ProductName: "Brownie", Quantity: 110},
					{ProductName: "Cookie", Quantity: 10},
				},
			},
		},
	}

	catalog := &fakeCatalogSource{products: []models.Product{
		activeProduct("Cake", 100),
		activeProduct("Muffin", 0),
		activeProduct("Brownie", 9),
		activeProduct("Cookie", 0),
	}}

	proportions := &fakeProportionSource{table: []models.ProportionSetting{
		{ProductName: "Cake", Percentage: 60},
		{ProductName: "Muffin", Percentage: 40},
	}}

	recipes := &fakeRecipeSource{
		recipes: []models.Recipe{
			{
				ID:   "recipe-brownie",
				Name: "Brownie",
				Items: []models.RecipeItem{
					{IngredientID: "ing-flour", QuantityPerBatch: 2.5},
					{IngredientID: "ing-cocoa", QuantityPerBatch: 1.0},
				},
			},
			{
				ID:   "recipe-cookie-art",
				Name: "Cookie Artesanal",
				Items: []models.RecipeItem{
					{IngredientID: "ing-flour", QuantityPerBatch: 1.0},
					{IngredientID: "ing-butter", QuantityPerBatch: 0.5},
				},
			},
			{
				// Тезка товара Cookie: при наличии связки не должна использоваться
				ID:   "recipe-cookie-decoy",
				Name: "Cookie",
				Items: []models.RecipeItem{
					{IngredientID: "ing-sugar", QuantityPerBatch: 9.9},
				},
			},
		},
		links: []models.ProductRecipeLink{
			{ProductID: "prod-Cookie", RecipeID: "recipe-cookie-art", UnitsPerBatch: 55},
		},
	}

	ingredients := &fakeIngredientSource{ingredients: []models.Ingredient{
		{ID: "ing-flour", Name: "Flour", Unit: "kg", CurrentStock: 3, AverageUnitCost: 2},
		{ID: "ing-cocoa", Name: "Cocoa", Unit: "kg", CurrentStock: 10, AverageUnitCost: 5},
		{ID: "ing-butter", Name: "Butter", Unit: "kg", CurrentStock: 0, AverageUnitCost: 8},
	}}

	return schedules, catalog, proportions, recipes, ingredients
}

func computeFixture(t *testing.T) *models.ProcurementResult {
	t.Helper()
	engine := newTestEngine(pipelineFixture())
	result, err := engine.Compute(mustDate("2026-01-01"), mustDate("2026-01-31"), "", "")
	if err != nil {
		t.Fatalf("расчет не должен падать: %v", err)
	}
	return result
}

func detailByProduct(result *models.ProcurementResult, name string) (models.CalculationDetail, bool) {
	for _, detail := range result.CalculationDetails {
		if detail.ProductName == name {
			return detail, true
		}
	}
	return models.CalculationDetail{}, false
}

func TestComputeFullPipeline(t *testing.T) {
	result := computeFixture(t)

	// Аудит: оба клиента, полная раскладка по каталогу
	if len(result.AuditItems) != 2 {
		t.Fatalf("ожидали 2 клиентов в аудите, получили %d", len(result.AuditItems))
	}
	alphaAudit := result.AuditItems[0]
	if alphaAudit.QuantitiesByProduct["Cake"] != 42 || alphaAudit.QuantitiesByProduct["Muffin"] != 28 {
		t.Errorf("Store Alpha: ожидали Cake 42 / Muffin 28, получили %v/%v",
			alphaAudit.QuantitiesByProduct["Cake"], alphaAudit.QuantitiesByProduct["Muffin"])
	}

	// Cake покрыт остатком: нет ни в деталях, ни в пропущенных
	if _, ok := detailByProduct(result, "Cake"); ok {
		t.Error("Cake покрыт остатком и не должен попадать в производство")
	}
	for _, ignored := range result.IgnoredProducts {
		if ignored.ProductName == "Cake" {
			t.Error("Cake покрыт остатком и не должен числиться пропущенным")
		}
	}

	// Muffin: рецепта нет — ровно одна запись о пропуске
	if len(result.IgnoredProducts) != 1 {
		t.Fatalf("ожидали 1 пропущенный товар, получили %d: %v", len(result.IgnoredProducts), result.IgnoredProducts)
	}
	muffin := result.IgnoredProducts[0]
	if muffin.ProductName != "Muffin" || muffin.Reason != models.IgnoreReasonNoRecipe || muffin.NeededQuantity != 28 {
		t.Errorf("неожиданная запись о пропуске: %+v", muffin)
	}

	// Brownie: чистая потребность 101, дефолтный выход 40 → 3 партии
	brownie, ok := detailByProduct(result, "Brownie")
	if !ok {
		t.Fatal("Brownie должен быть обсчитан")
	}
	if brownie.NeededQuantity != 101 || brownie.BatchesComputed != 3 {
		t.Errorf("Brownie: ожидали потребность 101 и 3 партии, получили %v и %d", brownie.NeededQuantity, brownie.BatchesComputed)
	}
	if brownie.YieldSource != models.YieldSourceFallback || brownie.YieldUsed != 40 || brownie.RealYield != nil {
		t.Errorf("Brownie должен считаться по дефолтному выходу: %+v", brownie)
	}

	// Cookie: связка с выходом 55 перекрывает рецепт-тезку
	cookie, ok := detailByProduct(result, "Cookie")
	if !ok {
		t.Fatal("Cookie должен быть обсчитан")
	}
	if cookie.YieldSource != models.YieldSourceReal || cookie.YieldUsed != 55 {
		t.Errorf("Cookie должен считаться по реальному выходу 55: %+v", cookie)
	}
	if cookie.RealYield == nil || *cookie.RealYield != 55 {
		t.Errorf("RealYield должен быть 55, получили %v", cookie.RealYield)
	}
	if cookie.RecipeName != "Cookie Artesanal" {
		t.Errorf("Cookie должен считаться по рецепту из связки, получили %q", cookie.RecipeName)
	}
	if cookie.BatchesComputed != 1 {
		t.Errorf("Cookie: ceil(10/55) = 1 партия, получили %d", cookie.BatchesComputed)
	}

	// Сырье: мука 2.5*3 + 1.0*1 = 8.5; какао 3; масло 0.5; сахар из тезки — не попал
	if len(result.IngredientNeeds) != 3 {
		t.Fatalf("ожидали 3 позиции сырья, получили %d: %v", len(result.IngredientNeeds), result.IngredientNeeds)
	}
	for _, need := range result.IngredientNeeds {
		if need.IngredientID == "ing-sugar" {
			t.Error("сахар из рецепта-тезки не должен попадать в потребность")
		}
	}

	// Сортировка по убыванию quantity_to_buy — контракт
	if result.IngredientNeeds[0].Name != "Flour" || result.IngredientNeeds[0].QuantityToBuy != 5.5 {
		t.Errorf("первая позиция: ожидали Flour/5.5, получили %s/%v",
			result.IngredientNeeds[0].Name, result.IngredientNeeds[0].QuantityToBuy)
	}
	if result.IngredientNeeds[1].Name != "Butter" || result.IngredientNeeds[1].QuantityToBuy != 0.5 {
		t.Errorf("вторая позиция: ожидали Butter/0.5, получили %s/%v",
			result.IngredientNeeds[1].Name, result.IngredientNeeds[1].QuantityToBuy)
	}
	if result.IngredientNeeds[2].Name != "Cocoa" || result.IngredientNeeds[2].QuantityToBuy != 0 {
		t.Errorf("третья позиция: ожидали Cocoa/0 (запас покрывает), получили %s/%v",
			result.IngredientNeeds[2].Name, result.IngredientNeeds[2].QuantityToBuy)
	}

	// Сводка
	summary := result.Summary
	if summary.TotalProducts != 3 || summary.ProcessedProducts != 2 || summary.IgnoredProducts != 1 {
		t.Errorf("счетчики товаров: %+v", summary)
	}
	if summary.TotalBatches != 4 {
		t.Errorf("партий суммарно: ожидали 4, получили %d", summary.TotalBatches)
	}
	if summary.TotalIngredients != 3 {
		t.Errorf("позиций сырья: ожидали 3, получили %d", summary.TotalIngredients)
	}
	if summary.TotalPurchaseCost != 15 {
		t.Errorf("стоимость закупки: 5.5*2 + 0.5*8 = 15, получили %v", summary.TotalPurchaseCost)
	}
	if summary.CoveragePercent != 66.67 {
		t.Errorf("покрытие: 2/3 = 66.67%%, получили %v", summary.CoveragePercent)
	}
}

func TestComputeConservation(t *testing.T) {
	// Суммарный спрос по товару равен сумме вкладов клиентов из аудита
	result := computeFixture(t)

	demand := AggregateDemand(result.AuditItems)
	want := map[string]float64{"Cake": 42, "Muffin": 28, "Brownie": 110, "Cookie": 10}
	if !reflect.DeepEqual(demand, want) {
		t.Errorf("агрегированный спрос разошелся с аудитом: ожидали %v, получили %v", want, demand)
	}
}

func TestComputeCacheIdempotence(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)
	start, end := mustDate("2026-01-01"), mustDate("2026-01-31")

	first, err := engine.Compute(start, end, "", "")
	if err != nil {
		t.Fatalf("первый расчет: %v", err)
	}
	second, err := engine.Compute(start, end, "", "")
	if err != nil {
		t.Fatalf("повторный расчет: %v", err)
	}

	if schedules.getCalls != 1 {
		t.Errorf("повторный расчет с тем же ключом не должен перечитывать график: %d чтений", schedules.getCalls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("повторный расчет с тем же ключом должен давать идентичный результат")
	}
}

func TestComputeDifferentFiltersMissCache(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)
	start, end := mustDate("2026-01-01"), mustDate("2026-01-31")

	if _, err := engine.Compute(start, end, "", ""); err != nil {
		t.Fatalf("расчет без фильтров: %v", err)
	}
	result, err := engine.Compute(start, end, "beta", "")
	if err != nil {
		t.Fatalf("расчет с фильтром клиента: %v", err)
	}

	if schedules.getCalls != 2 {
		t.Errorf("другой фильтр — другой ключ, график должен перечитываться: %d чтений", schedules.getCalls)
	}
	if len(result.AuditItems) != 1 || result.AuditItems[0].ClientName != "Store Beta" {
		t.Errorf("фильтр клиента beta должен оставить одного клиента: %+v", result.AuditItems)
	}
}

func TestClearCacheForcesRecompute(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)
	start, end := mustDate("2026-01-01"), mustDate("2026-01-31")

	cleared := false
	engine.OnCacheCleared = func() { cleared = true }

	if _, err := engine.Compute(start, end, "", ""); err != nil {
		t.Fatalf("первый расчет: %v", err)
	}
	engine.ClearCache()
	if _, err := engine.Compute(start, end, "", ""); err != nil {
		t.Fatalf("расчет после инвалидации: %v", err)
	}

	if schedules.getCalls != 2 {
		t.Errorf("после очистки кэша график должен перечитываться: %d чтений", schedules.getCalls)
	}
	if !cleared {
		t.Error("хук OnCacheCleared должен вызываться")
	}
}

func TestComputeUpstreamFailureNotCached(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)
	start, end := mustDate("2026-01-01"), mustDate("2026-01-31")

	proportions.err = errors.New("database is down")
	if _, err := engine.Compute(start, end, "", ""); err == nil {
		t.Fatal("ошибка источника должна валить расчет целиком")
	}

	// После восстановления источника расчет проходит — ошибка не закэширована
	proportions.err = nil
	result, err := engine.Compute(start, end, "", "")
	if err != nil {
		t.Fatalf("расчет после восстановления источника: %v", err)
	}
	if len(result.AuditItems) != 2 {
		t.Errorf("ожидали полный аудит после восстановления, получили %d записей", len(result.AuditItems))
	}
}

func TestComputeCatalogFailure(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)

	catalog.err = errors.New("catalog unavailable")
	if _, err := engine.Compute(mustDate("2026-01-01"), mustDate("2026-01-31"), "", ""); err == nil {
		t.Fatal("недоступный каталог должен валить расчет")
	}
}

func TestComputeDefaultWindowIs30Days(t *testing.T) {
	inside := scheduleFor("s1", "Store Alpha", "2026-01-11", models.OrderKindStandard, 70)
	outside := scheduleFor("s2", "Store Beta", "2026-02-15", models.OrderKindStandard, 70)

	schedules := &fakeScheduleSource{schedules: []models.ClientSchedule{inside, outside}}
	catalog := &fakeCatalogSource{products: []models.Product{activeProduct("Cake", 0), activeProduct("Muffin", 0)}}
	proportions := &fakeProportionSource{table: []models.ProportionSetting{
		{ProductName: "Cake", Percentage: 60},
		{ProductName: "Muffin", Percentage: 40},
	}}
	engine := newTestEngine(schedules, catalog, proportions, &fakeRecipeSource{}, &fakeIngredientSource{})

	// end не задан — окно закрывается через 30 дней после start
	result, err := engine.Compute(mustDate("2026-01-01"), time.Time{}, "", "")
	if err != nil {
		t.Fatalf("расчет: %v", err)
	}

	if len(result.AuditItems) != 1 || result.AuditItems[0].ClientName != "Store Alpha" {
		t.Errorf("в окно по умолчанию попадает только Store Alpha: %+v", result.AuditItems)
	}
}

func TestNetProduction(t *testing.T) {
	demand := map[string]float64{"Cake": 42, "Brownie": 110, "Cookie": 10}
	products := []models.Product{
		activeProduct("Cake", 100),   // Покрыт с запасом
		activeProduct("Brownie", 9),  // Частично покрыт
		activeProduct("Phantom", 50), // Остаток без спроса
	}

	net := NetProduction(demand, products)

	want := map[string]float64{"Brownie": 101, "Cookie": 10}
	if !reflect.DeepEqual(net, want) {
		t.Errorf("ожидали %v, получили %v", want, net)
	}
}

func TestAggregateDemandSkipsNonPositive(t *testing.T) {
	items := []models.AuditItem{
		{QuantitiesByProduct: map[string]float64{"Cake": 10, "Muffin": 0}},
		{QuantitiesByProduct: map[string]float64{"Cake": 5, "Muffin": -3}},
	}

	demand := AggregateDemand(items)

	want := map[string]float64{"Cake": 15}
	if !reflect.DeepEqual(demand, want) {
		t.Errorf("нули и отрицательные вклады игнорируются: ожидали %v, получили %v", want, demand)
	}
}

func TestBuildPurchaseListMissingIngredient(t *testing.T) {
	totals := map[string]float64{"ing-ghost": 7}

	needs := BuildPurchaseList(totals, nil)

	if len(needs) != 1 {
		t.Fatalf("ожидали 1 позицию, получили %d", len(needs))
	}
	ghost := needs[0]
	if ghost.Name != "ing-ghost" {
		t.Errorf("пропавший из справочника ингредиент показывается по id, получили %q", ghost.Name)
	}
	if ghost.QuantityToBuy != 7 || ghost.TotalCost != 0 {
		t.Errorf("без справочника: закупить всё, стоимость 0; получили %v/%v", ghost.QuantityToBuy, ghost.TotalCost)
	}
}

func TestBuildPurchaseListSortTieBreak(t *testing.T) {
	totals := map[string]float64{"ing-a": 5, "ing-b": 5, "ing-c": 9}
	ingredients := []models.Ingredient{
		{ID: "ing-a", Name: "Zucchini"},
		{ID: "ing-b", Name: "Anise"},
		{ID: "ing-c", Name: "Flour"},
	}

	needs := BuildPurchaseList(totals, ingredients)

	got := []string{needs[0].Name, needs[1].Name, needs[2].Name}
	want := []string{"Flour", "Anise", "Zucchini"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("сортировка: убывание закупки, при равенстве — имя; ожидали %v, получили %v", want, got)
	}
}

func TestComputeBrokenYieldLink(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	// Связка Cookie указывает на несуществующий рецепт
	recipes.links = []models.ProductRecipeLink{
		{ProductID: "prod-Cookie", RecipeID: "recipe-deleted", UnitsPerBatch: 55},
	}
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)

	result, err := engine.Compute(mustDate("2026-01-01"), mustDate("2026-01-31"), "", "")
	if err != nil {
		t.Fatalf("расчет: %v", err)
	}

	var cookie *models.IgnoredProduct
	for i := range result.IgnoredProducts {
		if result.IgnoredProducts[i].ProductName == "Cookie" {
			cookie = &result.IgnoredProducts[i]
		}
	}
	if cookie == nil {
		t.Fatal("Cookie с битой связкой должен быть пропущен")
	}
	if cookie.Reason != models.IgnoreReasonNoYieldLink {
		t.Errorf("причина пропуска: ожидали %s, получили %s", models.IgnoreReasonNoYieldLink, cookie.Reason)
	}
}

func TestComputeEmptyRecipe(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	// Рецепт Brownie остался без ингредиентов
	for i := range recipes.recipes {
		if recipes.recipes[i].Name == "Brownie" {
			recipes.recipes[i].Items = nil
		}
	}
	engine := newTestEngine(schedules, catalog, proportions, recipes, ingredients)

	result, err := engine.Compute(mustDate("2026-01-01"), mustDate("2026-01-31"), "", "")
	if err != nil {
		t.Fatalf("расчет: %v", err)
	}

	var brownie *models.IgnoredProduct
	for i := range result.IgnoredProducts {
		if result.IgnoredProducts[i].ProductName == "Brownie" {
			brownie = &result.IgnoredProducts[i]
		}
	}
	if brownie == nil {
		t.Fatal("Brownie с пустым рецептом должен быть пропущен")
	}
	if brownie.Reason != models.IgnoreReasonEmptyRecipe {
		t.Errorf("причина пропуска: ожидали %s, получили %s", models.IgnoreReasonEmptyRecipe, brownie.Reason)
	}
}

func TestComputeRejectsConcurrentRun(t *testing.T) {
	schedules, catalog, proportions, recipes, ingredients := pipelineFixture()
	runner := NewBatchRunner(1, 0)
	engine := NewProcurementEngineService(
		schedules, catalog, proportions, recipes, ingredients,
		runner, NewResultCache(10), nil, 40,
	)

	// Пока идет разрешение спроса, второй расчет должен отклоняться без ожидания
	var nested error
	fired := false
	runner.OnChunk = func(int, int, int) {
		if fired {
			return
		}
		fired = true
		_, nested = engine.Compute(mustDate("2026-02-01"), mustDate("2026-02-28"), "", "")
	}

	if _, err := engine.Compute(mustDate("2026-01-01"), mustDate("2026-01-31"), "", ""); err != nil {
		t.Fatalf("внешний расчет: %v", err)
	}
	if nested != ErrComputationInFlight {
		t.Errorf("ожидали ErrComputationInFlight, получили %v", nested)
	}
}

func TestBuildSummaryEmptyRun(t *testing.T) {
	summary := buildSummary(nil, nil, nil)

	if summary.TotalProducts != 0 || summary.TotalBatches != 0 {
		t.Errorf("пустой расчет: %+v", summary)
	}
	if summary.CoveragePercent != 100 {
		t.Errorf("покрытие пустого расчета — 100%%, получили %v", summary.CoveragePercent)
	}
}
