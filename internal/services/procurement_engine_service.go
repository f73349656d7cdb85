package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/metrics"
	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
	"github.com/VerticalAgents/mischa-os-sub002/internal/utils"
)

// ProcurementInvalidateChannel — Pub/Sub канал инвалидации кэша расчетов
// Внешние модули публикуют сюда при изменении графика/каталога/рецептов/склада
const ProcurementInvalidateChannel = "procurement:invalidate"

// procurementSnapshotKey — ключ снапшота последнего успешного расчета в Redis
const procurementSnapshotKey = "procurement:last_result"

// ErrComputationInFlight возвращается, когда расчет уже выполняется
// Отмены выполняющегося расчета нет — вызывающий ждет и запрашивает заново
var ErrComputationInFlight = errors.New("расчет закупок уже выполняется")

// ProcurementEngineService — вычислительный движок "спрос → закупки".
// Цепочка: фильтр графика → чанковое разрешение спроса по клиентам →
// агрегация → неттинг по остаткам готовой продукции → подбор рецепта и
// выхода → разложение на партии и сырье → список закупки со сводкой.
type ProcurementEngineService struct {
	schedules   ScheduleSource
	catalog     CatalogSource
	proportions ProportionSource
	recipes     RecipeSource
	ingredients IngredientSource

	runner        *BatchRunner
	cache         *ResultCache
	redisUtil     *utils.RedisClient // Может быть nil — Redis опционален
	fallbackYield float64

	inFlight   int32 // Атомарный guard: два расчета одновременно не выполняются
	stopPubSub chan struct{}

	// OnResult вызывается после каждого успешного расчета (оповещение дашбордов)
	OnResult func(result *models.ProcurementResult)
	// OnCacheCleared вызывается после очистки кэша
	OnCacheCleared func()
}

// NewProcurementEngineService создает движок расчета закупок
func NewProcurementEngineService(
	schedules ScheduleSource,
	catalog CatalogSource,
	proportions ProportionSource,
	recipes RecipeSource,
	ingredients IngredientSource,
	runner *BatchRunner,
	cache *ResultCache,
	redisUtil *utils.RedisClient,
	fallbackYield float64,
) *ProcurementEngineService {
	if fallbackYield <= 0 {
		fallbackYield = 40
	}
	return &ProcurementEngineService{
		schedules:     schedules,
		catalog:       catalog,
		proportions:   proportions,
		recipes:       recipes,
		ingredients:   ingredients,
		runner:        runner,
		cache:         cache,
		redisUtil:     redisUtil,
		fallbackYield: fallbackYield,
		stopPubSub:    make(chan struct{}),
	}
}

// Compute выполняет полный расчет закупок для окна планирования и фильтров.
// Пустая start — сегодня; пустая end — start + 30 дней; время суток игнорируется.
// При попадании в кэш этап разрешения спроса (самый дорогой) не перевыполняется.
// Ошибка любого источника данных валит расчет целиком: частичный результат
// хуже, чем честная ошибка, и в кэш он никогда не попадает.
func (s *ProcurementEngineService) Compute(start, end time.Time, clientFilter, statusFilter string) (*models.ProcurementResult, error) {
	startedAt := time.Now()

	if start.IsZero() {
		start = time.Now().UTC()
	}
	start = truncateToDay(start)
	if end.IsZero() {
		end = start.AddDate(0, 0, 30)
	}
	end = truncateToDay(end)

	products, err := s.catalog.GetActiveProducts()
	if err != nil {
		metrics.ComputationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("каталог недоступен: %w", err)
	}

	key := BuildCacheKey(start, end, clientFilter, statusFilter)
	auditItems, cached := s.cache.Get(key)
	if cached {
		metrics.CacheHits.Inc()
		log.Printf("🗄️ Расчет закупок: кэш-попадание по ключу %s (%d клиентов)", key, len(auditItems))
	} else {
		metrics.CacheMisses.Inc()

		if !atomic.CompareAndSwapInt32(&s.inFlight, 0, 1) {
			metrics.ComputationsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrComputationInFlight
		}

		auditItems, err = s.resolveAuditItems(start, end, clientFilter, statusFilter, products)
		atomic.StoreInt32(&s.inFlight, 0)
		if err != nil {
			metrics.ComputationsTotal.WithLabelValues("failed").Inc()
			return nil, err
		}

		// Кэшируются только успешные разрешения
		s.cache.Put(key, auditItems)
	}

	result, err := s.buildResult(auditItems, products)
	if err != nil {
		metrics.ComputationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.ComputationsTotal.WithLabelValues("success").Inc()
	metrics.ComputationDuration.Observe(time.Since(startedAt).Seconds())

	log.Printf("🧮 Расчет закупок завершен за %v: клиентов=%d, позиций закупки=%d, пропущено товаров=%d",
		time.Since(startedAt).Round(time.Millisecond),
		len(result.AuditItems), len(result.IngredientNeeds), len(result.IgnoredProducts))

	s.storeSnapshot(result)
	if s.OnResult != nil {
		s.OnResult(result)
	}

	return result, nil
}

// resolveAuditItems — этапы фильтра графика и чанкового разрешения спроса
func (s *ProcurementEngineService) resolveAuditItems(start, end time.Time, clientFilter, statusFilter string, products []models.Product) ([]models.AuditItem, error) {
	schedules, err := s.schedules.GetSchedules()
	if err != nil {
		return nil, fmt.Errorf("график пополнения недоступен: %w", err)
	}

	filtered := FilterSchedules(schedules, start, end, clientFilter, statusFilter)

	proportionTable, err := s.proportions.GetProportionTable()
	if err != nil {
		return nil, fmt.Errorf("таблица пропорций недоступна: %w", err)
	}
	hasProportions, err := s.proportions.HasProportions()
	if err != nil {
		return nil, fmt.Errorf("таблица пропорций недоступна: %w", err)
	}

	resolver := NewDemandResolver(s.schedules, products, proportionTable, hasProportions)
	return s.runner.Run(context.Background(), filtered, resolver.Resolve), nil
}

// buildResult — чистая хвостовая часть конвейера: от аудита до списка закупки
func (s *ProcurementEngineService) buildResult(auditItems []models.AuditItem, products []models.Product) (*models.ProcurementResult, error) {
	recipes, err := s.recipes.GetRecipes()
	if err != nil {
		return nil, fmt.Errorf("рецепты недоступны: %w", err)
	}
	links, err := s.recipes.GetYieldLinks()
	if err != nil {
		return nil, fmt.Errorf("связки товар-рецепт недоступны: %w", err)
	}
	ingredients, err := s.ingredients.GetIngredients()
	if err != nil {
		return nil, fmt.Errorf("сырье недоступно: %w", err)
	}

	demand := AggregateDemand(auditItems)
	netNeeds := NetProduction(demand, products)
	details, ignored, totals := s.buildProductionPlan(netNeeds, products, recipes, links)
	needs := BuildPurchaseList(totals, ingredients)

	if auditItems == nil {
		auditItems = []models.AuditItem{}
	}

	return &models.ProcurementResult{
		AuditItems:         auditItems,
		IngredientNeeds:    needs,
		IgnoredProducts:    ignored,
		CalculationDetails: details,
		Summary:            buildSummary(details, ignored, needs),
	}, nil
}

// AggregateDemand суммирует вклады клиентов в общий спрос по товарам
// Неположительные вклады игнорируются
func AggregateDemand(auditItems []models.AuditItem) map[string]float64 {
	demand := make(map[string]float64)
	for _, item := range auditItems {
		for productName, quantity := range item.QuantitiesByProduct {
			if quantity > 0 {
				demand[productName] += quantity
			}
		}
	}
	return demand
}

// NetProduction вычитает остатки готовой продукции из спроса
// Товары с чистой потребностью <= 0 в производство не попадают вовсе
func NetProduction(demand map[string]float64, products []models.Product) map[string]float64 {
	stockByName := make(map[string]float64, len(products))
	for _, product := range products {
		stockByName[product.Name] = product.CurrentStock
	}

	netNeeds := make(map[string]float64)
	for productName, total := range demand {
		if total <= 0 {
			continue
		}
		net := total - stockByName[productName] // Неизвестный остаток = 0
		if net > 0 {
			netNeeds[productName] = net
		}
	}
	return netNeeds
}

// buildProductionPlan подбирает рецепт и выход для каждого товара с чистой
// потребностью, считает партии и накапливает потребность по сырью.
// Каждый товар попадает ровно в один из списков: details либо ignored
func (s *ProcurementEngineService) buildProductionPlan(
	netNeeds map[string]float64,
	products []models.Product,
	recipes []models.Recipe,
	links []models.ProductRecipeLink,
) ([]models.CalculationDetail, []models.IgnoredProduct, map[string]float64) {
	productByName := make(map[string]models.Product, len(products))
	for _, product := range products {
		productByName[product.Name] = product
	}
	recipeByID := make(map[string]models.Recipe, len(recipes))
	recipeByName := make(map[string]models.Recipe, len(recipes))
	for _, recipe := range recipes {
		recipeByID[recipe.ID] = recipe
		if _, taken := recipeByName[recipe.Name]; !taken {
			recipeByName[recipe.Name] = recipe
		}
	}
	linkByProductID := make(map[string]models.ProductRecipeLink, len(links))
	for _, link := range links {
		linkByProductID[link.ProductID] = link
	}

	// Детерминированный порядок обхода — результат должен быть повторяемым
	names := make([]string, 0, len(netNeeds))
	for name := range netNeeds {
		names = append(names, name)
	}
	sort.Strings(names)

	details := []models.CalculationDetail{}
	ignored := []models.IgnoredProduct{}
	totals := make(map[string]float64)

	ignore := func(name string, need float64, reason models.IgnoreReason) {
		ignored = append(ignored, models.IgnoredProduct{
			ProductName:    name,
			NeededQuantity: need,
			Reason:         reason,
		})
		metrics.IgnoredProductsTotal.WithLabelValues(string(reason)).Inc()
		log.Printf("⚠️ Товар %q (потребность %.0f) пропущен: %s", name, need, reason)
	}

	for _, name := range names {
		need := netNeeds[name]

		var recipe models.Recipe
		var found bool
		yieldUsed := s.fallbackYield
		yieldSource := models.YieldSourceFallback
		var realYield *float64

		if link, hasLink := linkByProductID[productByName[name].ID]; hasLink {
			recipe, found = recipeByID[link.RecipeID]
			if !found {
				// Связка настроена, но указывает на несуществующий рецепт
				ignore(name, need, models.IgnoreReasonNoYieldLink)
				continue
			}
			if link.UnitsPerBatch > 0 {
				yieldUsed = link.UnitsPerBatch
				yieldSource = models.YieldSourceReal
				v := link.UnitsPerBatch
				realYield = &v
			}
		} else {
			// Эвристика: рецепт с именем, совпадающим с товаром
			recipe, found = recipeByName[name]
			if !found {
				ignore(name, need, models.IgnoreReasonNoRecipe)
				continue
			}
		}

		if len(recipe.Items) == 0 {
			ignore(name, need, models.IgnoreReasonEmptyRecipe)
			continue
		}

		batches := int(math.Ceil(need / yieldUsed))

		for _, item := range recipe.Items {
			totals[item.IngredientID] += item.QuantityPerBatch * float64(batches)
		}

		details = append(details, models.CalculationDetail{
			ProductName:     name,
			NeededQuantity:  need,
			RecipeName:      recipe.Name,
			RealYield:       realYield,
			YieldUsed:       yieldUsed,
			BatchesComputed: batches,
			YieldSource:     yieldSource,
		})
	}

	return details, ignored, totals
}

// BuildPurchaseList превращает потребность по сырью в отсортированный список закупки
// Сортировка по убыванию quantity_to_buy — это контракт, а не косметика:
// она задает приоритет закупки в интерфейсе
func BuildPurchaseList(totals map[string]float64, ingredients []models.Ingredient) []models.IngredientNeed {
	ingredientByID := make(map[string]models.Ingredient, len(ingredients))
	for _, ingredient := range ingredients {
		ingredientByID[ingredient.ID] = ingredient
	}

	needs := make([]models.IngredientNeed, 0, len(totals))
	for ingredientID, totalNeeded := range totals {
		need := models.IngredientNeed{
			IngredientID: ingredientID,
			Name:         ingredientID, // Ингредиент пропал из справочника — показываем хотя бы id
			TotalNeeded:  totalNeeded,
		}
		if ingredient, ok := ingredientByID[ingredientID]; ok {
			need.Name = ingredient.Name
			need.Unit = ingredient.Unit
			need.CurrentStock = ingredient.CurrentStock
			need.AverageCost = ingredient.AverageUnitCost
		}

		need.QuantityToBuy = math.Max(0, need.TotalNeeded-need.CurrentStock)
		need.TotalCost = need.QuantityToBuy * need.AverageCost
		needs = append(needs, need)
	}

	sort.Slice(needs, func(i, j int) bool {
		if needs[i].QuantityToBuy != needs[j].QuantityToBuy {
			return needs[i].QuantityToBuy > needs[j].QuantityToBuy
		}
		return needs[i].Name < needs[j].Name
	})

	return needs
}

// buildSummary собирает сводку по расчету
func buildSummary(details []models.CalculationDetail, ignored []models.IgnoredProduct, needs []models.IngredientNeed) models.CalculationSummary {
	totalBatches := 0
	for _, detail := range details {
		totalBatches += detail.BatchesComputed
	}

	totalCost := 0.0
	for _, need := range needs {
		totalCost += need.TotalCost
	}

	processed := len(details)
	ignoredCount := len(ignored)

	coverage := 100.0
	if processed+ignoredCount > 0 {
		coverage = math.Round(float64(processed)/float64(processed+ignoredCount)*100*100) / 100
	}

	return models.CalculationSummary{
		TotalProducts:     processed + ignoredCount,
		TotalBatches:      totalBatches,
		TotalIngredients:  len(needs),
		TotalPurchaseCost: math.Round(totalCost*100) / 100,
		ProcessedProducts: processed,
		IgnoredProducts:   ignoredCount,
		CoveragePercent:   coverage,
	}
}

// ClearCache безусловно опустошает кэш результатов и оповещает остальных
// Контракт инвалидации: внешние модули дергают его при любом изменении
// графика, каталога, рецептов или остатков
func (s *ProcurementEngineService) ClearCache() {
	s.cache.Clear()
	log.Println("🧹 Кэш расчетов закупок очищен")

	if s.redisUtil != nil {
		if err := s.redisUtil.Publish(ProcurementInvalidateChannel, "cleared"); err != nil {
			log.Printf("⚠️ Не удалось опубликовать инвалидацию кэша: %v", err)
		}
		if err := s.redisUtil.Delete(procurementSnapshotKey); err != nil {
			log.Printf("⚠️ Не удалось удалить снапшот расчета: %v", err)
		}
	}

	if s.OnCacheCleared != nil {
		s.OnCacheCleared()
	}
}

// StartInvalidationListener подписывается на Pub/Sub инвалидации:
// другие инстансы тоже должны сбрасывать свой локальный кэш
func (s *ProcurementEngineService) StartInvalidationListener() {
	if s.redisUtil == nil {
		return
	}

	messages, closeFn := s.redisUtil.Subscribe(ProcurementInvalidateChannel)
	log.Printf("📡 Подписка на инвалидацию кэша: %s", ProcurementInvalidateChannel)

	go func() {
		defer closeFn()
		for {
			select {
			case <-s.stopPubSub:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				// Локальная очистка без повторной публикации — иначе шторм
				s.cache.Clear()
				log.Printf("📡 Кэш расчетов сброшен по событию инвалидации (%s)", msg.Payload)
			}
		}
	}()
}

// StopInvalidationListener останавливает подписку (для shutdown)
func (s *ProcurementEngineService) StopInvalidationListener() {
	close(s.stopPubSub)
}

// storeSnapshot кладет последний успешный расчет в Redis —
// дашборды других инстансов могут показать его без пересчета
func (s *ProcurementEngineService) storeSnapshot(result *models.ProcurementResult) {
	if s.redisUtil == nil {
		return
	}
	if err := s.redisUtil.Set(procurementSnapshotKey, result, 10*time.Minute); err != nil {
		log.Printf("⚠️ Не удалось сохранить снапшот расчета в Redis: %v", err)
	}
}

// GetSnapshot возвращает последний успешный расчет из Redis (nil — если нет)
func (s *ProcurementEngineService) GetSnapshot() (*models.ProcurementResult, error) {
	if s.redisUtil == nil {
		return nil, nil
	}
	var result models.ProcurementResult
	if err := s.redisUtil.GetJSON(procurementSnapshotKey, &result); err != nil {
		return nil, nil // Снапшота нет или Redis недоступен — это не ошибка
	}
	return &result, nil
}
