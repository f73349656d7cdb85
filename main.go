package main

import (
	"log"
	"net/http"
	_ "net/http/pprof" // Для профилирования в development
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/VerticalAgents/mischa-os-sub002/internal/api"
	"github.com/VerticalAgents/mischa-os-sub002/internal/config"
	"github.com/VerticalAgents/mischa-os-sub002/internal/database"
	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
	"github.com/VerticalAgents/mischa-os-sub002/internal/services"
	"github.com/VerticalAgents/mischa-os-sub002/internal/utils"
)

func main() {
	// Загружаем переменные окружения из .env файла (если существует)
	// Ошибку игнорируем — в production переменные приходят из окружения
	if err := godotenv.Load(); err != nil {
		log.Printf("ℹ️ .env файл не найден, используем переменные окружения системы")
	} else {
		log.Printf("✅ Переменные окружения загружены из .env файла")
	}

	cfg := config.Load()

	// Подключение к PostgreSQL — без базы движку нечего считать
	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ PostgreSQL connection failed: %v", err)
	}
	defer database.ClosePostgres(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	// Подключение к Redis (опционально: без него нет pub/sub инвалидации и снапшотов)
	redisClient, err := database.ConnectRedis(
		cfg.RedisURL,
		cfg.RedisSentinelAddrs,
		cfg.RedisMasterName,
	)
	var redisUtil *utils.RedisClient
	if err != nil {
		log.Printf("⚠️ Redis connection failed: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		redisUtil = utils.NewRedisClient(redisClient)
	}
	defer database.CloseRedis(redisClient)

	// Источники данных движка
	scheduleService := services.NewScheduleService(db)
	catalogService := services.NewCatalogService(db)
	proportionService := services.NewProportionService(db)
	recipeService := services.NewRecipeService(db)
	ingredientService := services.NewIngredientService(db)

	// Вычислительный движок закупок
	runner := services.NewBatchRunner(cfg.EngineChunkSize, time.Duration(cfg.EngineChunkPauseMs)*time.Millisecond)
	cache := services.NewResultCache(cfg.EngineCacheCapacity)
	engine := services.NewProcurementEngineService(
		scheduleService,
		catalogService,
		proportionService,
		recipeService,
		ingredientService,
		runner,
		cache,
		redisUtil,
		cfg.EngineFallbackYield,
	)
	engine.StartInvalidationListener()
	defer engine.StopInvalidationListener()

	// WebSocket хаб: оповещаем открытые дашборды о завершении расчета
	hub := api.NewHub()
	go hub.Run()

	engine.OnResult = func(result *models.ProcurementResult) {
		hub.BroadcastEvent("procurement_updated", result.Summary)
	}
	engine.OnCacheCleared = func() {
		hub.BroadcastEvent("cache_cleared", nil)
	}
	runner.OnChunk = func(chunkIndex, processed, total int) {
		log.Printf("🧮 Разрешение спроса: чанк %d, обработано %d/%d клиентов", chunkIndex, processed, total)
	}

	// Kafka consumer событий изменения данных → инвалидация кэша
	if cfg.KafkaBrokers != "" {
		log.Printf("📡 KAFKA_BROKERS установлен: %s", cfg.KafkaBrokers)
		consumer := api.NewDataEventsConsumer(
			cfg.KafkaBrokers,
			cfg.KafkaDataTopic,
			engine,
			cfg.KafkaUsername,
			cfg.KafkaPassword,
			cfg.KafkaCACert,
		)
		consumer.Start()
		defer consumer.Stop()
	} else {
		log.Printf("⚠️ KAFKA_BROKERS не установлен, инвалидация кэша только через HTTP и Redis Pub/Sub")
	}

	// Контроллеры
	procurementController := api.NewProcurementController(engine, time.Duration(cfg.EngineDebounceMs)*time.Millisecond)
	defer procurementController.Gate().Stop()
	scheduleController := api.NewScheduleController(scheduleService)
	wsController := api.NewWSController(hub)

	// HTTP сервер
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/dashboard", wsController.ServeDashboardWS)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/schedules", scheduleController.GetSchedules)

		procurement := v1.Group("/procurement")
		{
			procurement.GET("/calculation", procurementController.GetCalculation)
			procurement.GET("/summary", procurementController.GetSummary)
			procurement.GET("/snapshot", procurementController.GetSnapshot)
			procurement.POST("/recalculate", procurementController.Recalculate)
			procurement.POST("/cache/clear", procurementController.ClearCache)
		}
	}

	// pprof на отдельном порту в development
	if cfg.Environment != "production" {
		go func() {
			log.Printf("🔍 pprof доступен на :6060")
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				log.Printf("⚠️ pprof сервер не запустился: %v", err)
			}
		}()
	}

	log.Printf("🚀 Сервер запущен на порту %s (env: %s)", cfg.ServerPort, cfg.Environment)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("❌ Ошибка запуска сервера: %v", err)
	}
}
