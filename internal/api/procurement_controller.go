package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

// ProcurementController управляет API вычислительного движка закупок
type ProcurementController struct {
	engine *services.ProcurementEngineService
	gate   *services.RequestGate

	// Последние параметры пересчета — их подхватит действие гейта после тишины
	paramsMu   sync.Mutex
	lastParams computeParams
}

type computeParams struct {
	start        time.Time
	end          time.Time
	clientFilter string
	statusFilter string
}

// NewProcurementController создает контроллер и машину debounce-пересчета
func NewProcurementController(engine *services.ProcurementEngineService, debounce time.Duration) *ProcurementController {
	c := &ProcurementController{engine: engine}
	c.gate = services.NewRequestGate(debounce, c.runPending)
	return c
}

// Gate возвращает машину состояний (для корректного shutdown)
func (c *ProcurementController) Gate() *services.RequestGate {
	return c.gate
}

// parseWindow разбирает окно планирования из query-параметров
// Отсутствующая start — сегодня, отсутствующая end — start + 30 дней
func parseWindow(ctx *gin.Context) (time.Time, time.Time, bool) {
	var start, end time.Time

	if startStr := ctx.Query("start"); startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат start (ожидается YYYY-MM-DD)"})
			return start, end, false
		}
		start = parsed
	}

	if endStr := ctx.Query("end"); endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат end (ожидается YYYY-MM-DD)"})
			return start, end, false
		}
		end = parsed
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "end раньше start"})
		return start, end, false
	}

	return start, end, true
}

// GetCalculation выполняет (или достает из кэша) полный расчет закупок
// GET /api/v1/procurement/calculation?start=&end=&client=&status=
func (c *ProcurementController) GetCalculation(ctx *gin.Context) {
	start, end, ok := parseWindow(ctx)
	if !ok {
		return
	}

	result, err := c.engine.Compute(start, end, ctx.Query("client"), ctx.Query("status"))
	if err == services.ErrComputationInFlight {
		ctx.JSON(http.StatusConflict, gin.H{"error": "расчет уже выполняется, повторите позже"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка расчета закупок",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetSummary возвращает только сводку расчета
// GET /api/v1/procurement/summary?start=&end=&client=&status=
func (c *ProcurementController) GetSummary(ctx *gin.Context) {
	start, end, ok := parseWindow(ctx)
	if !ok {
		return
	}

	result, err := c.engine.Compute(start, end, ctx.Query("client"), ctx.Query("status"))
	if err == services.ErrComputationInFlight {
		ctx.JSON(http.StatusConflict, gin.H{"error": "расчет уже выполняется, повторите позже"})
		return
	}
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка расчета закупок",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, result.Summary)
}

// Recalculate регистрирует запрос на пересчет через debounce-машину
// Частые запросы (пользователь щелкает фильтрами) коалесцируются;
// запрос во время выполняющегося расчета отклоняется
// POST /api/v1/procurement/recalculate
func (c *ProcurementController) Recalculate(ctx *gin.Context) {
	var request struct {
		Start  string `json:"start"`
		End    string `json:"end"`
		Client string `json:"client"`
		Status string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil && err.Error() != "EOF" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Неверные параметры",
			"details": err.Error(),
		})
		return
	}

	params := computeParams{clientFilter: request.Client, statusFilter: request.Status}
	if request.Start != "" {
		parsed, err := time.Parse("2006-01-02", request.Start)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат start (ожидается YYYY-MM-DD)"})
			return
		}
		params.start = parsed
	}
	if request.End != "" {
		parsed, err := time.Parse("2006-01-02", request.End)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат end (ожидается YYYY-MM-DD)"})
			return
		}
		params.end = parsed
	}

	c.paramsMu.Lock()
	c.lastParams = params
	c.paramsMu.Unlock()

	if !c.gate.Request() {
		ctx.JSON(http.StatusConflict, gin.H{"error": "расчет уже выполняется, повторите позже"})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"state":    c.gate.State(),
	})
}

// runPending — действие debounce-машины: пересчет с последними параметрами
func (c *ProcurementController) runPending() {
	c.paramsMu.Lock()
	params := c.lastParams
	c.paramsMu.Unlock()

	// Результат уйдет дашбордам через хук движка; ошибка уже залогирована движком
	_, _ = c.engine.Compute(params.start, params.end, params.clientFilter, params.statusFilter)
}

// ClearCache безусловно очищает кэш расчетов
// Контракт инвалидации для внешних модулей
// POST /api/v1/procurement/cache/clear
func (c *ProcurementController) ClearCache(ctx *gin.Context) {
	c.engine.ClearCache()
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSnapshot возвращает последний успешный расчет из Redis
// GET /api/v1/procurement/snapshot
func (c *ProcurementController) GetSnapshot(ctx *gin.Context) {
	snapshot, err := c.engine.GetSnapshot()
	if err != nil || snapshot == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "снапшот расчета отсутствует"})
		return
	}
	ctx.JSON(http.StatusOK, snapshot)
}
