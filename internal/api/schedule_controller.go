package api

import (
	"net/http"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/services"

	"github.com/gin-gonic/gin"
)

// ScheduleController отдает график пополнения для таблиц дашборда
type ScheduleController struct {
	scheduleService *services.ScheduleService
}

// NewScheduleController создает новый контроллер
func NewScheduleController(scheduleService *services.ScheduleService) *ScheduleController {
	return &ScheduleController{scheduleService: scheduleService}
}

// GetSchedules возвращает записи графика в окне планирования
// GET /api/v1/schedules?start=&end=&client=&status=
func (c *ScheduleController) GetSchedules(ctx *gin.Context) {
	start, end, ok := parseWindow(ctx)
	if !ok {
		return
	}
	if start.IsZero() {
		start = time.Now().UTC()
	}
	if end.IsZero() {
		end = start.AddDate(0, 0, 30)
	}

	schedules, err := c.scheduleService.GetFiltered(start, end, ctx.Query("client"), ctx.Query("status"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ошибка загрузки графика",
			"details": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"schedules": schedules,
		"count":     len(schedules),
	})
}
