package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"

	"gorm.io/gorm"
)

// ScheduleService читает график пополнения клиентов из БД
type ScheduleService struct {
	db *gorm.DB
}

// NewScheduleService создает новый экземпляр ScheduleService
func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// GetSchedules возвращает все записи графика с клиентом и позициями
func (s *ScheduleService) GetSchedules() ([]models.ClientSchedule, error) {
	var schedules []models.ClientSchedule
	if err := s.db.Preload("Client").Preload("Items").
		Order("scheduled_date, created_at").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("ошибка загрузки графика: %w", err)
	}
	return schedules, nil
}

// GetOrderDetail возвращает детализированный заказ по записи графика
// Возвращает nil без ошибки, если отдел продаж детализацию не заполнял
func (s *ScheduleService) GetOrderDetail(scheduleID string) (*models.ScheduleOrderDetail, error) {
	var detail models.ScheduleOrderDetail
	err := s.db.Preload("Items").
		Where("schedule_id = ?", scheduleID).
		First(&detail).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки детализации заказа: %w", err)
	}
	return &detail, nil
}

// GetFiltered возвращает записи графика, попадающие в окно планирования
// Используется контроллером для таблицы дашборда
func (s *ScheduleService) GetFiltered(start, end time.Time, clientFilter, statusFilter string) ([]models.ClientSchedule, error) {
	schedules, err := s.GetSchedules()
	if err != nil {
		return nil, err
	}
	return FilterSchedules(schedules, start, end, clientFilter, statusFilter), nil
}

// FilterSchedules отбирает записи графика по окну планирования и опциональным фильтрам
// Границы окна включительные, время суток игнорируется
// Запись с нечитаемой датой не валит выборку — она логируется и пропускается
func FilterSchedules(schedules []models.ClientSchedule, start, end time.Time, clientFilter, statusFilter string) []models.ClientSchedule {
	start = truncateToDay(start)
	end = truncateToDay(end)
	clientFilter = strings.ToLower(strings.TrimSpace(clientFilter))

	filtered := make([]models.ClientSchedule, 0, len(schedules))
	for _, schedule := range schedules {
		date, err := time.Parse("2006-01-02", schedule.ScheduledDate)
		if err != nil {
			log.Printf("⚠️ Запись графика %s: нечитаемая дата %q, пропускаем: %v", schedule.ID, schedule.ScheduledDate, err)
			continue
		}

		if date.Before(start) || date.After(end) {
			continue
		}

		if clientFilter != "" && !strings.Contains(strings.ToLower(schedule.Client.Name), clientFilter) {
			continue
		}

		if statusFilter != "" && statusFilter != "all" && string(schedule.Status) != statusFilter {
			continue
		}

		filtered = append(filtered, schedule)
	}

	return filtered
}

// truncateToDay отбрасывает время суток (даты в контрактах — календарные)
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
