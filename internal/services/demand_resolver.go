package services

import (
	"log"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// DemandResolver превращает одну запись графика в количества по товарам.
// Стратегии разрешения пробуются по порядку, пока одна не сработает:
//  1. детализированный заказ с индивидуальным списком позиций
//  2. детализированный стандартный заказ через таблицу пропорций
//  3. грубые данные самой записи графика (ее позиции, иначе базовый объем клиента)
//
// Каждая стратегия — чистая функция над снимком данных; падение разрешения
// по одному клиенту гасится и не валит пакет (клиент попадает в аудит с тем,
// что успело заполниться, возможно с нулями).
type DemandResolver struct {
	schedules      ScheduleSource
	activeProducts []models.Product
	proportions    []models.ProportionSetting
	hasProportions bool
}

// NewDemandResolver создает резолвер над снимком справочных данных одного расчета
func NewDemandResolver(schedules ScheduleSource, activeProducts []models.Product, proportions []models.ProportionSetting, hasProportions bool) *DemandResolver {
	return &DemandResolver{
		schedules:      schedules,
		activeProducts: activeProducts,
		proportions:    proportions,
		hasProportions: hasProportions,
	}
}

// resolveStrategy пытается заполнить quantities; true — если стратегия применилась
type resolveStrategy func(schedule models.ClientSchedule, detail *models.ScheduleOrderDetail, quantities map[string]float64) bool

// Resolve возвращает вклад одного клиента в спрос
func (r *DemandResolver) Resolve(schedule models.ClientSchedule) models.AuditItem {
	// Каждый активный товар стартует с нуля — аудит всегда полный по каталогу
	quantities := make(map[string]float64, len(r.activeProducts))
	for _, product := range r.activeProducts {
		quantities[product.Name] = 0
	}

	audit := models.AuditItem{
		ClientName:          schedule.Client.Name,
		ScheduleStatus:      schedule.Status,
		ScheduledDate:       schedule.ScheduledDate,
		ClientStatus:        schedule.Client.Status,
		QuantitiesByProduct: quantities,
	}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("⚠️ Сбой разрешения спроса для клиента %s: %v (вклад сохранен частично)", schedule.Client.Name, rec)
			}
		}()

		detail, err := r.schedules.GetOrderDetail(schedule.ID)
		if err != nil {
			// Детализация недоступна — работаем по грубым данным записи
			log.Printf("⚠️ Клиент %s: детализация заказа недоступна: %v", schedule.Client.Name, err)
			detail = nil
		}

		strategies := []resolveStrategy{
			r.detailedCustomized,
			r.detailedStandard,
			r.coarseCustomized,
			r.coarseStandard,
		}

		for _, strategy := range strategies {
			if strategy(schedule, detail, quantities) {
				return
			}
		}
	}()

	return audit
}

// detailedCustomized — детализированный заказ с непустым индивидуальным списком
// Позиции с неизвестными товарами игнорируются; дубликат перезаписывает (последняя запись выигрывает)
func (r *DemandResolver) detailedCustomized(schedule models.ClientSchedule, detail *models.ScheduleOrderDetail, quantities map[string]float64) bool {
	if detail == nil || detail.OrderKind != models.OrderKindCustomized || len(detail.Items) == 0 {
		return false
	}
	for _, item := range detail.Items {
		if _, active := quantities[item.ProductName]; active {
			quantities[item.ProductName] = item.Quantity
		}
	}
	return true
}

// detailedStandard — детализированный стандартный заказ через таблицу пропорций
func (r *DemandResolver) detailedStandard(schedule models.ClientSchedule, detail *models.ScheduleOrderDetail, quantities map[string]float64) bool {
	if detail == nil || detail.OrderKind != models.OrderKindStandard || detail.TotalQuantity <= 0 || !r.hasProportions {
		return false
	}
	r.applySplit(detail.TotalQuantity, quantities)
	return true
}

// coarseCustomized — индивидуальный список из самой записи графика
func (r *DemandResolver) coarseCustomized(schedule models.ClientSchedule, detail *models.ScheduleOrderDetail, quantities map[string]float64) bool {
	if schedule.OrderKind != models.OrderKindCustomized || len(schedule.Items) == 0 {
		return false
	}
	for _, item := range schedule.Items {
		if _, active := quantities[item.ProductName]; active {
			quantities[item.ProductName] = item.Quantity
		}
	}
	return true
}

// coarseStandard — объем записи графика, иначе базовый объем клиента, через пропорции
func (r *DemandResolver) coarseStandard(schedule models.ClientSchedule, detail *models.ScheduleOrderDetail, quantities map[string]float64) bool {
	if !r.hasProportions {
		return false
	}
	total := schedule.TotalQuantity
	if total <= 0 {
		total = schedule.Client.DefaultQuantity
	}
	if total <= 0 {
		return false
	}
	r.applySplit(total, quantities)
	return true
}

// applySplit копирует раскладку по пропорциям в количества активных товаров
func (r *DemandResolver) applySplit(total float64, quantities map[string]float64) {
	for productName, quantity := range SplitByProportions(r.proportions, total) {
		if _, active := quantities[productName]; active {
			quantities[productName] = quantity
		}
	}
}
