package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// ResultCache мемоизирует аудит расчета по комбинации фильтров.
// Вытеснение строго FIFO (не LRU): комбинаций фильтров у дашборда мало
// и живут они недолго, простота тут важнее оптимальности.
// Кэш — явная зависимость движка, не глобальный синглтон: тесты создают свой
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	order    []string // Ключи в порядке вставки
	entries  map[string][]models.AuditItem
}

// NewResultCache создает кэш заданной емкости
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = 10
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string][]models.AuditItem),
	}
}

// BuildCacheKey сериализует точный кортеж фильтров в строковый ключ
func BuildCacheKey(start, end time.Time, clientFilter, statusFilter string) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		start.Format("2006-01-02"), end.Format("2006-01-02"), clientFilter, statusFilter)
}

// Get возвращает сохраненный аудит по ключу
func (c *ResultCache) Get(key string) ([]models.AuditItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.entries[key]
	return items, ok
}

// Put сохраняет аудит; при переполнении вытесняется самый старый ключ
func (c *ResultCache) Put(key string, items []models.AuditItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		// Перезапись не двигает ключ в очереди — FIFO по первой вставке
		c.entries[key] = items
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.order = append(c.order, key)
	c.entries[key] = items
}

// Clear безусловно опустошает кэш
// Вызывается при любом изменении данных графика/каталога/рецептов/склада
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.entries = make(map[string][]models.AuditItem)
}

// Len возвращает количество записей в кэше
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
