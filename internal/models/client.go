package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientStatus представляет статус клиента
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"   // Активный
	ClientStatusInactive ClientStatus = "inactive" // Неактивный (архив)
)

// ScheduleStatus представляет статус записи графика пополнения
type ScheduleStatus string

const (
	ScheduleStatusPending   ScheduleStatus = "pending_schedule" // Ожидает назначения даты
	ScheduleStatusForecast  ScheduleStatus = "forecast"         // Прогнозная запись
	ScheduleStatusScheduled ScheduleStatus = "scheduled"        // Дата подтверждена
)

// OrderKind представляет тип заказа клиента
type OrderKind string

const (
	OrderKindStandard   OrderKind = "standard"   // Стандартный объем, раскладывается по таблице пропорций
	OrderKindCustomized OrderKind = "customized" // Индивидуальный список позиций
)

// Client представляет клиента (точку продаж, которую мы пополняем)
type Client struct {
	ID              string         `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null;index"`
	Status          ClientStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	DefaultQuantity float64        `json:"default_quantity" gorm:"type:decimal(10,2);default:0"` // Базовый объем стандартного заказа
	ContactPerson   string         `json:"contact_person" gorm:"type:varchar(255)"`
	Phone           string         `json:"phone" gorm:"type:varchar(50)"`
	Email           string         `json:"email" gorm:"type:varchar(255)"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate генерирует UUID
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	return nil
}

// ClientSchedule представляет одну запись графика пополнения клиента
// Создается и редактируется модулем планирования, движок расчета читает ее как есть
type ClientSchedule struct {
	ID            string               `json:"id" gorm:"type:uuid;primaryKey"`
	ClientID      string               `json:"client_id" gorm:"type:uuid;not null;index"`
	Client        Client               `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	ScheduledDate string               `json:"scheduled_date" gorm:"type:varchar(10);index"` // YYYY-MM-DD как пишет планировщик; кривые значения отфильтровываются при расчете
	Status        ScheduleStatus       `json:"status" gorm:"type:varchar(30);default:'pending_schedule';index"`
	OrderKind     OrderKind            `json:"order_kind" gorm:"type:varchar(20);default:'standard'"`
	TotalQuantity float64              `json:"total_quantity" gorm:"type:decimal(10,2);default:0"`
	Items         []ClientScheduleItem `json:"items,omitempty" gorm:"foreignKey:ScheduleID"`
	Notes         string               `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time            `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time            `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt     gorm.DeletedAt       `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName указывает имя таблицы
func (ClientSchedule) TableName() string {
	return "client_schedules"
}

// BeforeCreate генерирует UUID
func (cs *ClientSchedule) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == "" {
		cs.ID = uuid.New().String()
	}
	if cs.Status == "" {
		cs.Status = ScheduleStatusPending
	}
	if cs.OrderKind == "" {
		cs.OrderKind = OrderKindStandard
	}
	return nil
}

// ClientScheduleItem представляет позицию-переопределение в записи графика
type ClientScheduleItem struct {
	ID          string  `json:"id" gorm:"type:uuid;primaryKey"`
	ScheduleID  string  `json:"schedule_id" gorm:"type:uuid;not null;index"`
	ProductName string  `json:"product_name" gorm:"type:varchar(255);not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(10,2);not null"`
}

// TableName указывает имя таблицы
func (ClientScheduleItem) TableName() string {
	return "client_schedule_items"
}

// BeforeCreate генерирует UUID
func (csi *ClientScheduleItem) BeforeCreate(tx *gorm.DB) error {
	if csi.ID == "" {
		csi.ID = uuid.New().String()
	}
	return nil
}

// ScheduleOrderDetail представляет детализированный заказ по записи графика
// Заполняется отделом продаж; может отсутствовать — тогда расчет
// падает на грубые данные самой записи графика
type ScheduleOrderDetail struct {
	ID            string                    `json:"id" gorm:"type:uuid;primaryKey"`
	ScheduleID    string                    `json:"schedule_id" gorm:"type:uuid;not null;uniqueIndex"`
	OrderKind     OrderKind                 `json:"order_kind" gorm:"type:varchar(20);default:'standard'"`
	TotalQuantity float64                   `json:"total_quantity" gorm:"type:decimal(10,2);default:0"`
	Items         []ScheduleOrderDetailItem `json:"items,omitempty" gorm:"foreignKey:DetailID"`
	CreatedAt     time.Time                 `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time                 `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы
func (ScheduleOrderDetail) TableName() string {
	return "schedule_order_details"
}

// BeforeCreate генерирует UUID
func (sod *ScheduleOrderDetail) BeforeCreate(tx *gorm.DB) error {
	if sod.ID == "" {
		sod.ID = uuid.New().String()
	}
	return nil
}

// ScheduleOrderDetailItem представляет позицию детализированного заказа
type ScheduleOrderDetailItem struct {
	ID          string  `json:"id" gorm:"type:uuid;primaryKey"`
	DetailID    string  `json:"detail_id" gorm:"type:uuid;not null;index"`
	ProductName string  `json:"product_name" gorm:"type:varchar(255);not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(10,2);not null"`
}

// TableName указывает имя таблицы
func (ScheduleOrderDetailItem) TableName() string {
	return "schedule_order_detail_items"
}

// BeforeCreate генерирует UUID
func (sodi *ScheduleOrderDetailItem) BeforeCreate(tx *gorm.DB) error {
	if sodi.ID == "" {
		sodi.ID = uuid.New().String()
	}
	return nil
}
