package api

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/services"

	"github.com/segmentio/kafka-go"
)

// DataEventsConsumer читает события изменения данных из Kafka и сбрасывает
// кэш расчетов: любой апдейт графика, каталога, рецептов или склада делает
// закэшированные результаты недостоверными
type DataEventsConsumer struct {
	topic     string
	groupID   string
	reader    *kafka.Reader
	ctx       context.Context
	cancel    context.CancelFunc
	engine    *services.ProcurementEngineService
	processed int64
}

// dataEvent — событие изменения данных от внешних модулей
type dataEvent struct {
	Entity   string `json:"entity"` // schedule | client | product | recipe | ingredient | proportion | stock
	Action   string `json:"action"` // created | updated | deleted
	EntityID string `json:"entity_id,omitempty"`
}

// relevantEntities — сущности, изменение которых инвалидирует расчет
var relevantEntities = map[string]bool{
	"schedule":   true,
	"client":     true,
	"product":    true,
	"recipe":     true,
	"ingredient": true,
	"proportion": true,
	"stock":      true,
}

// NewDataEventsConsumer создает consumer событий изменения данных
func NewDataEventsConsumer(brokers, topic string, engine *services.ProcurementEngineService, username, password, caCert string) *DataEventsConsumer {
	brokerList := ParseKafkaBrokers(brokers)
	ctx, cancel := context.WithCancel(context.Background())

	dialer := CreateKafkaDialer(username, password, caCert)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList,
		Topic:    topic,
		GroupID:  "procurement-engine-group",
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  1 * time.Second,
		Dialer:   dialer,
	})

	return &DataEventsConsumer{
		topic:   topic,
		groupID: "procurement-engine-group",
		reader:  reader,
		ctx:     ctx,
		cancel:  cancel,
		engine:  engine,
	}
}

// Start запускает чтение событий
func (dc *DataEventsConsumer) Start() {
	log.Printf("📡 Consumer событий данных запущен: topic=%s, groupID=%s", dc.topic, dc.groupID)

	go func() {
		for {
			select {
			case <-dc.ctx.Done():
				log.Println("🛑 Consumer событий данных остановлен")
				return
			default:
				msg, err := dc.reader.ReadMessage(dc.ctx)
				if err != nil {
					if err == context.Canceled {
						return
					}
					log.Printf("⚠️ Consumer событий данных, ошибка чтения: %v", err)
					time.Sleep(1 * time.Second)
					continue
				}

				var event dataEvent
				if err := json.Unmarshal(msg.Value, &event); err != nil {
					// Чужой формат в топике — не спамим логами на каждое сообщение
					continue
				}

				if !relevantEntities[event.Entity] {
					continue
				}

				atomic.AddInt64(&dc.processed, 1)
				log.Printf("📨 Событие данных: %s %s — сбрасываем кэш расчетов", event.Entity, event.Action)
				dc.engine.ClearCache()
			}
		}
	}()
}

// Stop останавливает consumer
func (dc *DataEventsConsumer) Stop() {
	dc.cancel()
	if err := dc.reader.Close(); err != nil {
		log.Printf("⚠️ Ошибка закрытия Kafka reader: %v", err)
	}
}
