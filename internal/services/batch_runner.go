package services

import (
	"context"
	"sync"
	"time"

	"github.com/VerticalAgents/mischa-os-sub002/internal/models"
)

// BatchRunner прогоняет разрешение спроса по записям графика чанками
// ограниченного размера. Внутри чанка клиенты обрабатываются горутинами
// (порядок завершения не важен, результат пишется по индексу входа),
// между чанками — кооперативная пауза, чтобы не душить интерактивную работу
// сервера на больших выборках.
type BatchRunner struct {
	chunkSize int
	pause     time.Duration

	// OnChunk вызывается после каждого обработанного чанка (прогресс для логов/WS)
	OnChunk func(chunkIndex, processed, total int)
}

// NewBatchRunner создает раннер с заданным размером чанка и паузой между чанками
func NewBatchRunner(chunkSize int, pause time.Duration) *BatchRunner {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	return &BatchRunner{chunkSize: chunkSize, pause: pause}
}

// Run обрабатывает все записи и возвращает аудит в порядке входа
func (br *BatchRunner) Run(ctx context.Context, schedules []models.ClientSchedule, resolve func(models.ClientSchedule) models.AuditItem) []models.AuditItem {
	results := make([]models.AuditItem, len(schedules))

	chunkIndex := 0
	for offset := 0; offset < len(schedules); offset += br.chunkSize {
		end := offset + br.chunkSize
		if end > len(schedules) {
			end = len(schedules)
		}

		var wg sync.WaitGroup
		for i := offset; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = resolve(schedules[i])
			}(i)
		}
		wg.Wait()

		chunkIndex++
		if br.OnChunk != nil {
			br.OnChunk(chunkIndex, end, len(schedules))
		}

		// Уступаем планировщику между чанками (кроме последнего)
		if end < len(schedules) && br.pause > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(br.pause):
			}
		}
	}

	return results
}
