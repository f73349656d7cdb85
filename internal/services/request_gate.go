package services

import (
	"log"
	"sync"
	"time"
)

// GateState представляет состояние машины запросов на пересчет
type GateState string

const (
	GateIdle       GateState = "idle"       // Нет ожидающих запросов
	GateDebouncing GateState = "debouncing" // Таймер тишины запущен
	GateRunning    GateState = "running"    // Пересчет выполняется
)

// RequestGate — явная машина состояний перед пересчетом:
// Idle → Debouncing → Running → Idle.
// Частые повторные запросы (пользователь щелкает фильтрами) перезапускают
// таймер тишины; запрос во время выполнения отклоняется — отмены
// выполняющегося расчета нет, вызывающий ждет завершения.
type RequestGate struct {
	mu       sync.Mutex
	state    GateState
	debounce time.Duration
	timer    *time.Timer
	run      func() // Действие после тишины; выполняется в отдельной горутине
}

// NewRequestGate создает машину с заданным интервалом тишины
func NewRequestGate(debounce time.Duration, run func()) *RequestGate {
	return &RequestGate{
		state:    GateIdle,
		debounce: debounce,
		run:      run,
	}
}

// Request регистрирует запрос на пересчет
// false — запрос отклонен, потому что пересчет уже выполняется
func (g *RequestGate) Request() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case GateRunning:
		return false
	case GateDebouncing:
		// Новый запрос во время тишины перезапускает таймер
		g.timer.Reset(g.debounce)
		return true
	default:
		g.state = GateDebouncing
		g.timer = time.AfterFunc(g.debounce, g.fire)
		return true
	}
}

// fire переводит машину в Running и выполняет действие
func (g *RequestGate) fire() {
	g.mu.Lock()
	if g.state != GateDebouncing {
		g.mu.Unlock()
		return
	}
	g.state = GateRunning
	g.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("❌ Паника в действии пересчета: %v", rec)
		}
		g.mu.Lock()
		g.state = GateIdle
		g.mu.Unlock()
	}()

	if g.run != nil {
		g.run()
	}
}

// State возвращает текущее состояние машины
func (g *RequestGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Stop гасит ожидающий таймер (для корректного shutdown)
func (g *RequestGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	if g.state == GateDebouncing {
		g.state = GateIdle
	}
}
