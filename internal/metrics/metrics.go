package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики вычислительного движка закупок

var (
	// ComputationDuration — длительность полного расчета (от фильтра до сводки)
	ComputationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "procurement_computation_duration_seconds",
		Help:    "Длительность расчета закупок",
		Buckets: prometheus.DefBuckets,
	})

	// ComputationsTotal — расчеты по исходу
	ComputationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_computations_total",
		Help: "Количество расчетов по исходу",
	}, []string{"outcome"}) // success | failed | rejected

	// CacheHits / CacheMisses — попадания в FIFO-кэш результатов
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_cache_hits_total",
		Help: "Попадания в кэш результатов",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_cache_misses_total",
		Help: "Промахи кэша результатов",
	})

	// IgnoredProductsTotal — товары, не превращенные в потребность по сырью
	IgnoredProductsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "procurement_ignored_products_total",
		Help: "Пропущенные товары по причинам",
	}, []string{"reason"})
)
