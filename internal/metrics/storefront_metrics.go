package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics содержит метрики корзины и оформления заказов.
type StorefrontMetrics struct {
	// Счётчики операций корзины
	cartAdds    prometheus.Counter
	cartClamped prometheus.Counter

	// Счётчики оформления заказов
	checkoutSucceeded prometheus.Counter
	checkoutFailed    prometheus.Counter

	// Гистограмма времени оформления
	checkoutDuration prometheus.Histogram

	// Gauge текущего размера корзины
	cartItems prometheus.Gauge
}

// NewStorefrontMetrics создаёт новый экземпляр метрик витрины.
func NewStorefrontMetrics() *StorefrontMetrics {
	return newStorefrontMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newStorefrontMetricsWithRegisterer(registerer prometheus.Registerer) *StorefrontMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StorefrontMetrics{
		cartAdds: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_adds_total",
			Help: "Total number of cart add operations",
		}),
		cartClamped: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_clamped_total",
			Help: "Total number of cart adds clamped by available stock",
		}),
		checkoutSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_succeeded_total",
			Help: "Total number of successfully submitted orders",
		}),
		checkoutFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_failed_total",
			Help: "Total number of failed order submissions",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of order submission in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cartItems: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_cart_items",
			Help: "Number of units currently reserved in the cart",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCartAdd увеличивает счётчик добавлений и, если запрошено больше,
// чем удалось зарезервировать, счётчик ограниченных добавлений.
func (m *StorefrontMetrics) RecordCartAdd(admitted, requested int) {
	m.cartAdds.Inc()
	if admitted < requested {
		m.cartClamped.Inc()
	}
}

// SetCartItems фиксирует текущее количество единиц товара в корзине.
func (m *StorefrontMetrics) SetCartItems(n int) {
	m.cartItems.Set(float64(n))
}

// RecordCheckoutSucceeded увеличивает счётчик успешных оформлений
// и записывает время выполнения.
func (m *StorefrontMetrics) RecordCheckoutSucceeded(duration time.Duration) {
	m.checkoutSucceeded.Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordCheckoutFailed увеличивает счётчик неудачных оформлений.
func (m *StorefrontMetrics) RecordCheckoutFailed() {
	m.checkoutFailed.Inc()
}
