// Package checkout превращает содержимое корзины в заказ.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service оформляет заказ из текущей корзины.
type Service struct {
	cart    *domain.Cart
	orders  domain.OrderService
	metrics *metrics.StorefrontMetrics
	logger  *log.Entry
}

// NewService создает сервис оформления заказов.
func NewService(cart *domain.Cart, orders domain.OrderService, m *metrics.StorefrontMetrics, logger *log.Entry) *Service {
	return &Service{
		cart:    cart,
		orders:  orders,
		metrics: m,
		logger:  logger,
	}
}

// NewServiceWithoutMetrics создает сервис оформления без метрик. Удобно в тестах.
func NewServiceWithoutMetrics(cart *domain.Cart, orders domain.OrderService, logger *log.Entry) *Service {
	return NewService(cart, orders, nil, logger)
}

// Submit отправляет содержимое корзины как новый заказ.
// Пустая корзина отклоняется локально без обращения к сети.
// При ошибке отправки корзина остается нетронутой, при успехе очищается.
func (s *Service) Submit(ctx context.Context) (domain.Order, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrCartEmpty
	}

	req := domain.OrderRequest{Items: make([]domain.OrderItemRequest, 0, len(lines))}
	for _, line := range lines {
		req.Items = append(req.Items, domain.OrderItemRequest{
			ProductID: line.Product.ID,
			Quantity:  line.Quantity,
		})
	}

	idempotencyKey := uuid.NewString()
	started := time.Now()

	order, err := s.orders.Create(ctx, req, idempotencyKey)
	if err != nil {
		s.recordFailure()
		s.logger.WithFields(log.Fields{
			"idempotency_key": idempotencyKey,
			"items":           len(req.Items),
		}).WithError(err).Error("Не удалось оформить заказ")
		return domain.Order{}, fmt.Errorf("submit order: %w", err)
	}

	s.cart.Clear()
	s.recordSuccess(time.Since(started))

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	}).Info("Заказ оформлен, корзина очищена")
	return order, nil
}

func (s *Service) recordSuccess(duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCheckoutSucceeded(duration)
	s.metrics.SetCartItems(0)
}

func (s *Service) recordFailure() {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCheckoutFailed()
}
