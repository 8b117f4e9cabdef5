package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа на стороне шлюза.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, подтверждение ещё не получено.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён, ещё не взят в работу.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusProcessing — заказ собирается.
	OrderStatusProcessing OrderStatus = "PROCESSING"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен, цикл завершён.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Valid сообщает, входит ли статус в известный набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal сообщает, финален ли статус: из DELIVERED и CANCELLED переходов нет,
// интерфейс блокирует смену статуса локально, сервер — авторитетно.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable сообщает, может ли клиент отменить заказ в этом статусе.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// ParseOrderStatus приводит пользовательский ввод к OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrOrderStatusUnknown, raw)
	}
	return status, nil
}

// OrderItem — одна позиция заказа в ответе шлюза.
type OrderItem struct {
	ID          int64           `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Order — заказ в том виде, в котором его отдаёт шлюз.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Username    string          `json:"username"`
	Status      OrderStatus     `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Items       []OrderItem     `json:"items"`
	OrderDate   time.Time       `json:"orderDate"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderItemRequest — позиция в запросе на создание заказа.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest — запрос на создание заказа из текущей корзины.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// Validate проверяет базовые инварианты запроса и возвращает список замечаний.
func (r *OrderRequest) Validate() []error {
	var errs []error

	if len(r.Items) == 0 {
		errs = append(errs, ErrOrderItemsRequired)
	}
	for _, item := range r.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrOrderItemProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrOrderItemQtyInvalid)
		}
	}

	return errs
}
