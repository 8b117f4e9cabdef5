// Package orders реализует клиент сервиса заказов поверх HTTP шлюза.
package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/transport"
)

const basePath = "/command-service/api/orders"

// Client — клиент сервиса заказов.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *log.Entry
}

// NewClient создает клиент заказов, работающий через указанный шлюз.
func NewClient(httpClient *http.Client, gatewayURL string, logger *log.Entry) *Client {
	return &Client{
		http:    httpClient,
		baseURL: gatewayURL + basePath,
		logger:  logger,
	}
}

// MyOrders возвращает заказы текущего пользователя.
func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := transport.Call(ctx, c.http, http.MethodGet, c.baseURL+"/my-orders", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("my orders: %w", err)
	}
	return out, nil
}

// Create оформляет новый заказ. Ключ идемпотентности защищает от
// двойного списания при повторной отправке того же запроса.
func (c *Client) Create(ctx context.Context, req domain.OrderRequest, idempotencyKey string) (domain.Order, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set("Idempotency-Key", idempotencyKey)
	}

	var order domain.Order
	if err := transport.Call(ctx, c.http, http.MethodPost, c.baseURL, headers, req, &order); err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	c.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("Заказ создан")
	return order, nil
}

// Get возвращает заказ по идентификатору.
func (c *Client) Get(ctx context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := transport.Call(ctx, c.http, http.MethodGet, c.itemURL(id), nil, nil, &order)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// Items возвращает позиции заказа.
func (c *Client) Items(ctx context.Context, id string) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := transport.Call(ctx, c.http, http.MethodGet, c.itemURL(id)+"/items", nil, nil, &items)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order items %s: %w", id, err)
	}
	return items, nil
}

// Cancel отменяет заказ. Сервер сам решает, допускает ли текущий статус отмену.
func (c *Client) Cancel(ctx context.Context, id string) error {
	if err := transport.Call(ctx, c.http, http.MethodDelete, c.itemURL(id), nil, nil, nil); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("cancel order %s: %w", id, err)
	}
	c.logger.WithField("order_id", id).Info("Заказ отменен")
	return nil
}

// List возвращает все заказы. Доступно только администратору.
func (c *Client) List(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := transport.Call(ctx, c.http, http.MethodGet, c.baseURL, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out, nil
}

// ByStatus возвращает заказы с указанным статусом. Доступно только администратору.
func (c *Client) ByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrOrderStatusUnknown
	}
	endpoint := c.baseURL + "/status/" + url.PathEscape(string(status))
	var out []domain.Order
	if err := transport.Call(ctx, c.http, http.MethodGet, endpoint, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("orders by status %s: %w", status, err)
	}
	return out, nil
}

// UpdateStatus переводит заказ в новый статус. Доступно только администратору.
func (c *Client) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrOrderStatusUnknown
	}
	endpoint := c.itemURL(id) + "/status?status=" + url.QueryEscape(string(status))
	var order domain.Order
	err := transport.Call(ctx, c.http, http.MethodPut, endpoint, nil, nil, &order)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("update order %s status: %w", id, err)
	}
	return order, nil
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

var _ domain.OrderService = (*Client)(nil)
