// Package catalog реализует клиент каталога товаров поверх HTTP шлюза.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/transport"
)

const basePath = "/product-service/api/products"

// defaultLowStockThreshold используется, когда вызывающий не задал порог.
const defaultLowStockThreshold = 10

// Client — клиент сервиса товаров.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *log.Entry
}

// NewClient создает клиент каталога, работающий через указанный шлюз.
func NewClient(httpClient *http.Client, gatewayURL string, logger *log.Entry) *Client {
	return &Client{
		http:    httpClient,
		baseURL: gatewayURL + basePath,
		logger:  logger,
	}
}

// List возвращает все товары каталога.
func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := transport.Call(ctx, c.http, http.MethodGet, c.baseURL, nil, nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get возвращает товар по идентификатору.
func (c *Client) Get(ctx context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := transport.Call(ctx, c.http, http.MethodGet, c.itemURL(id), nil, nil, &product)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

// Search ищет товары по подстроке названия.
func (c *Client) Search(ctx context.Context, name string) ([]domain.Product, error) {
	endpoint := c.baseURL + "/search?name=" + url.QueryEscape(name)
	var products []domain.Product
	if err := transport.Call(ctx, c.http, http.MethodGet, endpoint, nil, nil, &products); err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

// InStock возвращает товары с положительным остатком.
func (c *Client) InStock(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := transport.Call(ctx, c.http, http.MethodGet, c.baseURL+"/in-stock", nil, nil, &products); err != nil {
		return nil, fmt.Errorf("in-stock products: %w", err)
	}
	return products, nil
}

// LowStock возвращает товары с остатком ниже порога.
func (c *Client) LowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	endpoint := c.baseURL + "/low-stock?threshold=" + strconv.Itoa(threshold)
	var products []domain.Product
	if err := transport.Call(ctx, c.http, http.MethodGet, endpoint, nil, nil, &products); err != nil {
		return nil, fmt.Errorf("low-stock products: %w", err)
	}
	return products, nil
}

// CheckStock проверяет, хватает ли остатка для запрошенного количества.
func (c *Client) CheckStock(ctx context.Context, id string, quantity int) (bool, error) {
	endpoint := c.itemURL(id) + "/check-stock?quantity=" + strconv.Itoa(quantity)
	var available bool
	if err := transport.Call(ctx, c.http, http.MethodGet, endpoint, nil, nil, &available); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return false, domain.ErrProductNotFound
		}
		return false, fmt.Errorf("check stock %s: %w", id, err)
	}
	return available, nil
}

// ReduceStock списывает количество товара со склада.
func (c *Client) ReduceStock(ctx context.Context, id string, quantity int) error {
	endpoint := c.itemURL(id) + "/reduce-stock?quantity=" + strconv.Itoa(quantity)
	if err := transport.Call(ctx, c.http, http.MethodPut, endpoint, nil, nil, nil); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("reduce stock %s: %w", id, err)
	}
	return nil
}

// Create добавляет новый товар в каталог. Доступно только администратору.
func (c *Client) Create(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}
	var product domain.Product
	if err := transport.Call(ctx, c.http, http.MethodPost, c.baseURL, nil, req, &product); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	c.logger.WithField("product_id", product.ID).Info("Товар создан")
	return product, nil
}

// Update обновляет существующий товар.
func (c *Client) Update(ctx context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}
	var product domain.Product
	err := transport.Call(ctx, c.http, http.MethodPut, c.itemURL(id), nil, req, &product)
	if err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	return product, nil
}

// Delete удаляет товар из каталога.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := transport.Call(ctx, c.http, http.MethodDelete, c.itemURL(id), nil, nil, nil); err != nil {
		if transport.IsStatus(err, http.StatusNotFound) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

func (c *Client) itemURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(id)
}

var _ domain.CatalogService = (*Client)(nil)
