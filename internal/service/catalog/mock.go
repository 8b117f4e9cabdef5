package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Mock — тестовая реализация каталога с настраиваемым набором товаров.
type Mock struct {
	mu sync.Mutex

	Products []domain.Product
	Err      error

	ListCalls        int
	GetCalls         int
	SearchCalls      int
	ReduceStockCalls int
}

// NewMock создает мок каталога с указанными товарами.
func NewMock(products ...domain.Product) *Mock {
	return &Mock{Products: products}
}

func (m *Mock) List(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.Product, len(m.Products))
	copy(out, m.Products)
	return out, nil
}

func (m *Mock) Get(_ context.Context, id string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	for _, p := range m.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (m *Mock) Search(_ context.Context, name string) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Product
	for _, p := range m.Products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Mock) InStock(context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Product
	for _, p := range m.Products {
		if p.StockQuantity > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Mock) LowStock(_ context.Context, threshold int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	var out []domain.Product
	for _, p := range m.Products {
		if p.StockQuantity < threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *Mock) CheckStock(ctx context.Context, id string, quantity int) (bool, error) {
	product, err := m.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return product.StockQuantity >= quantity, nil
}

func (m *Mock) ReduceStock(_ context.Context, id string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReduceStockCalls++
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Products {
		if m.Products[i].ID == id {
			m.Products[i].StockQuantity -= quantity
			if m.Products[i].StockQuantity < 0 {
				m.Products[i].StockQuantity = 0
			}
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (m *Mock) Create(_ context.Context, req domain.ProductRequest) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	product := domain.Product{
		ID:            fmt.Sprintf("product-%d", len(m.Products)+1),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	m.Products = append(m.Products, product)
	return product, nil
}

func (m *Mock) Update(_ context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Product{}, m.Err
	}
	for i := range m.Products {
		if m.Products[i].ID == id {
			m.Products[i].Name = req.Name
			m.Products[i].Description = req.Description
			m.Products[i].Price = req.Price
			m.Products[i].StockQuantity = req.StockQuantity
			return m.Products[i], nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (m *Mock) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Products {
		if m.Products[i].ID == id {
			m.Products = append(m.Products[:i], m.Products[i+1:]...)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

var _ domain.CatalogService = (*Mock)(nil)
