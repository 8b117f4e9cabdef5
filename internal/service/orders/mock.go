package orders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Mock — тестовая реализация сервиса заказов.
type Mock struct {
	mu sync.Mutex

	Orders    []domain.Order
	CreateErr error
	Err       error

	CreateCalls        int
	CancelCalls        int
	LastRequest        domain.OrderRequest
	LastIdempotencyKey string

	nextID int
}

// NewMock создает мок сервиса заказов.
func NewMock(orders ...domain.Order) *Mock {
	return &Mock{Orders: orders, nextID: len(orders)}
}

func (m *Mock) MyOrders(context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.Order, len(m.Orders))
	copy(out, m.Orders)
	return out, nil
}

func (m *Mock) Create(_ context.Context, req domain.OrderRequest, idempotencyKey string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	m.LastRequest = req
	m.LastIdempotencyKey = idempotencyKey
	if m.CreateErr != nil {
		return domain.Order{}, m.CreateErr
	}

	m.nextID++
	order := domain.Order{
		ID:          fmt.Sprintf("order-%d", m.nextID),
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.Zero,
		OrderDate:   time.Now(),
	}
	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	m.Orders = append(m.Orders, order)
	return order, nil
}

func (m *Mock) Get(_ context.Context, id string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Order{}, m.Err
	}
	for _, o := range m.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (m *Mock) Items(ctx context.Context, id string) ([]domain.OrderItem, error) {
	order, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return order.Items, nil
}

func (m *Mock) Cancel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls++
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Orders {
		if m.Orders[i].ID == id {
			if !m.Orders[i].Status.Cancellable() {
				return domain.ErrOrderStatusFinal
			}
			m.Orders[i].Status = domain.OrderStatusCancelled
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (m *Mock) List(ctx context.Context) ([]domain.Order, error) {
	return m.MyOrders(ctx)
}

func (m *Mock) ByStatus(_ context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Order
	for _, o := range m.Orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *Mock) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Order{}, m.Err
	}
	if !status.Valid() {
		return domain.Order{}, domain.ErrOrderStatusUnknown
	}
	for i := range m.Orders {
		if m.Orders[i].ID == id {
			m.Orders[i].Status = status
			return m.Orders[i], nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

var _ domain.OrderService = (*Mock)(nil)
