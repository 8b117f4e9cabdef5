package domain

import "errors"

var (
	// ErrCartEmpty возвращается при попытке оформить заказ из пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductStockNegative = errors.New("product stock must be non-negative")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrOrderItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrOrderItemProductRequired = errors.New("order item product_id is required")
	// Ошибка при некорректном количестве в позиции (<= 0).
	ErrOrderItemQtyInvalid = errors.New("order item quantity must be greater than zero")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderStatusUnknown — статус вне известного набора.
	ErrOrderStatusUnknown = errors.New("unknown order status")
	// ErrOrderStatusFinal — попытка сменить статус из DELIVERED/CANCELLED.
	ErrOrderStatusFinal = errors.New("order status can no longer be changed")
	// ErrNotAuthenticated — операция требует аутентифицированной сессии.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrNoPendingLogin — код авторизации предъявлен без начатого входа.
	ErrNoPendingLogin = errors.New("no login attempt in progress")
)
