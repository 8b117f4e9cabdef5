package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — товар каталога в том виде, в котором его отдаёт шлюз.
// StockQuantity принадлежит удалённому каталогу и может измениться между
// любыми двумя чтениями; корзина никогда не считает это значение своим.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ProductRequest — payload для создания/обновления товара (админ-операции каталога).
type ProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// Validate проверяет, корректно ли заполнены поля запроса.
func (r *ProductRequest) Validate() []error {
	var errs []error

	if r.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if r.Price.IsNegative() {
		errs = append(errs, ErrProductPriceNegative)
	}
	if r.StockQuantity < 0 {
		errs = append(errs, ErrProductStockNegative)
	}

	return errs
}
