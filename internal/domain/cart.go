package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// CartLine — одна позиция корзины: снимок товара и зарезервированное количество.
// Инвариант: Quantity >= 1 и в корзине не бывает двух позиций с одним Product.ID.
type CartLine struct {
	Product  Product
	Quantity int
}

// CartTotals — производные суммы корзины.
type CartTotals struct {
	TotalItems  int
	TotalAmount decimal.Decimal
}

// Cart хранит локальный резерв текущей сессии: сколько единиц каждого
// товара сессия намерена купить. Состояние живёт только в памяти процесса
// и уничтожается вместе с сессией. Удалённый stockQuantity корзине не
// принадлежит: доступность всегда считается от снимка, который передал
// вызывающий код, а все ограничения применяются в момент мутации.
// Производные суммы не кешируются — Totals пересчитывает их по позициям.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
}

// NewCart возвращает пустую корзину.
func NewCart() *Cart {
	return &Cart{}
}

// ReservedQuantity возвращает зарезервированное количество по товару;
// 0, если позиции нет.
func (c *Cart) ReservedQuantity(productID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reservedLocked(productID)
}

// AvailableStock — сколько единиц ещё можно зарезервировать:
// max(0, stockQuantity − reserved). Никогда не отрицательно.
func (c *Cart) AvailableStock(p Product) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availableLocked(p)
}

// CanReserve сообщает, остались ли единицы для резервирования.
func (c *Cart) CanReserve(p Product) bool {
	return c.AvailableStock(p) > 0
}

// Add резервирует до qty единиц товара, урезая запрос до доступного
// остатка; при нулевой доступности ничего не делает. Возвращает фактически
// добавленное количество. Снимок товара в позиции обновляется переданным
// значением, чтобы цена и название оставались актуальными.
func (c *Cart) Add(p Product, qty int) int {
	// Некорректный пользовательский ввод не считается ошибкой.
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.availableLocked(p)
	if available == 0 {
		return 0
	}

	actual := qty
	if actual > available {
		actual = available
	}

	if i := c.indexLocked(p.ID); i >= 0 {
		c.lines[i].Quantity += actual
		c.lines[i].Product = p
	} else {
		c.lines = append(c.lines, CartLine{Product: p, Quantity: actual})
	}
	return actual
}

// SetQuantity выставляет количество по позиции; qty <= 0 эквивалентно
// Remove, отсутствующая позиция — no-op. Значение урезается по
// stockQuantity из снимка самой позиции: свежий остаток сюда не
// передаётся, поэтому результат может отставать от реального склада до
// следующего Add с новым снимком. Расхождение всплывает как обычный отказ
// при оформлении заказа.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(productID)
	if i < 0 {
		return
	}
	if ceiling := c.lines[i].Product.StockQuantity; qty > ceiling {
		qty = ceiling
	}
	c.lines[i].Quantity = qty
}

// Remove удаляет позицию; повторный вызов — no-op.
func (c *Cart) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// Clear очищает корзину.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines возвращает копию позиций в порядке добавления.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Totals пересчитывает суммы по текущим позициям.
func (c *Cart) Totals() CartTotals {
	c.mu.Lock()
	defer c.mu.Unlock()

	totals := CartTotals{TotalAmount: decimal.Zero}
	for _, line := range c.lines {
		totals.TotalItems += line.Quantity
		lineAmount := line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		totals.TotalAmount = totals.TotalAmount.Add(lineAmount)
	}
	return totals
}

func (c *Cart) reservedLocked(productID string) int {
	if i := c.indexLocked(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) availableLocked(p Product) int {
	available := p.StockQuantity - c.reservedLocked(p.ID)
	if available < 0 {
		return 0
	}
	return available
}

func (c *Cart) indexLocked(productID string) int {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}
