package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const prompt = "storefront> "

// Shell — интерактивная оболочка витрины. Один процесс обслуживает
// одну пользовательскую сессию и одну корзину.
type Shell struct {
	deps    *Dependencies
	out     io.Writer
	scanner *bufio.Scanner
	logger  *log.Entry
}

// NewShell создает оболочку поверх собранных зависимостей.
func NewShell(deps *Dependencies, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		deps:    deps,
		out:     out,
		scanner: bufio.NewScanner(in),
		logger:  deps.Logger.WithField("component", "shell"),
	}
}

// Run читает команды до конца ввода или отмены контекста.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("Витрина заказов. Введите help для списка команд.\n")

	for {
		s.printf(prompt)
		if !s.scanner.Scan() {
			return s.scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(s.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		command, args := fields[0], fields[1:]

		if command == "exit" || command == "quit" {
			return nil
		}
		s.dispatch(ctx, command, args)
	}
}

func (s *Shell) dispatch(ctx context.Context, command string, args []string) {
	switch command {
	case "help":
		s.printHelp()
	case "login":
		s.login(ctx)
	case "logout":
		s.logout(ctx)
	case "whoami":
		s.whoami()
	case "products":
		s.products(ctx)
	case "search":
		s.search(ctx, args)
	case "product":
		s.product(ctx, args)
	case "add":
		s.add(ctx, args)
	case "cart":
		s.showCart()
	case "set":
		s.setQuantity(args)
	case "remove":
		s.remove(args)
	case "checkout":
		s.checkout(ctx)
	case "orders":
		s.orders(ctx)
	case "order":
		s.order(ctx, args)
	case "cancel":
		s.cancel(ctx, args)
	case "all-orders":
		s.allOrders(ctx, args)
	case "status":
		s.updateStatus(ctx, args)
	case "low-stock":
		s.lowStock(ctx, args)
	default:
		s.printf("неизвестная команда %q, введите help\n", command)
	}
}

func (s *Shell) printHelp() {
	s.printf(`Команды:
  login                       вход через браузер (code + PKCE)
  logout                      выход и завершение сессии
  whoami                      текущий пользователь и роли
  products                    список товаров
  search <текст>              поиск товаров по названию
  product <id>                карточка товара
  add <id> [кол-во]           добавить товар в корзину
  cart                        содержимое корзины
  set <id> <кол-во>           изменить количество в корзине
  remove <id>                 убрать товар из корзины
  checkout                    оформить заказ из корзины
  orders                      мои заказы
  order <id>                  заказ с позициями
  cancel <id>                 отменить заказ
  all-orders [статус]         все заказы (администратор)
  status <id> <статус>        сменить статус заказа (администратор)
  low-stock [порог]           товары с низким остатком (администратор)
  exit                        выход
`)
}

func (s *Shell) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}

// requireShopper проверяет, что пользователь вошел и имеет роль покупателя.
func (s *Shell) requireShopper() bool {
	if !s.deps.Session.Authenticated() {
		s.printf("требуется вход, выполните login\n")
		return false
	}
	if !s.deps.Session.HasRole(domain.RoleClient) && !s.deps.Session.HasRole(domain.RoleAdmin) {
		s.printf("недостаточно прав для этой операции\n")
		return false
	}
	return true
}

func (s *Shell) requireAdmin() bool {
	if !s.deps.Session.Authenticated() {
		s.printf("требуется вход, выполните login\n")
		return false
	}
	if !s.deps.Session.HasRole(domain.RoleAdmin) {
		s.printf("команда доступна только администратору\n")
		return false
	}
	return true
}

func (s *Shell) login(ctx context.Context) {
	loginURL, err := s.deps.Session.BeginLogin(ctx)
	if err != nil {
		s.printf("не удалось начать вход: %v\n", err)
		return
	}
	s.printf("Откройте в браузере:\n  %s\nи вставьте полученный code: ", loginURL)

	if !s.scanner.Scan() {
		s.printf("\nвход прерван\n")
		return
	}
	code := strings.TrimSpace(s.scanner.Text())
	if code == "" {
		s.printf("пустой code, вход прерван\n")
		return
	}

	if err := s.deps.Session.CompleteLogin(ctx, code); err != nil {
		s.printf("вход не выполнен: %v\n", err)
		return
	}
	if user, ok := s.deps.Session.User(); ok {
		s.printf("добро пожаловать, %s\n", user.Username)
	}
}

func (s *Shell) logout(ctx context.Context) {
	if err := s.deps.Session.Logout(ctx); err != nil {
		s.logger.WithError(err).Warn("Сессия на стороне провайдера не закрыта")
	}
	s.printf("сессия завершена\n")
}

func (s *Shell) whoami() {
	user, ok := s.deps.Session.User()
	if !ok {
		s.printf("вы не вошли в систему\n")
		return
	}
	s.printf("пользователь: %s\nemail: %s\nроли: %s\n",
		user.Username, user.Email, strings.Join(user.Roles, ", "))
}

func (s *Shell) products(ctx context.Context) {
	products, err := s.deps.Catalog.List(ctx)
	if err != nil {
		s.printf("не удалось получить каталог: %v\n", err)
		return
	}
	s.printProducts(products)
}

func (s *Shell) search(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.printf("использование: search <текст>\n")
		return
	}
	products, err := s.deps.Catalog.Search(ctx, strings.Join(args, " "))
	if err != nil {
		s.printf("поиск не выполнен: %v\n", err)
		return
	}
	s.printProducts(products)
}

func (s *Shell) printProducts(products []domain.Product) {
	if len(products) == 0 {
		s.printf("ничего не найдено\n")
		return
	}
	for _, p := range products {
		available := s.deps.Cart.AvailableStock(p)
		s.printf("%-10s %-30s %10s ₽  остаток %d (доступно %d)\n",
			p.ID, p.Name, p.Price.StringFixed(2), p.StockQuantity, available)
	}
}

func (s *Shell) product(ctx context.Context, args []string) {
	id, ok := s.parseID(args, "product <id>")
	if !ok {
		return
	}
	p, err := s.deps.Catalog.Get(ctx, id)
	if err != nil {
		s.printf("товар не получен: %v\n", err)
		return
	}
	s.printf("%s (id %s)\n%s\nцена: %s ₽\nостаток: %d, доступно: %d\n",
		p.Name, p.ID, p.Description, p.Price.StringFixed(2),
		p.StockQuantity, s.deps.Cart.AvailableStock(p))
}

// add сверяет резерв со свежим остатком со склада, поэтому перед
// добавлением карточка товара запрашивается заново.
func (s *Shell) add(ctx context.Context, args []string) {
	if !s.requireShopper() {
		return
	}
	if len(args) == 0 {
		s.printf("использование: add <id> [кол-во]\n")
		return
	}
	id := args[0]
	quantity := 1
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil {
			s.printf("некорректное количество %q\n", args[1])
			return
		}
		quantity = parsed
	}

	product, err := s.deps.Catalog.Get(ctx, id)
	if err != nil {
		s.printf("товар не получен: %v\n", err)
		return
	}

	admitted := s.deps.Cart.Add(product, quantity)
	s.deps.Metrics.RecordCartAdd(admitted, quantity)
	s.deps.Metrics.SetCartItems(s.deps.Cart.Totals().TotalItems)

	switch {
	case admitted == 0:
		s.printf("товар %q закончился, в корзину ничего не добавлено\n", product.Name)
	case admitted < quantity:
		s.printf("добавлено только %d из %d: больше нет на складе\n", admitted, quantity)
	default:
		s.printf("добавлено %d x %s\n", admitted, product.Name)
	}
}

func (s *Shell) showCart() {
	lines := s.deps.Cart.Lines()
	if len(lines) == 0 {
		s.printf("корзина пуста\n")
		return
	}
	for _, line := range lines {
		subtotal := line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		s.printf("%-10s %-30s %3d x %s = %s ₽\n",
			line.Product.ID, line.Product.Name, line.Quantity,
			line.Product.Price.StringFixed(2), subtotal.StringFixed(2))
	}
	totals := s.deps.Cart.Totals()
	s.printf("итого: %d поз., %s ₽\n", totals.TotalItems, totals.TotalAmount.StringFixed(2))
}

func (s *Shell) setQuantity(args []string) {
	if !s.requireShopper() {
		return
	}
	if len(args) != 2 {
		s.printf("использование: set <id> <кол-во>\n")
		return
	}
	id := args[0]
	quantity, err := strconv.Atoi(args[1])
	if err != nil {
		s.printf("некорректное количество %q\n", args[1])
		return
	}

	s.deps.Cart.SetQuantity(id, quantity)
	s.deps.Metrics.SetCartItems(s.deps.Cart.Totals().TotalItems)
	s.showCart()
}

func (s *Shell) remove(args []string) {
	if !s.requireShopper() {
		return
	}
	id, ok := s.parseID(args, "remove <id>")
	if !ok {
		return
	}
	s.deps.Cart.Remove(id)
	s.deps.Metrics.SetCartItems(s.deps.Cart.Totals().TotalItems)
	s.showCart()
}

func (s *Shell) checkout(ctx context.Context) {
	if !s.requireShopper() {
		return
	}
	order, err := s.deps.Checkout.Submit(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCartEmpty) {
			s.printf("корзина пуста, оформлять нечего\n")
			return
		}
		s.printf("заказ не оформлен: %v\nкорзина сохранена, попробуйте еще раз\n", err)
		return
	}
	s.printf("заказ %s оформлен, статус %s, сумма %s ₽\n",
		order.ID, order.Status, order.TotalAmount.StringFixed(2))
}

func (s *Shell) orders(ctx context.Context) {
	if !s.requireShopper() {
		return
	}
	orders, err := s.deps.Orders.MyOrders(ctx)
	if err != nil {
		s.printf("заказы не получены: %v\n", err)
		return
	}
	s.printOrders(orders)
}

func (s *Shell) order(ctx context.Context, args []string) {
	if !s.requireShopper() {
		return
	}
	id, ok := s.parseID(args, "order <id>")
	if !ok {
		return
	}
	order, err := s.deps.Orders.Get(ctx, id)
	if err != nil {
		s.printf("заказ не получен: %v\n", err)
		return
	}
	s.printf("заказ %s, статус %s, сумма %s ₽, оформлен %s\n",
		order.ID, order.Status, order.TotalAmount.StringFixed(2),
		order.OrderDate.Format("2006-01-02 15:04"))

	items := order.Items
	if len(items) == 0 {
		items, err = s.deps.Orders.Items(ctx, id)
		if err != nil {
			s.printf("позиции не получены: %v\n", err)
			return
		}
	}
	for _, item := range items {
		s.printf("  %-30s %3d x %s = %s ₽\n",
			item.ProductName, item.Quantity,
			item.UnitPrice.StringFixed(2), item.Subtotal.StringFixed(2))
	}
}

func (s *Shell) cancel(ctx context.Context, args []string) {
	if !s.requireShopper() {
		return
	}
	id, ok := s.parseID(args, "cancel <id>")
	if !ok {
		return
	}
	if err := s.deps.Orders.Cancel(ctx, id); err != nil {
		s.printf("заказ не отменен: %v\n", err)
		return
	}
	s.printf("заказ %s отменен\n", id)
}

func (s *Shell) allOrders(ctx context.Context, args []string) {
	if !s.requireAdmin() {
		return
	}
	var (
		orders []domain.Order
		err    error
	)
	if len(args) > 0 {
		status, parseErr := domain.ParseOrderStatus(args[0])
		if parseErr != nil {
			s.printf("неизвестный статус %q\n", args[0])
			return
		}
		orders, err = s.deps.Orders.ByStatus(ctx, status)
	} else {
		orders, err = s.deps.Orders.List(ctx)
	}
	if err != nil {
		s.printf("заказы не получены: %v\n", err)
		return
	}
	s.printOrders(orders)
}

func (s *Shell) updateStatus(ctx context.Context, args []string) {
	if !s.requireAdmin() {
		return
	}
	if len(args) != 2 {
		s.printf("использование: status <id> <статус>\n")
		return
	}
	id := args[0]
	status, err := domain.ParseOrderStatus(args[1])
	if err != nil {
		s.printf("неизвестный статус %q\n", args[1])
		return
	}

	// Завершенный заказ не трогаем даже без похода на сервер.
	current, err := s.deps.Orders.Get(ctx, id)
	if err != nil {
		s.printf("заказ не получен: %v\n", err)
		return
	}
	if current.Status.Terminal() {
		s.printf("заказ %s уже в финальном статусе %s\n", id, current.Status)
		return
	}

	order, err := s.deps.Orders.UpdateStatus(ctx, id, status)
	if err != nil {
		s.printf("статус не обновлен: %v\n", err)
		return
	}
	s.printf("заказ %s переведен в статус %s\n", order.ID, order.Status)
}

func (s *Shell) lowStock(ctx context.Context, args []string) {
	if !s.requireAdmin() {
		return
	}
	threshold := 0
	if len(args) > 0 {
		var err error
		threshold, err = strconv.Atoi(args[0])
		if err != nil {
			s.printf("некорректный порог %q\n", args[0])
			return
		}
	}
	products, err := s.deps.Catalog.LowStock(ctx, threshold)
	if err != nil {
		s.printf("не удалось получить список: %v\n", err)
		return
	}
	s.printProducts(products)
}

func (s *Shell) printOrders(orders []domain.Order) {
	if len(orders) == 0 {
		s.printf("заказов нет\n")
		return
	}
	for _, o := range orders {
		s.printf("%-12s %-10s %12s ₽  %s\n",
			o.ID, o.Status, o.TotalAmount.StringFixed(2),
			o.OrderDate.Format("2006-01-02 15:04"))
	}
}

func (s *Shell) parseID(args []string, usage string) (string, bool) {
	if len(args) != 1 {
		s.printf("использование: %s\n", usage)
		return "", false
	}
	return args[0], true
}
