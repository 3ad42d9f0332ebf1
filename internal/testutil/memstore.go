// Package testutil provee repositorios en memoria para los tests de los casos
// de uso. El TxRunner serializa las "transacciones" con un mutex, emulando la
// disciplina de row-lock de PostgreSQL; no hay rollback, pero los casos de uso
// validan antes de mutar, igual que contra la base real. Las llamadas a repos
// fuera del Runner toman el mismo mutex por llamada, como sentencias
// autocommit sueltas.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// MemStore estado compartido de todos los repositorios fake.
type MemStore struct {
	mu sync.Mutex

	lines      map[string]*entity.StockLine
	movements  []*entity.StockMovement
	tiers      map[string]*entity.PriceTier
	carts      map[string]*entity.Cart
	items      map[string]*entity.CartItem
	itemOrder  []string
	products   map[string]*entity.Product
	orders     map[string]*entity.Order
	orderItems map[string][]entity.OrderItem

	// Inyección de fallas para los tests de compensación y recálculo parcial.
	OrderCreateErr error
	ListPricesErr  map[string]error
}

// NewMemStore construye el store vacío.
func NewMemStore() *MemStore {
	return &MemStore{
		lines:         make(map[string]*entity.StockLine),
		tiers:         make(map[string]*entity.PriceTier),
		carts:         make(map[string]*entity.Cart),
		items:         make(map[string]*entity.CartItem),
		products:      make(map[string]*entity.Product),
		orders:        make(map[string]*entity.Order),
		orderItems:    make(map[string][]entity.OrderItem),
		ListPricesErr: make(map[string]error),
	}
}

func lineKey(productID string, variantID *string, location string) string {
	v := ""
	if variantID != nil {
		v = *variantID
	}
	return productID + "|" + v + "|" + location
}

func sameVariant(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// autocommit toma el lock del store salvo que el repo esté dentro de una
// transacción del Runner, que ya lo tiene. sync.Mutex no es reentrante.
func (s *MemStore) autocommit(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ── Seeds y lecturas directas para asserts ────────────────────────────────────

// SeedLine da de alta una línea de stock.
func (s *MemStore) SeedLine(productID string, variantID *string, location string, stock, reserved int) {
	s.lines[lineKey(productID, variantID, location)] = &entity.StockLine{
		ID: "line-" + lineKey(productID, variantID, location), ProductID: productID,
		VariantID: variantID, Location: location, Stock: stock, Reserved: reserved,
	}
}

// SeedCart da de alta un carrito.
func (s *MemStore) SeedCart(id, userID, estado string) {
	s.carts[id] = &entity.Cart{ID: id, UserID: userID, Estado: estado}
}

// SeedTier da de alta un nivel de precio.
func (s *MemStore) SeedTier(t entity.PriceTier) {
	cp := t
	s.tiers[t.ID] = &cp
}

// SeedProduct da de alta un producto con su costo.
func (s *MemStore) SeedProduct(id string, cost decimal.Decimal) {
	s.products[id] = &entity.Product{ID: id, Code: id, Name: id, CostPrice: cost}
}

// Line devuelve un snapshot de la línea o nil.
func (s *MemStore) Line(productID string, variantID *string, location string) *entity.StockLine {
	line, ok := s.lines[lineKey(productID, variantID, location)]
	if !ok {
		return nil
	}
	cp := *line
	return &cp
}

// AllMovements devuelve los movimientos en orden de inserción.
func (s *MemStore) AllMovements() []*entity.StockMovement {
	out := make([]*entity.StockMovement, 0, len(s.movements))
	for _, m := range s.movements {
		cp := *m
		out = append(out, &cp)
	}
	return out
}

// Item devuelve un snapshot de la línea de carrito o nil.
func (s *MemStore) Item(id string) *entity.CartItem {
	item, ok := s.items[id]
	if !ok {
		return nil
	}
	cp := *item
	return &cp
}

// Cart devuelve un snapshot del carrito o nil (sin items).
func (s *MemStore) Cart(id string) *entity.Cart {
	cart, ok := s.carts[id]
	if !ok {
		return nil
	}
	cp := *cart
	return &cp
}

// Order devuelve un snapshot de la orden o nil.
func (s *MemStore) Order(id string) *entity.Order {
	order, ok := s.orders[id]
	if !ok {
		return nil
	}
	cp := *order
	return &cp
}

// Product devuelve un snapshot del producto o nil.
func (s *MemStore) Product(id string) *entity.Product {
	p, ok := s.products[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ── Fábricas de repos ─────────────────────────────────────────────────────────

func (s *MemStore) LineRepo() repository.StockLineRepository         { return linesRepo{s: s} }
func (s *MemStore) MovementRepo() repository.StockMovementRepository { return movementsRepo{s: s} }
func (s *MemStore) TierRepo() repository.PriceTierRepository         { return tiersRepo{s: s} }
func (s *MemStore) CartRepo() repository.CartRepository              { return cartsRepo{s: s} }
func (s *MemStore) ProductRepo() repository.ProductRepository        { return productsRepo{s: s} }
func (s *MemStore) OrderRepo() repository.OrderRepository            { return ordersRepo{s: s} }

// TxRunner satisface los runners de ledger, reservation y checkout.
type TxRunner struct {
	s *MemStore
}

// Runner devuelve el TxRunner del store.
func (s *MemStore) Runner() *TxRunner { return &TxRunner{s: s} }

// Run emula la transacción del libro de stock.
func (r *TxRunner) Run(ctx context.Context, fn func(repository.StockLineRepository, repository.StockMovementRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(linesRepo{s: r.s, inTx: true}, movementsRepo{s: r.s, inTx: true})
}

// RunReservation emula la transacción de reservas.
func (r *TxRunner) RunReservation(ctx context.Context, fn func(repository.StockLineRepository, repository.CartRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(linesRepo{s: r.s, inTx: true}, cartsRepo{s: r.s, inTx: true})
}

// RunCheckout emula la transacción del checkout.
func (r *TxRunner) RunCheckout(ctx context.Context, fn func(repository.StockLineRepository, repository.StockMovementRepository, repository.CartRepository, repository.OrderRepository) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return fn(linesRepo{s: r.s, inTx: true}, movementsRepo{s: r.s, inTx: true}, cartsRepo{s: r.s, inTx: true}, ordersRepo{s: r.s, inTx: true})
}

// ── StockLineRepository ───────────────────────────────────────────────────────

type linesRepo struct {
	s    *MemStore
	inTx bool
}

func (r linesRepo) Get(productID string, variantID *string, location string) (*entity.StockLine, error) {
	defer r.s.autocommit(r.inTx)()
	return r.s.Line(productID, variantID, location), nil
}

func (r linesRepo) GetForUpdate(productID string, variantID *string, location string) (*entity.StockLine, error) {
	defer r.s.autocommit(r.inTx)()
	return r.s.Line(productID, variantID, location), nil
}

func (r linesRepo) List(productID string, variantID *string) ([]*entity.StockLine, error) {
	defer r.s.autocommit(r.inTx)()
	var out []*entity.StockLine
	for _, line := range r.s.lines {
		if line.ProductID != productID {
			continue
		}
		if variantID != nil && !line.SameIdentity(productID, variantID, line.Location) {
			continue
		}
		cp := *line
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}

func (r linesRepo) Create(line *entity.StockLine) error {
	defer r.s.autocommit(r.inTx)()
	key := lineKey(line.ProductID, line.VariantID, line.Location)
	if _, exists := r.s.lines[key]; exists {
		return domain.ErrConflict
	}
	cp := *line
	r.s.lines[key] = &cp
	return nil
}

func (r linesRepo) Update(line *entity.StockLine) error {
	defer r.s.autocommit(r.inTx)()
	key := lineKey(line.ProductID, line.VariantID, line.Location)
	if _, exists := r.s.lines[key]; !exists {
		return domain.ErrNotFound
	}
	cp := *line
	r.s.lines[key] = &cp
	return nil
}

// ── StockMovementRepository ───────────────────────────────────────────────────

type movementsRepo struct {
	s    *MemStore
	inTx bool
}

func (r movementsRepo) Create(m *entity.StockMovement) error {
	defer r.s.autocommit(r.inTx)()
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

func (r movementsRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.s.autocommit(r.inTx)()
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- { // más recientes primero
		m := r.s.movements[i]
		if filter.ProductID != "" && m.ProductID != filter.ProductID {
			continue
		}
		if filter.VariantID != nil && !sameVariant(m.VariantID, filter.VariantID) {
			continue
		}
		if filter.Location != "" && m.Location != filter.Location {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (r movementsRepo) ListByLine(productID string, variantID *string, location string) ([]*entity.StockMovement, error) {
	defer r.s.autocommit(r.inTx)()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID != productID || m.Location != location || !sameVariant(m.VariantID, variantID) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

// ── PriceTierRepository ───────────────────────────────────────────────────────

type tiersRepo struct {
	s    *MemStore
	inTx bool
}

func (r tiersRepo) GetByID(id string) (*entity.PriceTier, error) {
	defer r.s.autocommit(r.inTx)()
	t, ok := r.s.tiers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r tiersRepo) GetByName(name string) (*entity.PriceTier, error) {
	defer r.s.autocommit(r.inTx)()
	for _, t := range r.s.tiers {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r tiersRepo) List(includeInactive bool) ([]entity.PriceTier, error) {
	defer r.s.autocommit(r.inTx)()
	var out []entity.PriceTier
	for _, t := range r.s.tiers {
		if !includeInactive && !t.Active {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (r tiersRepo) Create(tier *entity.PriceTier) error {
	defer r.s.autocommit(r.inTx)()
	for _, t := range r.s.tiers {
		if t.Name == tier.Name {
			return domain.ErrConflict
		}
	}
	cp := *tier
	r.s.tiers[tier.ID] = &cp
	return nil
}

func (r tiersRepo) Update(tier *entity.PriceTier) error {
	defer r.s.autocommit(r.inTx)()
	if _, ok := r.s.tiers[tier.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, t := range r.s.tiers {
		if t.ID != tier.ID && t.Name == tier.Name {
			return domain.ErrConflict
		}
	}
	cp := *tier
	r.s.tiers[tier.ID] = &cp
	return nil
}

func (r tiersRepo) Delete(id string) error {
	defer r.s.autocommit(r.inTx)()
	if _, ok := r.s.tiers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tiers, id)
	return nil
}

func (r tiersRepo) ClearDefaultExcept(id string) error {
	defer r.s.autocommit(r.inTx)()
	for _, t := range r.s.tiers {
		if t.ID != id {
			t.IsDefault = false
		}
	}
	return nil
}

func (r tiersRepo) UpdateOrderIndex(id string, orderIndex int) error {
	defer r.s.autocommit(r.inTx)()
	t, ok := r.s.tiers[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.OrderIndex = orderIndex
	return nil
}

// ── CartRepository ────────────────────────────────────────────────────────────

type cartsRepo struct {
	s    *MemStore
	inTx bool
}

func (r cartsRepo) GetByID(id string) (*entity.Cart, error) {
	defer r.s.autocommit(r.inTx)()
	return r.getLocked(id), nil
}

// getLocked arma el snapshot del carrito con items. Requiere el lock tomado.
func (r cartsRepo) getLocked(id string) *entity.Cart {
	cart, ok := r.s.carts[id]
	if !ok {
		return nil
	}
	cp := *cart
	cp.Items = r.listItemsLocked(id)
	return &cp
}

func (r cartsRepo) GetActiveByUser(userID string) (*entity.Cart, error) {
	defer r.s.autocommit(r.inTx)()
	for id, cart := range r.s.carts {
		if cart.UserID == userID && entity.CartStateActive(cart.Estado) {
			return r.getLocked(id), nil
		}
	}
	return nil, nil
}

func (r cartsRepo) Create(cart *entity.Cart) error {
	defer r.s.autocommit(r.inTx)()
	cp := *cart
	cp.Items = nil
	r.s.carts[cart.ID] = &cp
	return nil
}

func (r cartsRepo) UpdateEstado(cartID, estado string) error {
	defer r.s.autocommit(r.inTx)()
	cart, ok := r.s.carts[cartID]
	if !ok {
		return domain.ErrNotFound
	}
	cart.Estado = estado
	return nil
}

func (r cartsRepo) UpdateEstadoGuarded(cartID, estado string, from ...string) (bool, error) {
	defer r.s.autocommit(r.inTx)()
	cart, ok := r.s.carts[cartID]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if cart.Estado == f {
			cart.Estado = estado
			return true, nil
		}
	}
	return false, nil
}

func (r cartsRepo) GetItem(itemID string) (*entity.CartItem, error) {
	defer r.s.autocommit(r.inTx)()
	return r.s.Item(itemID), nil
}

func (r cartsRepo) FindItem(cartID, productID string, variantID *string) (*entity.CartItem, error) {
	defer r.s.autocommit(r.inTx)()
	for _, id := range r.s.itemOrder {
		item, ok := r.s.items[id]
		if !ok || item.CartID != cartID || item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if variantID != nil && *item.VariantID != *variantID {
			continue
		}
		cp := *item
		return &cp, nil
	}
	return nil, nil
}

func (r cartsRepo) CreateItem(item *entity.CartItem) error {
	defer r.s.autocommit(r.inTx)()
	cp := *item
	r.s.items[item.ID] = &cp
	r.s.itemOrder = append(r.s.itemOrder, item.ID)
	return nil
}

func (r cartsRepo) UpdateItem(item *entity.CartItem) error {
	defer r.s.autocommit(r.inTx)()
	if _, ok := r.s.items[item.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *item
	r.s.items[item.ID] = &cp
	return nil
}

func (r cartsRepo) DeleteItem(itemID string) error {
	defer r.s.autocommit(r.inTx)()
	delete(r.s.items, itemID)
	return nil
}

func (r cartsRepo) ListItems(cartID string) ([]entity.CartItem, error) {
	defer r.s.autocommit(r.inTx)()
	return r.listItemsLocked(cartID), nil
}

func (r cartsRepo) listItemsLocked(cartID string) []entity.CartItem {
	var out []entity.CartItem
	for _, id := range r.s.itemOrder {
		item, ok := r.s.items[id]
		if ok && item.CartID == cartID {
			out = append(out, *item)
		}
	}
	return out
}

// ── ProductRepository ─────────────────────────────────────────────────────────

type productsRepo struct {
	s    *MemStore
	inTx bool
}

func (r productsRepo) GetByID(id string) (*entity.Product, error) {
	defer r.s.autocommit(r.inTx)()
	return r.s.Product(id), nil
}

func (r productsRepo) ListCostPrices() ([]entity.Product, error) {
	defer r.s.autocommit(r.inTx)()
	var out []entity.Product
	for _, p := range r.s.products {
		out = append(out, entity.Product{ID: p.ID, CostPrice: p.CostPrice})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r productsRepo) UpdateListPrices(id string, wholesale, discount1, discount2 decimal.Decimal) error {
	defer r.s.autocommit(r.inTx)()
	if err, ok := r.s.ListPricesErr[id]; ok {
		return err
	}
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.WholesalePrice = wholesale
	p.Discount1Price = discount1
	p.Discount2Price = discount2
	return nil
}

// ── OrderRepository ───────────────────────────────────────────────────────────

type ordersRepo struct {
	s    *MemStore
	inTx bool
}

func (r ordersRepo) Create(order *entity.Order, items []entity.OrderItem) error {
	defer r.s.autocommit(r.inTx)()
	if r.s.OrderCreateErr != nil {
		return r.s.OrderCreateErr
	}
	cp := *order
	r.s.orders[order.ID] = &cp
	r.s.orderItems[order.ID] = append([]entity.OrderItem(nil), items...)
	return nil
}

func (r ordersRepo) GetByID(id string) (*entity.Order, error) {
	defer r.s.autocommit(r.inTx)()
	return r.s.Order(id), nil
}
