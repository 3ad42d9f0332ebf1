package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la orden con su detalle congelado. Llamar dentro de una
// transacción (el runner del checkout lo garantiza).
func (r *OrderRepo) Create(order *entity.Order, items []entity.OrderItem) error {
	query := `
		INSERT INTO orders (id, cart_id, user_id, vendedor_id, total_quantity, subtotal, tier_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.CartID, order.UserID, order.VendedorID,
		order.TotalQuantity, order.Subtotal, order.TierName, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, variant_id, location, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range items {
		it := &items[i]
		if _, err := r.q.Exec(context.Background(), itemQuery,
			it.ID, it.OrderID, it.ProductID, it.VariantID, it.Location, it.Quantity, it.UnitPrice,
		); err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

// GetByID devuelve la orden o nil.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `
		SELECT id, cart_id, user_id, vendedor_id, total_quantity, subtotal, tier_name, created_at
		FROM orders
		WHERE id = $1`
	var o entity.Order
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.CartID, &o.UserID, &o.VendedorID, &o.TotalQuantity, &o.Subtotal, &o.TierName, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}
