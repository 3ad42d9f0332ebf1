package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo implementación de CartRepository sobre PostgreSQL (usable con pool o tx).
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

const cartColumns = `id, user_id, vendedor_id, estado, created_at, updated_at`
const cartItemColumns = `id, cart_id, product_id, variant_id, quantity, location,
	reserved_quantity, requires_stock_check, stock_confirmed, created_at, updated_at`

// GetByID devuelve el carrito con sus items cargados, o nil.
func (r *CartRepo) GetByID(id string) (*entity.Cart, error) {
	cart, err := r.scanCart(`SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	if err != nil || cart == nil {
		return cart, err
	}
	items, err := r.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

// GetActiveByUser devuelve el carrito activo más reciente del usuario o nil.
func (r *CartRepo) GetActiveByUser(userID string) (*entity.Cart, error) {
	query := `
		SELECT ` + cartColumns + `
		FROM carts
		WHERE user_id = $1 AND estado IN ('pendiente', 'edicion', 'listo_para_pago')
		ORDER BY created_at DESC
		LIMIT 1`
	cart, err := r.scanCart(query, userID)
	if err != nil || cart == nil {
		return cart, err
	}
	items, err := r.ListItems(cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return cart, nil
}

// Create inserta un carrito.
func (r *CartRepo) Create(cart *entity.Cart) error {
	query := `
		INSERT INTO carts (id, user_id, vendedor_id, estado, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`
	_, err := r.q.Exec(context.Background(), query, cart.ID, cart.UserID, cart.VendedorID, cart.Estado)
	if err != nil {
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// UpdateEstado cambia el estado del carrito.
func (r *CartRepo) UpdateEstado(cartID, estado string) error {
	query := `UPDATE carts SET estado = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, cartID, estado)
	if err != nil {
		return fmt.Errorf("update cart estado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update cart estado: carrito inexistente %s", cartID)
	}
	return nil
}

// UpdateEstadoGuarded cambia el estado solo si el actual está en from. El
// UPDATE condicionado es el compare-and-set: dos transiciones concurrentes
// sobre el mismo carrito no pueden ganar las dos.
func (r *CartRepo) UpdateEstadoGuarded(cartID, estado string, from ...string) (bool, error) {
	query := `UPDATE carts SET estado = $2, updated_at = now() WHERE id = $1 AND estado = ANY($3)`
	tag, err := r.q.Exec(context.Background(), query, cartID, estado, from)
	if err != nil {
		return false, fmt.Errorf("update cart estado guarded: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetItem devuelve una línea por ID (token de reserva) o nil.
func (r *CartRepo) GetItem(itemID string) (*entity.CartItem, error) {
	return r.scanItem(`SELECT `+cartItemColumns+` FROM cart_items WHERE id = $1`, itemID)
}

// FindItem busca la línea por (carrito, producto, variante) o nil.
func (r *CartRepo) FindItem(cartID, productID string, variantID *string) (*entity.CartItem, error) {
	query := `
		SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3`
	return r.scanItem(query, cartID, productID, variantID)
}

// CreateItem inserta una línea de carrito.
func (r *CartRepo) CreateItem(item *entity.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, location,
			reserved_quantity, requires_stock_check, stock_confirmed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		item.ID, item.CartID, item.ProductID, item.VariantID, item.Quantity, item.Location,
		item.ReservedQuantity, item.RequiresStockCheck, item.StockConfirmed,
	)
	if err != nil {
		return fmt.Errorf("create cart item: %w", err)
	}
	return nil
}

// UpdateItem persiste cantidad, reserva y flags de una línea.
func (r *CartRepo) UpdateItem(item *entity.CartItem) error {
	query := `
		UPDATE cart_items
		SET quantity = $2, location = $3, reserved_quantity = $4,
			requires_stock_check = $5, stock_confirmed = $6, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		item.ID, item.Quantity, item.Location, item.ReservedQuantity,
		item.RequiresStockCheck, item.StockConfirmed,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update cart item: línea inexistente %s", item.ID)
	}
	return nil
}

// DeleteItem elimina una línea.
func (r *CartRepo) DeleteItem(itemID string) error {
	if _, err := r.q.Exec(context.Background(), `DELETE FROM cart_items WHERE id = $1`, itemID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// ListItems devuelve las líneas del carrito.
func (r *CartRepo) ListItems(cartID string) ([]entity.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(context.Background(), query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []entity.CartItem
	for rows.Next() {
		var it entity.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Location,
			&it.ReservedQuantity, &it.RequiresStockCheck, &it.StockConfirmed, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CartRepo) scanCart(query string, args ...any) (*entity.Cart, error) {
	var c entity.Cart
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&c.ID, &c.UserID, &c.VendedorID, &c.Estado, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

func (r *CartRepo) scanItem(query string, args ...any) (*entity.CartItem, error) {
	var it entity.CartItem
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.VariantID, &it.Quantity, &it.Location,
		&it.ReservedQuantity, &it.RequiresStockCheck, &it.StockConfirmed, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &it, nil
}
