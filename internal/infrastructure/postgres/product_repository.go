package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo vista mínima del catálogo sobre PostgreSQL: costo base y
// columnas de precio de lista. El resto del producto pertenece al servicio
// de catálogo.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID devuelve el producto o nil.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `
		SELECT id, code, name, cost_price, wholesale_price, discount1_price, discount2_price, updated_at
		FROM products
		WHERE id = $1 AND deleted_at IS NULL`
	var p entity.Product
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.Code, &p.Name, &p.CostPrice, &p.WholesalePrice, &p.Discount1Price, &p.Discount2Price, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListCostPrices proyección liviana (id + costo) para el recálculo masivo.
func (r *ProductRepo) ListCostPrices() ([]entity.Product, error) {
	query := `SELECT id, cost_price FROM products WHERE deleted_at IS NULL`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list product costs: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.CostPrice); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateListPrices persiste las tres columnas de precio de lista.
func (r *ProductRepo) UpdateListPrices(id string, wholesale, discount1, discount2 decimal.Decimal) error {
	query := `
		UPDATE products
		SET wholesale_price = $2, discount1_price = $3, discount2_price = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.q.Exec(context.Background(), query, id, wholesale, discount1, discount2)
	if err != nil {
		return fmt.Errorf("update list prices: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update list prices: producto inexistente %s", id)
	}
	return nil
}
