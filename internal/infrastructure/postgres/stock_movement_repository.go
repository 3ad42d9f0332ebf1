package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). Tabla append-only: no hay UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, variant_id, location, movement_type, quantity,
	previous_stock, new_stock, reason, reference, notes, user_id, user_name, created_at`

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, variant_id, location, movement_type, quantity,
			previous_stock, new_stock, reason, reference, notes, user_id, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, m.VariantID, m.Location, m.MovementType, m.Quantity,
		m.PreviousStock, m.NewStock, m.Reason, m.Reference, m.Notes, m.UserID, m.UserName, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// List devuelve el libro filtrado, más recientes primero.
func (r *StockMovementRepo) List(filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE 1=1`
	args := []any{}
	pos := 1
	if filter.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, filter.ProductID)
		pos++
	}
	if filter.VariantID != nil {
		query += fmt.Sprintf(" AND variant_id = $%d", pos)
		args = append(args, *filter.VariantID)
		pos++
	}
	if filter.Location != "" {
		query += fmt.Sprintf(" AND location = $%d", pos)
		args = append(args, filter.Location)
		pos++
	}
	if filter.MovementType != "" {
		query += fmt.Sprintf(" AND movement_type = $%d", pos)
		args = append(args, filter.MovementType)
		pos++
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", pos)
	args = append(args, limit)

	return r.queryMovements(query, args...)
}

// ListByLine devuelve todos los movimientos de una línea en orden de replay
// (más antiguos primero), para conciliación.
func (r *StockMovementRepo) ListByLine(productID string, variantID *string, location string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2 AND location = $3
		ORDER BY created_at ASC`
	return r.queryMovements(query, productID, variantID, location)
}

func (r *StockMovementRepo) queryMovements(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(&m.ID, &m.ProductID, &m.VariantID, &m.Location, &m.MovementType, &m.Quantity,
		&m.PreviousStock, &m.NewStock, &m.Reason, &m.Reference, &m.Notes, &m.UserID, &m.UserName, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
