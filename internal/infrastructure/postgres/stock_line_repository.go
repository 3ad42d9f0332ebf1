package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

var _ repository.StockLineRepository = (*StockLineRepo)(nil)

// StockLineRepo implementación de StockLineRepository sobre PostgreSQL
// (usable con pool o tx). La identidad (product_id, variant_id-o-null,
// location) tiene índice único; variant_id en NULL se compara con
// IS NOT DISTINCT FROM.
type StockLineRepo struct {
	q Querier
}

// NewStockLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLineRepository(q Querier) *StockLineRepo {
	return &StockLineRepo{q: q}
}

const stockLineColumns = `id, product_id, variant_id, location, stock, reserved, created_at, updated_at`

// Get lectura sin lock de una línea. Nil si no existe.
func (r *StockLineRepo) Get(productID string, variantID *string, location string) (*entity.StockLine, error) {
	query := `
		SELECT ` + stockLineColumns + `
		FROM stock_lines
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2 AND location = $3`
	return r.scanOne(query, productID, variantID, location)
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Nil si no existe.
func (r *StockLineRepo) GetForUpdate(productID string, variantID *string, location string) (*entity.StockLine, error) {
	query := `
		SELECT ` + stockLineColumns + `
		FROM stock_lines
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2 AND location = $3
		FOR UPDATE`
	return r.scanOne(query, productID, variantID, location)
}

// List devuelve todas las ubicaciones del producto (o de la variante si se indica).
func (r *StockLineRepo) List(productID string, variantID *string) ([]*entity.StockLine, error) {
	query := `
		SELECT ` + stockLineColumns + `
		FROM stock_lines
		WHERE product_id = $1`
	args := []any{productID}
	if variantID != nil {
		query += ` AND variant_id = $2`
		args = append(args, *variantID)
	}
	query += ` ORDER BY location ASC`

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.StockLine
	for rows.Next() {
		line, err := scanStockLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Create inserta una línea nueva.
func (r *StockLineRepo) Create(line *entity.StockLine) error {
	query := `
		INSERT INTO stock_lines (id, product_id, variant_id, location, stock, reserved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.ProductID, line.VariantID, line.Location, line.Stock, line.Reserved,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock line: identidad duplicada: %w", err)
		}
		return fmt.Errorf("create stock line: %w", err)
	}
	return nil
}

// Update persiste stock y reserved de una línea existente.
func (r *StockLineRepo) Update(line *entity.StockLine) error {
	query := `
		UPDATE stock_lines
		SET stock = $2, reserved = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, line.ID, line.Stock, line.Reserved)
	if err != nil {
		return fmt.Errorf("update stock line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock line: fila inexistente %s", line.ID)
	}
	return nil
}

func (r *StockLineRepo) scanOne(query string, args ...any) (*entity.StockLine, error) {
	row := r.q.QueryRow(context.Background(), query, args...)
	line, err := scanStockLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock line: %w", err)
	}
	return line, nil
}

func scanStockLine(row pgx.Row) (*entity.StockLine, error) {
	var s entity.StockLine
	err := row.Scan(&s.ID, &s.ProductID, &s.VariantID, &s.Location, &s.Stock, &s.Reserved, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
