package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

var _ repository.PriceTierRepository = (*PriceTierRepo)(nil)

// PriceTierRepo implementación de PriceTierRepository sobre PostgreSQL.
type PriceTierRepo struct {
	q Querier
}

// NewPriceTierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPriceTierRepository(q Querier) *PriceTierRepo {
	return &PriceTierRepo{q: q}
}

const tierColumns = `id, name, display_name, formula_type, multiplier, percentage, flat_amount,
	min_quantity, order_index, active, is_default, show_in_public, description, color_code,
	created_at, updated_at`

// GetByID devuelve un tier por ID o nil.
func (r *PriceTierRepo) GetByID(id string) (*entity.PriceTier, error) {
	return r.scanOne(`SELECT `+tierColumns+` FROM price_tiers WHERE id = $1`, id)
}

// GetByName devuelve un tier por su clave interna o nil.
func (r *PriceTierRepo) GetByName(name string) (*entity.PriceTier, error) {
	return r.scanOne(`SELECT `+tierColumns+` FROM price_tiers WHERE name = $1`, name)
}

// List devuelve tiers ordenados por order_index ascendente.
func (r *PriceTierRepo) List(includeInactive bool) ([]entity.PriceTier, error) {
	query := `SELECT ` + tierColumns + ` FROM price_tiers`
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY order_index ASC, created_at ASC`

	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}
	defer rows.Close()

	var tiers []entity.PriceTier
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, *t)
	}
	return tiers, rows.Err()
}

// Create inserta un tier nuevo.
func (r *PriceTierRepo) Create(t *entity.PriceTier) error {
	query := `
		INSERT INTO price_tiers (id, name, display_name, formula_type, multiplier, percentage, flat_amount,
			min_quantity, order_index, active, is_default, show_in_public, description, color_code,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.Name, t.DisplayName, t.FormulaType, t.Multiplier, t.Percentage, t.FlatAmount,
		t.MinQuantity, t.OrderIndex, t.Active, t.IsDefault, t.ShowInPublic, t.Description, t.ColorCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create price tier: %w", err)
	}
	return nil
}

// Update persiste todos los campos editables de un tier.
func (r *PriceTierRepo) Update(t *entity.PriceTier) error {
	query := `
		UPDATE price_tiers
		SET name = $2, display_name = $3, formula_type = $4, multiplier = $5, percentage = $6,
			flat_amount = $7, min_quantity = $8, order_index = $9, active = $10, is_default = $11,
			show_in_public = $12, description = $13, color_code = $14, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		t.ID, t.Name, t.DisplayName, t.FormulaType, t.Multiplier, t.Percentage,
		t.FlatAmount, t.MinQuantity, t.OrderIndex, t.Active, t.IsDefault,
		t.ShowInPublic, t.Description, t.ColorCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("update price tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un tier.
func (r *PriceTierRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM price_tiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete price tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearDefaultExcept desmarca is_default en todos los tiers salvo el indicado.
func (r *PriceTierRepo) ClearDefaultExcept(id string) error {
	query := `UPDATE price_tiers SET is_default = false, updated_at = now() WHERE is_default = true AND id <> $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("clear default tiers: %w", err)
	}
	return nil
}

// UpdateOrderIndex actualiza la prioridad de un tier.
func (r *PriceTierRepo) UpdateOrderIndex(id string, orderIndex int) error {
	query := `UPDATE price_tiers SET order_index = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, orderIndex)
	if err != nil {
		return fmt.Errorf("update tier order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PriceTierRepo) scanOne(query string, args ...any) (*entity.PriceTier, error) {
	t, err := scanTier(r.q.QueryRow(context.Background(), query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get price tier: %w", err)
	}
	return t, nil
}

func scanTier(row pgx.Row) (*entity.PriceTier, error) {
	var t entity.PriceTier
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.FormulaType, &t.Multiplier, &t.Percentage,
		&t.FlatAmount, &t.MinQuantity, &t.OrderIndex, &t.Active, &t.IsDefault, &t.ShowInPublic,
		&t.Description, &t.ColorCode, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
