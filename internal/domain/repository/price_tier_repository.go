package repository

import "github.com/mfarias/mayorista-core/internal/domain/entity"

// PriceTierRepository define el puerto de persistencia de niveles de precio.
type PriceTierRepository interface {
	GetByID(id string) (*entity.PriceTier, error)
	GetByName(name string) (*entity.PriceTier, error)
	// List devuelve tiers ordenados por order_index ascendente.
	// includeInactive en false filtra solo activos.
	List(includeInactive bool) ([]entity.PriceTier, error)
	Create(tier *entity.PriceTier) error
	Update(tier *entity.PriceTier) error
	Delete(id string) error
	// ClearDefaultExcept desmarca is_default en todos los tiers salvo el indicado
	// (id vacío desmarca todos). Se usa dentro de la transacción que promueve
	// un nuevo default.
	ClearDefaultExcept(id string) error
	// UpdateOrderIndex actualiza la prioridad de un tier (reordenamiento masivo).
	UpdateOrderIndex(id string, orderIndex int) error
}
