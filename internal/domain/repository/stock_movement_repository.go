package repository

import "github.com/mfarias/mayorista-core/internal/domain/entity"

// MovementFilter filtros opcionales para listar el libro de movimientos.
type MovementFilter struct {
	ProductID    string
	VariantID    *string
	Location     string
	MovementType string
	Limit        int
}

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. Solo alta y lectura: los movimientos nunca se editan ni borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	// List devuelve movimientos más recientes primero.
	List(filter MovementFilter) ([]*entity.StockMovement, error)
	// ListByLine devuelve todos los movimientos de una línea, más antiguos
	// primero (orden de replay para conciliación).
	ListByLine(productID string, variantID *string, location string) ([]*entity.StockMovement, error)
}
