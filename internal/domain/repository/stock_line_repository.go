package repository

import "github.com/mfarias/mayorista-core/internal/domain/entity"

// StockLineRepository define el puerto para consultar y actualizar las líneas
// de stock por (producto, variante-o-nil, ubicación).
// Las mutaciones siempre ocurren dentro de una transacción con la fila
// bloqueada (GetForUpdate) para garantizar la atomicidad por línea.
type StockLineRepository interface {
	// Get devuelve la línea o nil si no existe. Lectura sin lock: bajo tráfico
	// de reservas el Available puede quedar levemente desactualizado.
	Get(productID string, variantID *string, location string) (*entity.StockLine, error)
	// List devuelve todas las ubicaciones del producto (filtrando por variante
	// si se indica).
	List(productID string, variantID *string) ([]*entity.StockLine, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Nil si no existe.
	GetForUpdate(productID string, variantID *string, location string) (*entity.StockLine, error)
	// Create inserta una línea nueva (primer alta de stock).
	Create(line *entity.StockLine) error
	// Update persiste stock/reserved de una línea existente.
	Update(line *entity.StockLine) error
}
