package repository

import (
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto mínimo sobre el catálogo: lo justo para
// cotizar (costo base) y para el recálculo masivo de precios de lista.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	// ListCostPrices devuelve id + costo de todos los productos no eliminados
	// (proyección liviana para el recálculo masivo).
	ListCostPrices() ([]entity.Product, error)
	// UpdateListPrices persiste las tres columnas de precio de lista.
	UpdateListPrices(id string, wholesale, discount1, discount2 decimal.Decimal) error
}
