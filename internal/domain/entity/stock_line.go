package entity

import "time"

// StockLine representa el contador de stock/reservado de un producto (o variante)
// en una ubicación física o virtual ("deposito", "mendoza", "salta").
// VariantID en nil indica stock a nivel producto.
type StockLine struct {
	ID        string
	ProductID string
	VariantID *string
	Location  string
	Stock     int // conteo lógico en mano (puede quedar negativo solo vía ajuste forzado)
	Reserved  int // cantidad prometida a carritos; 0 <= Reserved <= Stock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available devuelve la cantidad que una nueva reserva todavía puede reclamar.
func (s *StockLine) Available() int {
	return s.Stock - s.Reserved
}

// SameIdentity indica si la línea corresponde a la misma identidad
// (producto, variante-o-nil, ubicación).
func (s *StockLine) SameIdentity(productID string, variantID *string, location string) bool {
	if s.ProductID != productID || s.Location != location {
		return false
	}
	if s.VariantID == nil || variantID == nil {
		return s.VariantID == nil && variantID == nil
	}
	return *s.VariantID == *variantID
}
