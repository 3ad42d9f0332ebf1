package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es la vista mínima del catálogo que este servicio necesita: el costo
// base y las tres columnas de precio de lista que el recálculo masivo persiste.
// El CRUD de catálogo (nombre, categorías, imágenes, variantes) es un
// colaborador externo.
type Product struct {
	ID             string
	Code           string
	Name           string
	CostPrice      decimal.Decimal
	WholesalePrice decimal.Decimal
	Discount1Price decimal.Decimal
	Discount2Price decimal.Decimal
	UpdatedAt      time.Time
}
