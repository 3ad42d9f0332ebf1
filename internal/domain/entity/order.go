package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order es el artefacto que produce el checkout: referencia del carrito
// finalizado, totales y el tier aplicado al momento de la venta.
type Order struct {
	ID            string
	CartID        string
	UserID        string
	VendedorID    *string
	TotalQuantity int
	Subtotal      decimal.Decimal
	TierName      string // tier aplicado al total del carrito; vacío si se usó costo base
	CreatedAt     time.Time
}

// OrderItem es el detalle congelado de una línea al finalizar.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID *string
	Location  string
	Quantity  int
	UnitPrice decimal.Decimal
}
