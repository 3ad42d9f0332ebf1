package entity

import "time"

// Estados del carrito. Nombres heredados de la operación (vendedoras
// hispanohablantes); no traducir.
const (
	CartStatePendiente     = "pendiente"
	CartStateEdicion       = "edicion"
	CartStateListoParaPago = "listo_para_pago"
	CartStatePagado        = "pagado"
	CartStateCompletado    = "completado"
	CartStateCancelado     = "cancelado"
)

// CartStateActive indica si el estado admite seguir editando líneas/reservas.
func CartStateActive(estado string) bool {
	switch estado {
	case CartStatePendiente, CartStateEdicion, CartStateListoParaPago:
		return true
	}
	return false
}

// Cart agrupa líneas de venta en curso. El carrito es dueño exclusivo de sus
// items; al finalizar o cancelar, las reservas asociadas se destruyen.
type Cart struct {
	ID         string
	UserID     string
	VendedorID *string
	Estado     string
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TotalQuantity suma las cantidades de todas las líneas: es la cantidad que
// se evalúa contra los price tiers (contexto de precio por carrito, no por línea).
func (c *Cart) TotalQuantity() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// CartItem es la unidad de reserva: a lo sumo una reserva activa por línea
// contra una StockLine. El ID del item funciona como token de reserva.
type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	VariantID *string
	Quantity  int
	// Ubicación elegida al reservar; vacía si la línea no tiene reserva.
	Location string
	// Cantidad efectivamente reservada en Location. Al finalizar la venta se
	// convierte en decremento real de stock.
	ReservedQuantity   int
	RequiresStockCheck bool
	StockConfirmed     bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasReservation indica si la línea mantiene unidades reservadas.
func (i *CartItem) HasReservation() bool {
	return i.ReservedQuantity > 0 && i.Location != ""
}
