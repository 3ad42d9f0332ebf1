package entity

import "time"

// Tipos de movimiento del libro de stock.
const (
	MovementTypeInitial    = "initial"    // primer alta de stock para una línea
	MovementTypeAdjustment = "adjustment" // ajuste manual (positivo o negativo)
	MovementTypeSale       = "sale"       // venta confirmada (checkout)
	MovementTypeReturn     = "return"     // devolución
	MovementTypeTransfer   = "transfer"   // traslado entre ubicaciones
)

// ValidMovementType indica si el tipo pertenece al conjunto permitido.
func ValidMovementType(t string) bool {
	switch t {
	case MovementTypeInitial, MovementTypeAdjustment, MovementTypeSale,
		MovementTypeReturn, MovementTypeTransfer:
		return true
	}
	return false
}

// StockMovement es una entrada inmutable del libro de stock: registra un único
// cambio sobre una StockLine con snapshots de antes y después.
// Invariante de conciliación: para toda línea, Stock actual == Σ Quantity de
// sus movimientos (el alta inicial entra como movimiento "initial").
type StockMovement struct {
	ID            string
	ProductID     string
	VariantID     *string
	Location      string
	MovementType  string
	Quantity      int // delta con signo
	PreviousStock int
	NewStock      int // siempre PreviousStock + Quantity
	Reason        string
	Reference     string // orden, remito, etc.
	Notes         string
	UserID        *string
	UserName      string // denormalizado para el histórico
	CreatedAt     time.Time
}
