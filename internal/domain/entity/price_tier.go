package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de fórmula de un nivel de precio.
const (
	FormulaMultiplier       = "multiplier"        // precio = costo * Multiplier
	FormulaPercentageMarkup = "percentage_markup" // precio = costo + costo * Percentage/100
	FormulaFlatAmount       = "flat_amount"       // precio = costo + FlatAmount
)

// ValidFormulaType indica si el tipo de fórmula es uno de los soportados.
func ValidFormulaType(t string) bool {
	return t == FormulaMultiplier || t == FormulaPercentageMarkup || t == FormulaFlatAmount
}

// PriceTier representa un nivel de precio configurable por el administrador.
// La selección es por prioridad (OrderIndex menor gana entre los que cumplen
// MinQuantity), no por mejor ajuste de cantidad.
type PriceTier struct {
	ID           string
	Name         string // clave interna única: "wholesale", "discount1", ...
	DisplayName  string
	FormulaType  string
	Multiplier   decimal.Decimal
	Percentage   decimal.Decimal
	FlatAmount   decimal.Decimal
	MinQuantity  int
	OrderIndex   int // menor = mayor prioridad
	Active       bool
	IsDefault    bool // a lo sumo un default activo
	ShowInPublic bool
	Description  string
	ColorCode    string // hex para la UI
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CalculatePrice aplica la fórmula del tier al precio de costo.
// Un resultado negativo se recorta a cero: es un límite defensivo, no una
// configuración esperada.
func (pt *PriceTier) CalculatePrice(costPrice decimal.Decimal) decimal.Decimal {
	var result decimal.Decimal
	switch pt.FormulaType {
	case FormulaMultiplier:
		result = costPrice.Mul(pt.Multiplier)
	case FormulaPercentageMarkup:
		result = costPrice.Add(costPrice.Mul(pt.Percentage).Div(decimal.NewFromInt(100)))
	case FormulaFlatAmount:
		result = costPrice.Add(pt.FlatAmount)
	default:
		result = costPrice
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// Applies indica si el tier está activo y la cantidad alcanza su mínimo.
func (pt *PriceTier) Applies(quantity int) bool {
	return pt.Active && quantity >= pt.MinQuantity
}
