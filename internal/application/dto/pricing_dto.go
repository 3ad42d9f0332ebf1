package dto

import (
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PriceTierRequest body de alta/edición de un nivel de precio.
type PriceTierRequest struct {
	Name        string          `json:"name" validate:"required"`
	DisplayName string          `json:"display_name" validate:"required"`
	FormulaType string          `json:"formula_type" validate:"required,oneof=multiplier percentage_markup flat_amount"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Percentage  decimal.Decimal `json:"percentage"`
	FlatAmount  decimal.Decimal `json:"flat_amount"`
	MinQuantity int             `json:"min_quantity" validate:"min=0"`
	// Ausente en el alta: se asigna el siguiente índice disponible. Ausente en
	// la edición: conserva el actual. El cero explícito es una prioridad válida.
	OrderIndex   *int   `json:"order_index" validate:"omitempty,min=0"`
	Active       bool   `json:"active"`
	IsDefault    bool   `json:"is_default"`
	ShowInPublic bool   `json:"show_in_public"`
	Description  string `json:"description,omitempty"`
	ColorCode    string `json:"color_code,omitempty" validate:"omitempty,hexcolor"`
}

// PriceTierResponse un tier para la UI.
type PriceTierResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name"`
	FormulaType  string          `json:"formula_type"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	Percentage   decimal.Decimal `json:"percentage"`
	FlatAmount   decimal.Decimal `json:"flat_amount"`
	MinQuantity  int             `json:"min_quantity"`
	OrderIndex   int             `json:"order_index"`
	Active       bool            `json:"active"`
	IsDefault    bool            `json:"is_default"`
	ShowInPublic bool            `json:"show_in_public"`
	Description  string          `json:"description,omitempty"`
	ColorCode    string          `json:"color_code,omitempty"`
}

// NewPriceTierResponse mapea la entidad al DTO.
func NewPriceTierResponse(t *entity.PriceTier) PriceTierResponse {
	return PriceTierResponse{
		ID:           t.ID,
		Name:         t.Name,
		DisplayName:  t.DisplayName,
		FormulaType:  t.FormulaType,
		Multiplier:   t.Multiplier,
		Percentage:   t.Percentage,
		FlatAmount:   t.FlatAmount,
		MinQuantity:  t.MinQuantity,
		OrderIndex:   t.OrderIndex,
		Active:       t.Active,
		IsDefault:    t.IsDefault,
		ShowInPublic: t.ShowInPublic,
		Description:  t.Description,
		ColorCode:    t.ColorCode,
	}
}

// ReorderTiersRequest body para PUT /api/settings/price-tiers/reorder.
type ReorderTiersRequest struct {
	Tiers []struct {
		ID         string `json:"id" validate:"required"`
		OrderIndex int    `json:"order_index" validate:"min=0"`
	} `json:"tiers" validate:"required,min=1,dive"`
}

// TierQuoteResponse un tier con el precio que produciría para un costo dado.
type TierQuoteResponse struct {
	PriceTierResponse
	CalculatedPrice decimal.Decimal `json:"calculated_price"`
	AppliesNow      bool            `json:"applies_now"`
}

// RecalculateResponse resumen de POST /settings/price-tiers/recalculate-products.
type RecalculateResponse struct {
	Message       string `json:"message"`
	TotalProducts int    `json:"total_products"`
	Updated       int    `json:"updated"`
	Errors        int    `json:"errors"`
	TiersApplied  int    `json:"tiers_applied"`
}
