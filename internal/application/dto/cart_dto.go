package dto

import (
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AddToCartRequest body para POST /api/cart/add. Location más Reserve en true
// piden reservar las unidades en esa ubicación.
type AddToCartRequest struct {
	CartID             string  `json:"cart_id" validate:"required"`
	ProductID          string  `json:"product_id" validate:"required"`
	VariantID          *string `json:"variant_id,omitempty"`
	Quantity           int     `json:"quantity" validate:"required,min=1"`
	Location           string  `json:"location" validate:"required"`
	RequiresStockCheck bool    `json:"requires_stock_check,omitempty"`
}

// UpdateCartItemRequest body para PUT /api/cart/update/:productId.
// Campos en nil no se tocan.
type UpdateCartItemRequest struct {
	CartID         string  `json:"cart_id" validate:"required"`
	VariantID      *string `json:"variant_id,omitempty"`
	Quantity       *int    `json:"quantity,omitempty" validate:"omitempty,min=1"`
	Location       *string `json:"location,omitempty"`
	Reserve        *bool   `json:"reserve,omitempty"`
	StockConfirmed *bool   `json:"stock_confirmed,omitempty"`
}

// CartItemResponse línea de carrito con su estado de reserva.
type CartItemResponse struct {
	ID                 string  `json:"id"`
	ProductID          string  `json:"product_id"`
	VariantID          *string `json:"variant_id,omitempty"`
	Quantity           int     `json:"quantity"`
	Location           string  `json:"location,omitempty"`
	ReservedQuantity   int     `json:"reserved_quantity"`
	RequiresStockCheck bool    `json:"requires_stock_check"`
	StockConfirmed     bool    `json:"stock_confirmed"`
}

// NewCartItemResponse mapea la entidad al DTO.
func NewCartItemResponse(item *entity.CartItem) CartItemResponse {
	return CartItemResponse{
		ID:                 item.ID,
		ProductID:          item.ProductID,
		VariantID:          item.VariantID,
		Quantity:           item.Quantity,
		Location:           item.Location,
		ReservedQuantity:   item.ReservedQuantity,
		RequiresStockCheck: item.RequiresStockCheck,
		StockConfirmed:     item.StockConfirmed,
	}
}

// ReserveResponse respuesta de una mutación de reserva: token + snapshots
// actualizados, para que la UI no tenga que releer.
type ReserveResponse struct {
	Token string             `json:"token"`
	Item  CartItemResponse   `json:"item"`
	Line  *StockLineResponse `json:"stock_line,omitempty"`
}

// TierSummary resumen del tier aplicado en una cotización.
type TierSummary struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MinQuantity int    `json:"min_quantity"`
	OrderIndex  int    `json:"order_index"`
}

// CartSummaryResponse respuesta de GET /api/cart/summary.
type CartSummaryResponse struct {
	CartID          string             `json:"cart_id"`
	TotalQuantity   int                `json:"total_quantity"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	Tier            *TierSummary       `json:"tier,omitempty"`
	NextTier        *TierSummary       `json:"next_tier,omitempty"`
	MissingQuantity int                `json:"missing_quantity,omitempty"`
	Items           []CartQuoteItemDTO `json:"items"`
}

// CartQuoteItemDTO línea cotizada.
type CartQuoteItemDTO struct {
	CartItemResponse
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// UpdateCartStatusRequest body para PUT /api/carts/:id/status.
type UpdateCartStatusRequest struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente edicion listo_para_pago pagado completado cancelado"`
}
