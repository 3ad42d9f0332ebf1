package dto

import (
	"time"

	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OrderResponse la orden resultante de un checkout exitoso.
type OrderResponse struct {
	ID            string          `json:"id"`
	CartID        string          `json:"cart_id"`
	TotalQuantity int             `json:"total_quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TierName      string          `json:"tier_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewOrderResponse mapea la entidad al DTO.
func NewOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		CartID:        o.CartID,
		TotalQuantity: o.TotalQuantity,
		Subtotal:      o.Subtotal,
		TierName:      o.TierName,
		CreatedAt:     o.CreatedAt,
	}
}
