package dto

import (
	"time"

	"github.com/mfarias/mayorista-core/internal/domain/entity"
)

// StockLineResponse snapshot de una línea de stock para la UI.
type StockLineResponse struct {
	ProductID string    `json:"product_id"`
	VariantID *string   `json:"variant_id,omitempty"`
	Location  string    `json:"location"`
	Stock     int       `json:"stock"`
	Reserved  int       `json:"reserved"`
	Available int       `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewStockLineResponse arma el snapshot con el derivado available.
func NewStockLineResponse(line *entity.StockLine) StockLineResponse {
	return StockLineResponse{
		ProductID: line.ProductID,
		VariantID: line.VariantID,
		Location:  line.Location,
		Stock:     line.Stock,
		Reserved:  line.Reserved,
		Available: line.Available(),
		UpdatedAt: line.UpdatedAt,
	}
}

// CreateMovementRequest body para POST /api/stock-movements (movimiento manual).
type CreateMovementRequest struct {
	ProductID    string  `json:"product_id" validate:"required"`
	VariantID    *string `json:"variant_id,omitempty"`
	Location     string  `json:"location" validate:"required"`
	MovementType string  `json:"movement_type" validate:"required,oneof=initial adjustment sale return transfer"`
	Quantity     int     `json:"quantity" validate:"required"`
	Reason       string  `json:"reason,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	// Force habilita el ajuste correctivo que recorta reservas huérfanas.
	// Solo admin; ver guardas de ruta.
	Force bool `json:"force,omitempty"`
}

// StockEntry una entrada de POST /api/products/:id/stocks.
type StockEntry struct {
	Location  string  `json:"location" validate:"required"`
	Quantity  int     `json:"quantity" validate:"min=0"`
	VariantID *string `json:"variant_id,omitempty"`
}

// SetStocksRequest body para fijar stocks absolutos por ubicación.
type SetStocksRequest struct {
	Stocks []StockEntry `json:"stocks" validate:"required,min=1,dive"`
	Reason string       `json:"reason,omitempty"`
}

// MovementResponse una entrada del libro para la UI.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	VariantID     *string   `json:"variant_id,omitempty"`
	Location      string    `json:"location"`
	MovementType  string    `json:"movement_type"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previous_stock"`
	NewStock      int       `json:"new_stock"`
	Reason        string    `json:"reason,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewMovementResponse mapea la entidad al DTO.
func NewMovementResponse(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		VariantID:     m.VariantID,
		Location:      m.Location,
		MovementType:  m.MovementType,
		Quantity:      m.Quantity,
		PreviousStock: m.PreviousStock,
		NewStock:      m.NewStock,
		Reason:        m.Reason,
		Reference:     m.Reference,
		Notes:         m.Notes,
		UserName:      m.UserName,
		CreatedAt:     m.CreatedAt,
	}
}
