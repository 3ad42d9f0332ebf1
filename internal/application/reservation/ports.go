package reservation

import (
	"context"

	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con líneas de stock y carritos atados
// a ella. Misma semántica de reintentos que el runner del libro de stock.
type TxRunner interface {
	RunReservation(ctx context.Context, fn func(
		lines repository.StockLineRepository,
		carts repository.CartRepository,
	) error) error
}
