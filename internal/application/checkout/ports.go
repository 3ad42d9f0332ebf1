package checkout

import (
	"context"

	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con todos los repositorios que el
// checkout necesita. El coordinador lo invoca una vez POR LÍNEA (cada
// actualización de StockLine es atómica por sí sola) y una vez más para crear
// la orden: la atomicidad entre líneas no es un requisito del negocio, se
// compensa con ajustes (ver UseCase.Finalize).
type TxRunner interface {
	RunCheckout(ctx context.Context, fn func(
		lines repository.StockLineRepository,
		movements repository.StockMovementRepository,
		carts repository.CartRepository,
		orders repository.OrderRepository,
	) error) error
}
