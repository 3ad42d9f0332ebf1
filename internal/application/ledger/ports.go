package ledger

import (
	"context"

	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con los repositorios del libro
// de stock atados a ella. La implementación debe reintentar internamente los
// conflictos de serialización un número acotado de veces antes de devolver
// domain.ErrConcurrentModification.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lines repository.StockLineRepository,
		movements repository.StockMovementRepository,
	) error) error
}

// ReportGenerator produce el reporte imprimible del libro de movimientos.
type ReportGenerator interface {
	GenerateMovementReport(ctx context.Context, filter repository.MovementFilter, movements []*entity.StockMovement) ([]byte, error)
}
