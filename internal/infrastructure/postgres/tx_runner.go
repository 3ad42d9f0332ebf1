package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mfarias/mayorista-core/internal/application/checkout"
	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// Ensure TxRunner implementa los puertos transaccionales de los casos de uso.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ reservation.TxRunner = (*TxRunner)(nil)
var _ checkout.TxRunner = (*TxRunner)(nil)

// maxTxRetries reintentos internos ante serialization_failure/deadlock antes
// de devolver domain.ErrConcurrentModification.
const maxTxRetries = 3

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con los
// repositorios atados a la tx. Los locks por fila (SELECT FOR UPDATE) dan la
// atomicidad por StockLine; mutaciones sobre líneas distintas no se bloquean
// entre sí.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run transacción del libro de stock: líneas + movimientos.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lines repository.StockLineRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.withRetry(ctx, func(tx Querier) error {
		return fn(NewStockLineRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunReservation transacción de reservas: líneas + carritos.
func (r *TxRunner) RunReservation(ctx context.Context, fn func(
	lines repository.StockLineRepository,
	carts repository.CartRepository,
) error) error {
	return r.withRetry(ctx, func(tx Querier) error {
		return fn(NewStockLineRepository(tx), NewCartRepository(tx))
	})
}

// RunCheckout transacción del checkout: líneas + movimientos + carritos + órdenes.
func (r *TxRunner) RunCheckout(ctx context.Context, fn func(
	lines repository.StockLineRepository,
	movements repository.StockMovementRepository,
	carts repository.CartRepository,
	orders repository.OrderRepository,
) error) error {
	return r.withRetry(ctx, func(tx Querier) error {
		return fn(NewStockLineRepository(tx), NewStockMovementRepository(tx), NewCartRepository(tx), NewOrderRepository(tx))
	})
}

// withRetry inicia la transacción, ejecuta fn y hace Commit o Rollback.
// Conflictos de serialización se reintentan hasta maxTxRetries veces; agotados
// los intentos devuelve domain.ErrConcurrentModification.
func (r *TxRunner) withRetry(ctx context.Context, fn func(tx Querier) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", domain.ErrConcurrentModification, lastErr)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(tx Querier) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
