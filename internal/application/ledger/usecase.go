package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

// UseCase implementa el libro de stock: lecturas por ubicación y movimientos
// append-only con snapshots. Cada mutación es una transacción sobre una sola
// StockLine; mutaciones sobre líneas distintas nunca se bloquean entre sí.
type UseCase struct {
	txRunner  TxRunner
	lines     repository.StockLineRepository
	movements repository.StockMovementRepository
	reports   ReportGenerator
	log       *logger.Logger
}

// NewUseCase construye el caso de uso. lines y movements se usan para lecturas
// fuera de transacción; txRunner para toda mutación. reports puede ser nil si
// no se sirven reportes.
func NewUseCase(txRunner TxRunner, lines repository.StockLineRepository, movements repository.StockMovementRepository, reports ReportGenerator, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, lines: lines, movements: movements, reports: reports, log: log}
}

// MovementInput entrada para ApplyMovement.
type MovementInput struct {
	ProductID    string
	VariantID    *string
	Location     string
	MovementType string
	Quantity     int // delta con signo
	Reason       string
	Reference    string
	Notes        string
	UserID       *string
	UserName     string
	// Force habilita un ajuste correctivo que puede dejar stock < reservado:
	// las reservas huérfanas se recortan al nuevo stock y el recorte queda
	// registrado. Solo para ajustes explícitos de administrador.
	Force bool
}

// GetStock devuelve la línea de una ubicación. Lectura sin lock: el Available
// puede quedar levemente viejo bajo tráfico de reservas; el resultado de
// Reserve es el autoritativo.
func (uc *UseCase) GetStock(ctx context.Context, productID string, variantID *string, location string) (*entity.StockLine, error) {
	line, err := uc.lines.Get(productID, variantID, location)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.ErrNotFound
	}
	return line, nil
}

// ListStock devuelve todas las ubicaciones del producto/variante.
func (uc *UseCase) ListStock(ctx context.Context, productID string, variantID *string) ([]*entity.StockLine, error) {
	return uc.lines.List(productID, variantID)
}

// ListMovements devuelve el libro filtrado, más recientes primero.
func (uc *UseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return uc.movements.List(filter)
}

// ApplyMovement lee el stock actual con la fila bloqueada, calcula
// newStock = actual + delta, agrega el movimiento y actualiza la línea, todo
// en una transacción. Falla con ErrInvalidMovement si el resultado dejaría
// stock < reservado, salvo ajuste forzado (ver MovementInput.Force).
func (uc *UseCase) ApplyMovement(ctx context.Context, input MovementInput) (*entity.StockMovement, error) {
	if !entity.ValidMovementType(input.MovementType) {
		return nil, domain.ErrInvalidInput
	}
	if input.Quantity == 0 || input.Location == "" || input.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if input.Force && input.MovementType != entity.MovementTypeAdjustment {
		return nil, domain.ErrInvalidInput
	}

	var movement *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(lines repository.StockLineRepository, movements repository.StockMovementRepository) error {
		var err error
		movement, err = applyMovementTx(lines, movements, input, uc.log)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// AbsoluteStockInput una entrada de POST /products/:id/stocks.
type AbsoluteStockInput struct {
	ProductID string
	VariantID *string
	Location  string
	NewValue  int
	Reason    string
	UserID    *string
	UserName  string
}

// SetAbsoluteStock fija el stock de una ubicación en un valor absoluto:
// calcula el delta contra el stock actual dentro de la transacción y registra
// un movimiento de ajuste. Delta cero no genera movimiento.
func (uc *UseCase) SetAbsoluteStock(ctx context.Context, input AbsoluteStockInput) (*entity.StockMovement, error) {
	if input.ProductID == "" || input.Location == "" {
		return nil, domain.ErrInvalidInput
	}
	var movement *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(lines repository.StockLineRepository, movements repository.StockMovementRepository) error {
		current := 0
		line, err := lines.GetForUpdate(input.ProductID, input.VariantID, input.Location)
		if err != nil {
			return err
		}
		if line != nil {
			current = line.Stock
		}
		delta := input.NewValue - current
		if delta == 0 {
			return nil
		}
		reason := input.Reason
		if reason == "" {
			reason = fmt.Sprintf("stock fijado en %d", input.NewValue)
		}
		movement, err = applyMovementTx(lines, movements, MovementInput{
			ProductID:    input.ProductID,
			VariantID:    input.VariantID,
			Location:     input.Location,
			MovementType: entity.MovementTypeAdjustment,
			Quantity:     delta,
			Reason:       reason,
			UserID:       input.UserID,
			UserName:     input.UserName,
		}, uc.log)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// MovementReport genera el PDF del libro filtrado, más recientes primero.
func (uc *UseCase) MovementReport(ctx context.Context, filter repository.MovementFilter) ([]byte, error) {
	if uc.reports == nil {
		return nil, fmt.Errorf("generador de reportes no configurado")
	}
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	movs, err := uc.movements.List(filter)
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateMovementReport(ctx, filter, movs)
}

// Reconcile reproduce el libro de una línea y compara contra el stock
// materializado. Devuelve el stock calculado y si coincide; es la propiedad
// de auditoría primaria del libro.
func (uc *UseCase) Reconcile(ctx context.Context, productID string, variantID *string, location string) (replayed int, ok bool, err error) {
	line, err := uc.lines.Get(productID, variantID, location)
	if err != nil {
		return 0, false, err
	}
	if line == nil {
		return 0, false, domain.ErrNotFound
	}
	movs, err := uc.movements.ListByLine(productID, variantID, location)
	if err != nil {
		return 0, false, err
	}
	for _, m := range movs {
		replayed += m.Quantity
	}
	return replayed, replayed == line.Stock, nil
}

// applyMovementTx es el núcleo compartido de ApplyMovement y SetAbsoluteStock
// (y del checkout, vía su propio runner): asume fila ya dentro de transacción.
func applyMovementTx(
	lines repository.StockLineRepository,
	movements repository.StockMovementRepository,
	input MovementInput,
	log *logger.Logger,
) (*entity.StockMovement, error) {
	line, err := lines.GetForUpdate(input.ProductID, input.VariantID, input.Location)
	if err != nil {
		return nil, err
	}

	created := false
	if line == nil {
		// Primer alta para esta identidad: la línea nace con el movimiento y
		// el movimiento queda registrado como "initial".
		if input.Quantity < 0 {
			return nil, domain.ErrInvalidMovement
		}
		line = &entity.StockLine{
			ID:        uuid.New().String(),
			ProductID: input.ProductID,
			VariantID: input.VariantID,
			Location:  input.Location,
		}
		created = true
		input.MovementType = entity.MovementTypeInitial
	}

	previous := line.Stock
	newStock := previous + input.Quantity
	notes := input.Notes

	if newStock < line.Reserved {
		if !input.Force {
			return nil, domain.ErrInvalidMovement
		}
		// Corrección forzada: recortar reservas huérfanas al stock resultante.
		clamped := newStock
		if clamped < 0 {
			clamped = 0
		}
		if log != nil {
			log.Warn().
				Str("product_id", input.ProductID).
				Str("location", input.Location).
				Int("reserved_antes", line.Reserved).
				Int("reserved_despues", clamped).
				Msg("ajuste forzado: reservas huérfanas recortadas")
		}
		if notes != "" {
			notes += "; "
		}
		notes += fmt.Sprintf("ajuste forzado: reservado %d -> %d", line.Reserved, clamped)
		line.Reserved = clamped
	}

	line.Stock = newStock
	line.UpdatedAt = time.Now()
	if created {
		if err := lines.Create(line); err != nil {
			return nil, err
		}
	} else if err := lines.Update(line); err != nil {
		return nil, err
	}

	movement := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		VariantID:     input.VariantID,
		Location:      input.Location,
		MovementType:  input.MovementType,
		Quantity:      input.Quantity,
		PreviousStock: previous,
		NewStock:      newStock,
		Reason:        input.Reason,
		Reference:     input.Reference,
		Notes:         notes,
		UserID:        input.UserID,
		UserName:      input.UserName,
		CreatedAt:     time.Now(),
	}
	if err := movements.Create(movement); err != nil {
		return nil, err
	}
	return movement, nil
}
