package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

// UseCase coordina reservas de stock para líneas de carrito. La reserva mueve
// el punto de compromiso al momento en que la vendedora fija
// producto+variante+ubicación en el carrito, no al checkout: sin ella, dos
// carritos concurrentes podrían prometer las mismas unidades.
//
// El token de reserva es el ID del CartItem: a lo sumo una reserva activa por
// línea.
type UseCase struct {
	txRunner TxRunner
	carts    repository.CartRepository
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, carts repository.CartRepository, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, carts: carts, log: log}
}

// ReserveInput entrada para Reserve: fija Quantity unidades de la línea del
// carrito en la ubicación dada.
type ReserveInput struct {
	CartID             string
	ProductID          string
	VariantID          *string
	Location           string
	Quantity           int
	RequiresStockCheck bool
}

// ReserveResult devuelve el token junto con los snapshots actualizados, para
// que el caller no necesite releer (evita la carrera lectura-tras-escritura
// con reservas concurrentes).
type ReserveResult struct {
	Token string
	Item  *entity.CartItem
	Line  *entity.StockLine
}

// Reserve verifica available >= cantidad con la fila bloqueada, incrementa
// Reserved y fija la reserva en la línea del carrito. Si la línea ya tenía
// reserva en otra ubicación, primero la libera allí. Falla con
// ErrInsufficientStock sin tocar nada; el operador puede reintentar en otra
// ubicación (el Manager no busca entre ubicaciones por sí mismo).
func (uc *UseCase) Reserve(ctx context.Context, input ReserveInput) (*ReserveResult, error) {
	if input.CartID == "" || input.ProductID == "" || input.Location == "" || input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	var result ReserveResult
	err := uc.txRunner.RunReservation(ctx, func(lines repository.StockLineRepository, carts repository.CartRepository) error {
		cart, err := carts.GetByID(input.CartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return domain.ErrNotFound
		}
		if !entity.CartStateActive(cart.Estado) {
			return domain.ErrConflict
		}

		item, err := carts.FindItem(input.CartID, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}

		// Reserva previa en otra ubicación: liberar allí antes de reclamar acá.
		if item != nil && item.HasReservation() && item.Location != input.Location {
			if err := releaseOnLine(lines, item); err != nil {
				return err
			}
		}

		line, err := lines.GetForUpdate(input.ProductID, input.VariantID, input.Location)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}

		already := 0
		if item != nil && item.Location == input.Location {
			already = item.ReservedQuantity
			// Un ajuste forzado pudo recortar el Reserved de la fila por
			// debajo del de la línea: el descuento efectivo nunca excede lo
			// que la fila realmente tiene reservado (mismo criterio que
			// releaseOnLine), o Reserved quedaría negativo.
			if already > line.Reserved {
				already = line.Reserved
			}
		}
		delta := input.Quantity - already
		if delta > 0 && line.Available() < delta {
			return domain.ErrInsufficientStock
		}

		line.Reserved += delta
		line.UpdatedAt = time.Now()
		if err := lines.Update(line); err != nil {
			return err
		}

		if item == nil {
			item = &entity.CartItem{
				ID:                 uuid.New().String(),
				CartID:             input.CartID,
				ProductID:          input.ProductID,
				VariantID:          input.VariantID,
				RequiresStockCheck: input.RequiresStockCheck,
			}
			item.Quantity = input.Quantity
			item.Location = input.Location
			item.ReservedQuantity = input.Quantity
			if err := carts.CreateItem(item); err != nil {
				return err
			}
		} else {
			item.Quantity = input.Quantity
			item.Location = input.Location
			item.ReservedQuantity = input.Quantity
			// Cambiar la reserva invalida una confirmación anterior.
			item.StockConfirmed = false
			if input.RequiresStockCheck {
				item.RequiresStockCheck = true
			}
			if err := carts.UpdateItem(item); err != nil {
				return err
			}
		}

		result = ReserveResult{Token: item.ID, Item: item, Line: line}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Release libera la reserva del token. Idempotente: token desconocido o
// reserva ya liberada son no-ops, nunca errores, para que la limpieza de
// líneas y los dobles release no rompan el flujo.
func (uc *UseCase) Release(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return uc.txRunner.RunReservation(ctx, func(lines repository.StockLineRepository, carts repository.CartRepository) error {
		item, err := carts.GetItem(token)
		if err != nil {
			return err
		}
		if item == nil || !item.HasReservation() {
			return nil
		}
		if err := releaseOnLine(lines, item); err != nil {
			return err
		}
		item.ReservedQuantity = 0
		item.StockConfirmed = false
		return carts.UpdateItem(item)
	})
}

// Confirm marca la línea como verificada por la vendedora. No toca Reserved:
// la reserva ya retiene las unidades.
func (uc *UseCase) Confirm(ctx context.Context, token string) (*entity.CartItem, error) {
	var confirmed *entity.CartItem
	err := uc.txRunner.RunReservation(ctx, func(_ repository.StockLineRepository, carts repository.CartRepository) error {
		item, err := carts.GetItem(token)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		item.StockConfirmed = true
		if err := carts.UpdateItem(item); err != nil {
			return err
		}
		confirmed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// ChangeQuantity ajusta la reserva a newQuantity re-verificando disponibilidad
// para el delta. Si el incremento no alcanza, falla con ErrInsufficientStock y
// la reserva anterior queda intacta (rollback de la transacción).
func (uc *UseCase) ChangeQuantity(ctx context.Context, token string, newQuantity int) (*ReserveResult, error) {
	if newQuantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var result ReserveResult
	err := uc.txRunner.RunReservation(ctx, func(lines repository.StockLineRepository, carts repository.CartRepository) error {
		item, err := carts.GetItem(token)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		if !item.HasReservation() {
			// Línea sin reserva: solo se actualiza la cantidad pedida.
			item.Quantity = newQuantity
			if err := carts.UpdateItem(item); err != nil {
				return err
			}
			result = ReserveResult{Token: item.ID, Item: item}
			return nil
		}

		line, err := lines.GetForUpdate(item.ProductID, item.VariantID, item.Location)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		delta := newQuantity - item.ReservedQuantity
		if delta > 0 && line.Available() < delta {
			return domain.ErrInsufficientStock
		}
		line.Reserved += delta
		if line.Reserved < 0 {
			line.Reserved = 0
		}
		line.UpdatedAt = time.Now()
		if err := lines.Update(line); err != nil {
			return err
		}

		item.Quantity = newQuantity
		item.ReservedQuantity = newQuantity
		item.StockConfirmed = false
		if err := carts.UpdateItem(item); err != nil {
			return err
		}
		result = ReserveResult{Token: item.ID, Item: item, Line: line}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReleaseCart libera todas las reservas activas de un carrito. Idempotente;
// lo usan la cancelación y la limpieza tras remover líneas.
func (uc *UseCase) ReleaseCart(ctx context.Context, cartID string) error {
	return uc.txRunner.RunReservation(ctx, func(lines repository.StockLineRepository, carts repository.CartRepository) error {
		items, err := carts.ListItems(cartID)
		if err != nil {
			return err
		}
		for i := range items {
			item := &items[i]
			if !item.HasReservation() {
				continue
			}
			if err := releaseOnLine(lines, item); err != nil {
				return err
			}
			item.ReservedQuantity = 0
			item.StockConfirmed = false
			if err := carts.UpdateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveItem elimina la línea del carrito liberando su reserva primero.
func (uc *UseCase) RemoveItem(ctx context.Context, itemID string) error {
	return uc.txRunner.RunReservation(ctx, func(lines repository.StockLineRepository, carts repository.CartRepository) error {
		item, err := carts.GetItem(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		if item.HasReservation() {
			if err := releaseOnLine(lines, item); err != nil {
				return err
			}
		}
		return carts.DeleteItem(itemID)
	})
}

// releaseOnLine descuenta la reserva del item en su StockLine, con la fila
// bloqueada. Una línea desaparecida o con Reserved menor al esperado se trata
// como limpieza ya hecha, no como error.
func releaseOnLine(lines repository.StockLineRepository, item *entity.CartItem) error {
	line, err := lines.GetForUpdate(item.ProductID, item.VariantID, item.Location)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}
	if line.Reserved >= item.ReservedQuantity {
		line.Reserved -= item.ReservedQuantity
	} else {
		line.Reserved = 0
	}
	line.UpdatedAt = time.Now()
	return lines.Update(line)
}
