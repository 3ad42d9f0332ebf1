package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

// UseCase convierte reservas confirmadas en decrementos permanentes de stock
// al finalizar una orden, o las libera al cancelar.
//
// Estrategia de fallas: cada línea se decrementa en su propia transacción. Si
// una línea falla a mitad de camino NO se revierte automáticamente con una
// transacción distribuida: se emiten ajustes compensatorios por las líneas ya
// aplicadas (restaurando stock y reserva) y se devuelve un error reintentable.
// Las órdenes parcialmente cumplidas quedan visibles y corregibles vía el
// libro de movimientos.
type UseCase struct {
	txRunner     TxRunner
	carts        repository.CartRepository
	orders       repository.OrderRepository
	reservations *reservation.UseCase
	quotes       *pricing.UseCase
	log          *logger.Logger
}

// NewUseCase construye el coordinador. orders se usa para lecturas fuera de
// transacción; las escrituras van por el runner.
func NewUseCase(txRunner TxRunner, carts repository.CartRepository, orders repository.OrderRepository, reservations *reservation.UseCase, quotes *pricing.UseCase, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, carts: carts, orders: orders, reservations: reservations, quotes: quotes, log: log}
}

// GetOrder devuelve la orden o ErrNotFound.
func (uc *UseCase) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	order, err := uc.orders.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// appliedLine registro de una línea ya decrementada, para compensación.
type appliedLine struct {
	item     entity.CartItem
	location string
}

// Finalize convierte el carrito en una orden. Requiere que toda línea esté
// confirmada (stock_confirmed) o exenta de verificación. Por cada línea aplica
// un movimiento "sale" de -cantidad referenciando la orden y libera la reserva
// (ya redundante: el stock mismo bajó).
func (uc *UseCase) Finalize(ctx context.Context, cartID, userName string, userID *string) (*entity.Order, error) {
	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}
	if !entity.CartStateActive(cart.Estado) {
		return nil, domain.ErrConflict
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for i := range cart.Items {
		it := &cart.Items[i]
		if it.RequiresStockCheck && !it.StockConfirmed {
			return nil, domain.ErrConflict
		}
	}

	// Precio por cantidad agregada del carrito, congelado en la orden.
	quote, err := uc.quotes.QuoteCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	// Reclamar el carrito antes de tocar stock. La guarda de estado de arriba
	// es una lectura sin lock: dos finalizaciones concurrentes podrían pasarla
	// y decrementar dos veces. La transición condicionada a pagado es el
	// compare-and-set que deja un único ganador; si falla la finalización,
	// restoreEstado devuelve el carrito a su estado previo.
	claimed, err := uc.carts.UpdateEstadoGuarded(cartID, entity.CartStatePagado,
		entity.CartStatePendiente, entity.CartStateEdicion, entity.CartStateListoParaPago)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, domain.ErrConflict
	}

	orderID := uuid.New().String()
	applied := make([]appliedLine, 0, len(cart.Items))

	for i := range cart.Items {
		item := cart.Items[i]
		// Snapshot previo a aplicar: applyLine pone ReservedQuantity en cero y
		// la compensación necesita el valor original para restaurar la reserva.
		snapshot := item
		location, err := uc.applyLine(ctx, &item, orderID, userName, userID)
		if err != nil {
			uc.compensate(ctx, orderID, applied, userName, userID)
			uc.restoreEstado(cartID, cart.Estado)
			return nil, fmt.Errorf("finalización interrumpida en producto %s (compensada, reintentable): %w", item.ProductID, err)
		}
		applied = append(applied, appliedLine{item: snapshot, location: location})
	}

	order := &entity.Order{
		ID:            orderID,
		CartID:        cart.ID,
		UserID:        cart.UserID,
		VendedorID:    cart.VendedorID,
		TotalQuantity: quote.TotalQuantity,
		Subtotal:      quote.Subtotal,
		CreatedAt:     time.Now(),
	}
	if quote.Tier != nil {
		order.TierName = quote.Tier.Name
	}
	orderItems := buildOrderItems(orderID, quote)

	err = uc.txRunner.RunCheckout(ctx, func(_ repository.StockLineRepository, _ repository.StockMovementRepository, carts repository.CartRepository, orders repository.OrderRepository) error {
		if err := orders.Create(order, orderItems); err != nil {
			return err
		}
		// El carrito es dueño exclusivo de sus líneas: al finalizar se
		// destruyen (el detalle queda congelado en la orden). El estado ya es
		// pagado desde el reclamo inicial.
		for i := range cart.Items {
			if err := carts.DeleteItem(cart.Items[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Stock ya decrementado y orden sin registrar: compensar igual que una
		// línea fallida para dejar el carrito reintentable.
		uc.compensate(ctx, orderID, applied, userName, userID)
		uc.restoreEstado(cartID, cart.Estado)
		return nil, fmt.Errorf("registro de orden: %w", err)
	}

	uc.log.Info().
		Str("order_id", orderID).
		Str("cart_id", cart.ID).
		Int("lineas", len(applied)).
		Msg("orden finalizada")
	return order, nil
}

// applyLine decrementa stock y reserva de una línea en una única transacción.
// Devuelve la ubicación efectivamente usada. Una línea sin reserva sale de la
// primera ubicación con disponible suficiente.
func (uc *UseCase) applyLine(ctx context.Context, item *entity.CartItem, orderID, userName string, userID *string) (string, error) {
	location := item.Location
	err := uc.txRunner.RunCheckout(ctx, func(lines repository.StockLineRepository, movements repository.StockMovementRepository, carts repository.CartRepository, _ repository.OrderRepository) error {
		var line *entity.StockLine
		var err error

		if item.HasReservation() {
			line, err = lines.GetForUpdate(item.ProductID, item.VariantID, item.Location)
			if err != nil {
				return err
			}
			if line == nil {
				return domain.ErrNotFound
			}
		} else {
			// Sin reserva previa: buscar una ubicación con disponible.
			location, line, err = findAvailable(lines, item)
			if err != nil {
				return err
			}
		}

		if line.Stock < item.Quantity {
			return domain.ErrInsufficientStock
		}
		reservedHere := 0
		if item.HasReservation() {
			reservedHere = item.ReservedQuantity
			if reservedHere > line.Reserved {
				reservedHere = line.Reserved
			}
		}

		previous := line.Stock
		line.Stock -= item.Quantity
		line.Reserved -= reservedHere
		if line.Stock < line.Reserved {
			// Un ajuste concurrente invalidó la línea: el caller compensa.
			return domain.ErrInvalidMovement
		}
		line.UpdatedAt = time.Now()
		if err := lines.Update(line); err != nil {
			return err
		}

		movement := &entity.StockMovement{
			ID:            uuid.New().String(),
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			Location:      location,
			MovementType:  entity.MovementTypeSale,
			Quantity:      -item.Quantity,
			PreviousStock: previous,
			NewStock:      line.Stock,
			Reason:        "venta",
			Reference:     orderID,
			UserID:        userID,
			UserName:      userName,
			CreatedAt:     time.Now(),
		}
		if err := movements.Create(movement); err != nil {
			return err
		}

		if item.HasReservation() {
			item.ReservedQuantity = 0
			if err := carts.UpdateItem(item); err != nil {
				return err
			}
		}
		return nil
	})
	return location, err
}

// compensate emite un ajuste por cada línea ya aplicada restaurando stock y
// reserva previos. Los errores de compensación se loguean y no enmascaran la
// causa original: el libro de movimientos permite corregir a mano.
func (uc *UseCase) compensate(ctx context.Context, orderID string, applied []appliedLine, userName string, userID *string) {
	for _, a := range applied {
		item := a.item
		err := uc.txRunner.RunCheckout(ctx, func(lines repository.StockLineRepository, movements repository.StockMovementRepository, carts repository.CartRepository, _ repository.OrderRepository) error {
			line, err := lines.GetForUpdate(item.ProductID, item.VariantID, a.location)
			if err != nil {
				return err
			}
			if line == nil {
				return domain.ErrNotFound
			}
			previous := line.Stock
			line.Stock += item.Quantity
			if item.HasReservation() {
				line.Reserved += item.ReservedQuantity
			}
			line.UpdatedAt = time.Now()
			if err := lines.Update(line); err != nil {
				return err
			}
			movement := &entity.StockMovement{
				ID:            uuid.New().String(),
				ProductID:     item.ProductID,
				VariantID:     item.VariantID,
				Location:      a.location,
				MovementType:  entity.MovementTypeAdjustment,
				Quantity:      item.Quantity,
				PreviousStock: previous,
				NewStock:      line.Stock,
				Reason:        "compensación de checkout fallido",
				Reference:     orderID,
				UserID:        userID,
				UserName:      userName,
				CreatedAt:     time.Now(),
			}
			if err := movements.Create(movement); err != nil {
				return err
			}
			if item.HasReservation() {
				restored := item
				if err := carts.UpdateItem(&restored); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			uc.log.Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", item.ProductID).
				Msg("compensación de línea falló; corregir vía libro de movimientos")
		}
	}
}

// restoreEstado devuelve el carrito a su estado previo tras una finalización
// compensada, para que el reintento vuelva a pasar la guarda de estado.
func (uc *UseCase) restoreEstado(cartID, estado string) {
	if err := uc.carts.UpdateEstado(cartID, estado); err != nil {
		uc.log.Error().Err(err).
			Str("cart_id", cartID).
			Str("estado", estado).
			Msg("no se pudo restaurar el estado del carrito tras compensar")
	}
}

// Cancel libera todas las reservas activas del carrito sin aplicar
// movimientos. Seguro en cualquier punto (incluido tras un Finalize parcial
// ya compensado) e idempotente: liberar cero reservas es un no-op.
func (uc *UseCase) Cancel(ctx context.Context, cartID string) error {
	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return err
	}
	if cart == nil {
		// Limpieza defensiva: un carrito inexistente no falla la acción.
		return nil
	}
	if err := uc.reservations.ReleaseCart(ctx, cartID); err != nil {
		return err
	}
	switch cart.Estado {
	case entity.CartStatePagado, entity.CartStateCompletado, entity.CartStateCancelado:
		return nil
	}
	for i := range cart.Items {
		if err := uc.carts.DeleteItem(cart.Items[i].ID); err != nil {
			return err
		}
	}
	return uc.carts.UpdateEstado(cartID, entity.CartStateCancelado)
}

// findAvailable recorre las ubicaciones del producto y bloquea la primera con
// disponible suficiente para la línea.
func findAvailable(lines repository.StockLineRepository, item *entity.CartItem) (string, *entity.StockLine, error) {
	candidates, err := lines.List(item.ProductID, item.VariantID)
	if err != nil {
		return "", nil, err
	}
	for _, c := range candidates {
		if c.Available() < item.Quantity {
			continue
		}
		locked, err := lines.GetForUpdate(item.ProductID, item.VariantID, c.Location)
		if err != nil {
			return "", nil, err
		}
		if locked == nil || locked.Available() < item.Quantity {
			continue
		}
		return locked.Location, locked, nil
	}
	return "", nil, domain.ErrInsufficientStock
}

func buildOrderItems(orderID string, quote *pricing.CartQuote) []entity.OrderItem {
	items := make([]entity.OrderItem, 0, len(quote.Items))
	for _, qi := range quote.Items {
		items = append(items, entity.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: qi.Item.ProductID,
			VariantID: qi.Item.VariantID,
			Location:  qi.Item.Location,
			Quantity:  qi.Item.Quantity,
			UnitPrice: qi.UnitPrice,
		})
	}
	return items
}
