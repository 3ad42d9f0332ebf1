package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
)

// GetCart devuelve el carrito con sus líneas.
func (uc *UseCase) GetCart(ctx context.Context, cartID string) (*entity.Cart, error) {
	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}
	return cart, nil
}

// GetOrCreateActiveCart devuelve el carrito activo del usuario, creándolo en
// estado pendiente si no existe. Un usuario tiene a lo sumo un carrito activo.
func (uc *UseCase) GetOrCreateActiveCart(ctx context.Context, userID string, vendedorID *string) (*entity.Cart, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	cart, err := uc.carts.GetActiveByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart = &entity.Cart{
		ID:         uuid.New().String(),
		UserID:     userID,
		VendedorID: vendedorID,
		Estado:     entity.CartStatePendiente,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := uc.carts.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItem resuelve la línea por (carrito, producto, variante). El ID de la
// línea es a la vez su token de reserva.
func (uc *UseCase) FindItem(ctx context.Context, cartID, productID string, variantID *string) (*entity.CartItem, error) {
	item, err := uc.carts.FindItem(cartID, productID, variantID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// UpdateEstado mueve el carrito entre estados operativos. Los estados
// terminales van por sus propios caminos: pagado solo lo fija el checkout y
// cancelado la cancelación explícita; pedirlos acá es ErrInvalidInput.
// Marcar listo_para_pago no toca stock; el decremento ocurre al finalizar.
func (uc *UseCase) UpdateEstado(ctx context.Context, cartID, estado string) (*entity.Cart, error) {
	switch estado {
	case entity.CartStatePendiente, entity.CartStateEdicion, entity.CartStateListoParaPago:
		// transiciones operativas, siempre permitidas entre sí
	case entity.CartStateCompletado:
		// solo desde pagado (entrega registrada)
	default:
		return nil, domain.ErrInvalidInput
	}

	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}

	if estado == entity.CartStateCompletado {
		if cart.Estado != entity.CartStatePagado {
			return nil, domain.ErrConflict
		}
	} else if !entity.CartStateActive(cart.Estado) {
		return nil, domain.ErrConflict
	}

	if err := uc.carts.UpdateEstado(cartID, estado); err != nil {
		return nil, err
	}
	cart.Estado = estado
	return cart, nil
}
