package repository

import "github.com/mfarias/mayorista-core/internal/domain/entity"

// CartRepository define el puerto de persistencia de carritos y sus líneas.
// El carrito es dueño exclusivo de sus items.
type CartRepository interface {
	GetByID(id string) (*entity.Cart, error)
	// GetActiveByUser devuelve el carrito activo más reciente del usuario
	// (pendiente/edicion/listo_para_pago) o nil.
	GetActiveByUser(userID string) (*entity.Cart, error)
	Create(cart *entity.Cart) error
	UpdateEstado(cartID, estado string) error
	// UpdateEstadoGuarded transiciona el estado solo si el actual está en
	// from (compare-and-set). Devuelve false si otro proceso ganó la
	// transición.
	UpdateEstadoGuarded(cartID, estado string, from ...string) (bool, error)

	GetItem(itemID string) (*entity.CartItem, error)
	// FindItem busca la línea por (carrito, producto, variante) o nil.
	FindItem(cartID, productID string, variantID *string) (*entity.CartItem, error)
	CreateItem(item *entity.CartItem) error
	UpdateItem(item *entity.CartItem) error
	DeleteItem(itemID string) error
	ListItems(cartID string) ([]entity.CartItem, error)
}
