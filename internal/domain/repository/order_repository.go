package repository

import "github.com/mfarias/mayorista-core/internal/domain/entity"

// OrderRepository define el puerto de persistencia de órdenes finalizadas.
type OrderRepository interface {
	Create(order *entity.Order, items []entity.OrderItem) error
	GetByID(id string) (*entity.Order, error)
}
