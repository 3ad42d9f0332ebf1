package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/checkout"
	"github.com/mfarias/mayorista-core/internal/application/dto"
)

// CheckoutHandler maneja la finalización y cancelación de carritos (protegido).
type CheckoutHandler struct {
	checkout *checkout.UseCase
}

// NewCheckoutHandler construye el handler.
func NewCheckoutHandler(uc *checkout.UseCase) *CheckoutHandler {
	return &CheckoutHandler{checkout: uc}
}

// Finalize godoc
// @Summary      Finalizar el carrito convirtiendo reservas en ventas
// @Description  Requiere toda línea confirmada o exenta de verificación. Por
//
//	cada línea decrementa stock y reserva y registra un movimiento "sale"
//	referenciando la orden. Una falla a mitad de camino se compensa y
//	responde un error reintentable.
//
// @Tags         checkout
// @Security     Bearer
// @Produce      json
// @Param        cartId  path  string  true  "ID del carrito"
// @Success      201  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/checkout/{cartId} [post]
func (h *CheckoutHandler) Finalize(c *fiber.Ctx) error {
	order, err := h.checkout.Finalize(c.Context(), c.Params("cartId"), GetUserName(c), optionalLocal(c, LocalUserID))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewOrderResponse(order))
}

// Cancel godoc
// @Summary      Cancelar el carrito liberando todas sus reservas
// @Description  No genera movimientos de stock: las reservas nunca tocaron el
//
//	stock físico.
//
// @Tags         checkout
// @Security     Bearer
// @Param        id  path  string  true  "ID del carrito"
// @Success      204  "sin contenido"
// @Router       /api/carts/{id}/cancel [post]
func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	if err := h.checkout.Cancel(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetOrder godoc
// @Summary      Consultar una orden finalizada
// @Tags         checkout
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.checkout.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewOrderResponse(order))
}
