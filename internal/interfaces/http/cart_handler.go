package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/dto"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
)

// CartHandler maneja el carrito de la vendedora: líneas, reservas por
// ubicación y la cotización con el tier aplicado (protegido).
type CartHandler struct {
	reservations *reservation.UseCase
	quotes       *pricing.UseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(reservations *reservation.UseCase, quotes *pricing.UseCase) *CartHandler {
	return &CartHandler{reservations: reservations, quotes: quotes}
}

// GetActiveCart godoc
// @Summary      Carrito activo del usuario (lo crea si no existe)
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Param        user_id  query  string  false  "Carrito de otro usuario (vendedor/admin)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/cart [get]
func (h *CartHandler) GetActiveCart(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	var vendedorID *string
	if userID == "" {
		userID = GetUserID(c)
	} else {
		// Vendedora operando el carrito de un cliente.
		vendedorID = optionalLocal(c, LocalUserID)
	}

	cart, err := h.reservations.GetOrCreateActiveCart(c.Context(), userID, vendedorID)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, dto.NewCartItemResponse(&cart.Items[i]))
	}
	return c.JSON(fiber.Map{
		"id":     cart.ID,
		"estado": cart.Estado,
		"items":  items,
	})
}

// AddToCart godoc
// @Summary      Agregar una línea al carrito reservando stock
// @Description  Fija producto+variante+ubicación y reserva las unidades en esa
//
//	ubicación. Con stock insuficiente no toca nada y responde 409.
//
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddToCartRequest  true  "línea a reservar"
// @Success      201  {object}  dto.ReserveResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cart/add [post]
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	var in dto.AddToCartRequest
	if !parseBody(c, &in) {
		return nil
	}
	result, err := h.reservations.Reserve(c.Context(), reservation.ReserveInput{
		CartID:             in.CartID,
		ProductID:          in.ProductID,
		VariantID:          in.VariantID,
		Location:           in.Location,
		Quantity:           in.Quantity,
		RequiresStockCheck: in.RequiresStockCheck,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reserveResponse(result))
}

// UpdateCartItem godoc
// @Summary      Actualizar una línea del carrito
// @Description  Campos en nil no se tocan. Cambios de ubicación re-reservan;
//
//	reserve=false libera; stock_confirmed=true marca la línea verificada.
//
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                     true  "ID del producto"
// @Param        body       body  dto.UpdateCartItemRequest  true  "cambios"
// @Success      200  {object}  dto.CartItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cart/update/{productId} [put]
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	productID := c.Params("productId")
	var in dto.UpdateCartItemRequest
	if !parseBody(c, &in) {
		return nil
	}

	item, err := h.reservations.FindItem(c.Context(), in.CartID, productID, in.VariantID)
	if err != nil {
		return respondError(c, err)
	}
	token := item.ID

	switch {
	case in.Reserve != nil && !*in.Reserve:
		if err := h.reservations.Release(c.Context(), token); err != nil {
			return respondError(c, err)
		}
		// La cantidad puede cambiar aunque la línea quede sin reserva.
		if in.Quantity != nil {
			if _, err := h.reservations.ChangeQuantity(c.Context(), token, *in.Quantity); err != nil {
				return respondError(c, err)
			}
		}
	case in.Location != nil || (in.Reserve != nil && *in.Reserve):
		quantity := item.Quantity
		if in.Quantity != nil {
			quantity = *in.Quantity
		}
		location := item.Location
		if in.Location != nil {
			location = *in.Location
		}
		if _, err := h.reservations.Reserve(c.Context(), reservation.ReserveInput{
			CartID:             in.CartID,
			ProductID:          productID,
			VariantID:          in.VariantID,
			Location:           location,
			Quantity:           quantity,
			RequiresStockCheck: item.RequiresStockCheck,
		}); err != nil {
			return respondError(c, err)
		}
	case in.Quantity != nil:
		if _, err := h.reservations.ChangeQuantity(c.Context(), token, *in.Quantity); err != nil {
			return respondError(c, err)
		}
	}

	if in.StockConfirmed != nil && *in.StockConfirmed {
		if _, err := h.reservations.Confirm(c.Context(), token); err != nil {
			return respondError(c, err)
		}
	}

	updated, err := h.reservations.FindItem(c.Context(), in.CartID, productID, in.VariantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewCartItemResponse(updated))
}

// RemoveCartItem godoc
// @Summary      Eliminar una línea del carrito liberando su reserva
// @Tags         cart
// @Security     Bearer
// @Param        itemId  path  string  true  "ID de la línea (token de reserva)"
// @Success      204  "sin contenido"
// @Router       /api/cart/item/{itemId} [delete]
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	if err := h.reservations.RemoveItem(c.Context(), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CartSummary godoc
// @Summary      Cotización del carrito: tier aplicado y gap al siguiente
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Param        cart_id  query  string  true  "ID del carrito"
// @Success      200  {object}  dto.CartSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cart/summary [get]
func (h *CartHandler) CartSummary(c *fiber.Ctx) error {
	cartID := c.Query("cart_id")
	if cartID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cart_id requerido"})
	}
	quote, err := h.quotes.QuoteCart(c.Context(), cartID)
	if err != nil {
		return respondError(c, err)
	}

	out := dto.CartSummaryResponse{
		CartID:          quote.CartID,
		TotalQuantity:   quote.TotalQuantity,
		Subtotal:        quote.Subtotal,
		MissingQuantity: quote.MissingQuantity,
		Items:           make([]dto.CartQuoteItemDTO, 0, len(quote.Items)),
	}
	if quote.Tier != nil {
		out.Tier = &dto.TierSummary{
			Name:        quote.Tier.Name,
			DisplayName: quote.Tier.DisplayName,
			MinQuantity: quote.Tier.MinQuantity,
			OrderIndex:  quote.Tier.OrderIndex,
		}
	}
	if quote.NextTier != nil {
		out.NextTier = &dto.TierSummary{
			Name:        quote.NextTier.Name,
			DisplayName: quote.NextTier.DisplayName,
			MinQuantity: quote.NextTier.MinQuantity,
			OrderIndex:  quote.NextTier.OrderIndex,
		}
	}
	for i := range quote.Items {
		out.Items = append(out.Items, dto.CartQuoteItemDTO{
			CartItemResponse: dto.NewCartItemResponse(&quote.Items[i].Item),
			UnitPrice:        quote.Items[i].UnitPrice,
			Subtotal:         quote.Items[i].Subtotal,
		})
	}
	return c.JSON(out)
}

// UpdateCartStatus godoc
// @Summary      Cambiar el estado del carrito
// @Description  listo_para_pago solo marca el carrito: el stock se decrementa
//
//	recién al finalizar el checkout.
//
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del carrito"
// @Param        body  body  dto.UpdateCartStatusRequest  true  "nuevo estado"
// @Success      200  {object}  map[string]string
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/carts/{id}/status [put]
func (h *CartHandler) UpdateCartStatus(c *fiber.Ctx) error {
	var in dto.UpdateCartStatusRequest
	if !parseBody(c, &in) {
		return nil
	}
	cart, err := h.reservations.UpdateEstado(c.Context(), c.Params("id"), in.Estado)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": cart.ID, "estado": cart.Estado})
}

// reserveResponse arma la respuesta de una mutación de reserva.
func reserveResponse(result *reservation.ReserveResult) dto.ReserveResponse {
	out := dto.ReserveResponse{
		Token: result.Token,
		Item:  dto.NewCartItemResponse(result.Item),
	}
	if result.Line != nil {
		line := dto.NewStockLineResponse(result.Line)
		out.Line = &line
	}
	return out
}
