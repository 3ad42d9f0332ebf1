package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/dto"
	"github.com/mfarias/mayorista-core/internal/application/ledger"
)

// StockHandler maneja las consultas de stock por ubicación y las cargas
// absolutas (protegido).
type StockHandler struct {
	ledger *ledger.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *ledger.UseCase) *StockHandler {
	return &StockHandler{ledger: uc}
}

// ListLocationStocks godoc
// @Summary      Stock por ubicación de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        variant_id  query  string  false  "ID de la variante"
// @Param        location    query  string  false  "Filtrar por ubicación"
// @Success      200  {array}   dto.StockLineResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/location-stocks [get]
func (h *StockHandler) ListLocationStocks(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id requerido"})
	}
	variantID := optionalQuery(c, "variant_id")
	location := c.Query("location")

	lines, err := h.ledger.ListStock(c.Context(), productID, variantID)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]dto.StockLineResponse, 0, len(lines))
	for _, line := range lines {
		if location != "" && line.Location != location {
			continue
		}
		out = append(out, dto.NewStockLineResponse(line))
	}
	return c.JSON(out)
}

// SetStocks godoc
// @Summary      Fijar stock absoluto por ubicación
// @Description  Cada entrada fija el stock de (producto, variante, ubicación)
//
//	en un valor absoluto; el delta queda registrado como ajuste en el libro.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del producto"
// @Param        body  body  dto.SetStocksRequest  true  "stocks por ubicación"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/stocks [post]
func (h *StockHandler) SetStocks(c *fiber.Ctx) error {
	productID := c.Params("id")
	var in dto.SetStocksRequest
	if !parseBody(c, &in) {
		return nil
	}
	userID := optionalLocal(c, LocalUserID)
	userName := GetUserName(c)

	out := make([]dto.MovementResponse, 0, len(in.Stocks))
	for _, entry := range in.Stocks {
		movement, err := h.ledger.SetAbsoluteStock(c.Context(), ledger.AbsoluteStockInput{
			ProductID: productID,
			VariantID: entry.VariantID,
			Location:  entry.Location,
			NewValue:  entry.Quantity,
			Reason:    in.Reason,
			UserID:    userID,
			UserName:  userName,
		})
		if err != nil {
			return respondError(c, err)
		}
		if movement != nil { // delta cero no genera movimiento
			out = append(out, dto.NewMovementResponse(movement))
		}
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Auditar una línea contra su libro de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "ID del producto"
// @Param        variant_id  query  string  false  "ID de la variante"
// @Param        location    query  string  true   "Ubicación"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	location := c.Query("location")
	if productID == "" || location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location requeridos"})
	}
	variantID := optionalQuery(c, "variant_id")

	replayed, ok, err := h.ledger.Reconcile(c.Context(), productID, variantID, location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id":     productID,
		"location":       location,
		"replayed_stock": replayed,
		"consistent":     ok,
	})
}

// optionalQuery devuelve el query param como *string, nil si está vacío.
func optionalQuery(c *fiber.Ctx, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

// optionalLocal devuelve el local como *string, nil si está vacío.
func optionalLocal(c *fiber.Ctx, key string) *string {
	v, _ := c.Locals(key).(string)
	if v == "" {
		return nil
	}
	return &v
}
