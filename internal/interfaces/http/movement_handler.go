package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/dto"
	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
)

// MovementHandler maneja el libro de movimientos de stock (protegido).
type MovementHandler struct {
	ledger *ledger.UseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *ledger.UseCase) *MovementHandler {
	return &MovementHandler{ledger: uc}
}

// CreateMovement godoc
// @Summary      Registrar un movimiento manual de stock
// @Tags         stock-movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateMovementRequest  true  "movimiento con delta firmado"
// @Success      201  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock-movements [post]
func (h *MovementHandler) CreateMovement(c *fiber.Ctx) error {
	var in dto.CreateMovementRequest
	if !parseBody(c, &in) {
		return nil
	}
	// El ajuste forzado recorta reservas ajenas: solo admin.
	if in.Force && GetRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el ajuste forzado requiere rol admin"})
	}

	movement, err := h.ledger.ApplyMovement(c.Context(), ledger.MovementInput{
		ProductID:    in.ProductID,
		VariantID:    in.VariantID,
		Location:     in.Location,
		MovementType: in.MovementType,
		Quantity:     in.Quantity,
		Reason:       in.Reason,
		Reference:    in.Reference,
		Notes:        in.Notes,
		UserID:       optionalLocal(c, LocalUserID),
		UserName:     GetUserName(c),
		Force:        in.Force,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementResponse(movement))
}

// ListMovements godoc
// @Summary      Listar el libro de movimientos
// @Tags         stock-movements
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  string  false  "Filtrar por producto"
// @Param        variant_id     query  string  false  "Filtrar por variante"
// @Param        location       query  string  false  "Filtrar por ubicación"
// @Param        movement_type  query  string  false  "Filtrar por tipo"
// @Param        limit          query  int     false  "Máximo de filas (default 100)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stock-movements [get]
func (h *MovementHandler) ListMovements(c *fiber.Ctx) error {
	filter := movementFilterFromQuery(c)

	movements, err := h.ledger.ListMovements(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewMovementResponse(m))
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF del libro de movimientos
// @Tags         stock-movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        product_id     query  string  false  "Filtrar por producto"
// @Param        variant_id     query  string  false  "Filtrar por variante"
// @Param        location       query  string  false  "Filtrar por ubicación"
// @Param        movement_type  query  string  false  "Filtrar por tipo"
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock-movements/report [get]
func (h *MovementHandler) Report(c *fiber.Ctx) error {
	filter := movementFilterFromQuery(c)

	pdfBytes, err := h.ledger.MovementReport(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="movimientos-stock.pdf"`)
	return c.Send(pdfBytes)
}

func movementFilterFromQuery(c *fiber.Ctx) repository.MovementFilter {
	return repository.MovementFilter{
		ProductID:    c.Query("product_id"),
		VariantID:    optionalQuery(c, "variant_id"),
		Location:     c.Query("location"),
		MovementType: c.Query("movement_type"),
		Limit:        c.QueryInt("limit"),
	}
}
