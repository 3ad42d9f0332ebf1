package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/dto"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/shopspring/decimal"
)

// PriceTierHandler maneja los niveles de precio mayoristas (protegido).
type PriceTierHandler struct {
	pricing *pricing.UseCase
}

// NewPriceTierHandler construye el handler.
func NewPriceTierHandler(uc *pricing.UseCase) *PriceTierHandler {
	return &PriceTierHandler{pricing: uc}
}

// List godoc
// @Summary      Listar niveles de precio
// @Tags         price-tiers
// @Security     Bearer
// @Produce      json
// @Param        include_inactive  query  bool  false  "Incluir tiers inactivos"
// @Success      200  {array}  dto.PriceTierResponse
// @Router       /api/settings/price-tiers [get]
func (h *PriceTierHandler) List(c *fiber.Ctx) error {
	tiers, err := h.pricing.ListTiers(c.Context(), c.QueryBool("include_inactive"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.PriceTierResponse, 0, len(tiers))
	for i := range tiers {
		out = append(out, dto.NewPriceTierResponse(&tiers[i]))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener un nivel de precio
// @Tags         price-tiers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del tier"
// @Success      200  {object}  dto.PriceTierResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/{id} [get]
func (h *PriceTierHandler) GetByID(c *fiber.Ctx) error {
	tier, err := h.pricing.GetTier(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPriceTierResponse(tier))
}

// Create godoc
// @Summary      Crear un nivel de precio
// @Tags         price-tiers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PriceTierRequest  true  "nivel de precio"
// @Success      201  {object}  dto.PriceTierResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers [post]
func (h *PriceTierHandler) Create(c *fiber.Ctx) error {
	var in dto.PriceTierRequest
	if !parseBody(c, &in) {
		return nil
	}
	tier, err := h.pricing.CreateTier(c.Context(), tierInput(in))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPriceTierResponse(tier))
}

// Update godoc
// @Summary      Actualizar un nivel de precio
// @Tags         price-tiers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del tier"
// @Param        body  body  dto.PriceTierRequest  true  "nivel de precio"
// @Success      200  {object}  dto.PriceTierResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/{id} [put]
func (h *PriceTierHandler) Update(c *fiber.Ctx) error {
	var in dto.PriceTierRequest
	if !parseBody(c, &in) {
		return nil
	}
	tier, err := h.pricing.UpdateTier(c.Context(), c.Params("id"), tierInput(in))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewPriceTierResponse(tier))
}

// Delete godoc
// @Summary      Eliminar un nivel de precio
// @Description  El default solo se elimina si otro tier activo puede cubrir el
//
//	fallback; si no, responde 409.
//
// @Tags         price-tiers
// @Security     Bearer
// @Param        id  path  string  true  "ID del tier"
// @Success      204  "sin contenido"
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/{id} [delete]
func (h *PriceTierHandler) Delete(c *fiber.Ctx) error {
	if err := h.pricing.DeleteTier(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reorder godoc
// @Summary      Reordenar las prioridades de los tiers
// @Tags         price-tiers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReorderTiersRequest  true  "ids con su nuevo order_index"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/reorder [put]
func (h *PriceTierHandler) Reorder(c *fiber.Ctx) error {
	var in dto.ReorderTiersRequest
	if !parseBody(c, &in) {
		return nil
	}
	entries := make([]pricing.ReorderEntry, 0, len(in.Tiers))
	for _, t := range in.Tiers {
		entries = append(entries, pricing.ReorderEntry{ID: t.ID, OrderIndex: t.OrderIndex})
	}
	if err := h.pricing.Reorder(c.Context(), entries); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden actualizado"})
}

// Calculate godoc
// @Summary      Precio que produciría cada tier para un costo dado
// @Tags         price-tiers
// @Security     Bearer
// @Produce      json
// @Param        cost      query  string  true   "Costo base"
// @Param        quantity  query  int     false  "Cantidad para marcar el tier aplicable"
// @Success      200  {array}   dto.TierQuoteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/calculate [get]
func (h *PriceTierHandler) Calculate(c *fiber.Ctx) error {
	cost, err := decimal.NewFromString(c.Query("cost"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cost inválido"})
	}
	quantity := c.QueryInt("quantity", 1)

	quotes, err := h.pricing.CalculateForTiers(c.Context(), cost, quantity)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TierQuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, dto.TierQuoteResponse{
			PriceTierResponse: dto.NewPriceTierResponse(&quotes[i].Tier),
			CalculatedPrice:   quotes[i].CalculatedPrice,
			AppliesNow:        quotes[i].AppliesNow,
		})
	}
	return c.JSON(out)
}

// Recalculate godoc
// @Summary      Recalcular los precios de lista de todo el catálogo
// @Description  Aplica los tiers wholesale/discount1/discount2 (o su fallback
//
//	por order_index) al costo de cada producto. Las fallas por producto se
//	cuentan sin abortar la corrida.
//
// @Tags         price-tiers
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RecalculateResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/settings/price-tiers/recalculate-products [post]
func (h *PriceTierHandler) Recalculate(c *fiber.Ctx) error {
	result, err := h.pricing.RecalculateCatalog(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RecalculateResponse{
		Message:       "precios recalculados",
		TotalProducts: result.TotalProducts,
		Updated:       result.Updated,
		Errors:        result.Errors,
		TiersApplied:  result.TiersApplied,
	})
}

func tierInput(in dto.PriceTierRequest) pricing.TierInput {
	return pricing.TierInput{
		Name:         in.Name,
		DisplayName:  in.DisplayName,
		FormulaType:  in.FormulaType,
		Multiplier:   in.Multiplier,
		Percentage:   in.Percentage,
		FlatAmount:   in.FlatAmount,
		MinQuantity:  in.MinQuantity,
		OrderIndex:   in.OrderIndex,
		Active:       in.Active,
		IsDefault:    in.IsDefault,
		ShowInPublic: in.ShowInPublic,
		Description:  in.Description,
		ColorCode:    in.ColorCode,
	}
}
