package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/dto"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/pkg/validate"
)

// respondError traduce los errores de dominio a status HTTP. Los handlers lo
// usan al final de la cadena; cualquier error no mapeado es un 500.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autenticado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente en la ubicación"})
	case errors.Is(err, domain.ErrInvalidMovement):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_MOVEMENT", Message: "el movimiento dejaría el stock inconsistente"})
	case errors.Is(err, domain.ErrNoApplicableTier):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_APPLICABLE_TIER", Message: "no hay nivel de precio aplicable"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrentModification):
		// El cliente puede reintentar: la transacción perdió la carrera.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENT_MODIFICATION", Message: "conflicto de concurrencia, reintentar"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// parseBody decodifica y valida el body. Devuelve false si ya respondió el error.
func parseBody(c *fiber.Ctx, out interface{}) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		return false
	}
	if err := validate.Struct(out); err != nil {
		if fields := validate.Errors(err); fields != nil {
			_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "VALIDATION",
				"message": "datos inválidos",
				"fields":  fields,
			})
			return false
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
		return false
	}
	return true
}
