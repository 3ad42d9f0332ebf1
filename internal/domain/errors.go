package domain

import "errors"

// Errores de dominio (sin dependencias externas). Todos se devuelven tipados
// hasta la capa HTTP; nunca se tragan en silencio.
var (
	// ErrNotFound: StockLine, tier, carrito o token desconocido.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrInvalidInput: request malformado o fuera del conjunto permitido.
	ErrInvalidInput = errors.New("entrada inválida")
	// ErrInsufficientStock: la reserva o el decremento no puede satisfacerse.
	// Recuperable: el operador elige otra ubicación o reduce cantidad.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrInvalidMovement: el movimiento dejaría stock < reservado.
	// Recuperable: requiere un ajuste explícitamente forzado.
	ErrInvalidMovement = errors.New("movimiento inválido: dejaría stock por debajo de lo reservado")
	// ErrNoApplicableTier: ningún tier activo aplica y no hay default.
	// El caller debe usar el costo base sin cambios.
	ErrNoApplicableTier = errors.New("ningún nivel de precio aplicable")
	// ErrConcurrentModification: conflicto de lock/versión tras agotar los
	// reintentos internos.
	ErrConcurrentModification = errors.New("modificación concurrente, reintentar")
	// ErrConflict: la operación contradice el estado actual (default de tiers,
	// items sin confirmar en checkout, estado de carrito).
	ErrConflict = errors.New("conflicto con el estado actual")
	// ErrUnauthorized / ErrForbidden: límites del token externo.
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
)
