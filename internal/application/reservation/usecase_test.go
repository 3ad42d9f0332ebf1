package reservation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/testutil"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

func newManager(store *testutil.MemStore) *reservation.UseCase {
	return reservation.NewUseCase(store.Runner(), store.CartRepo(), logger.Nop())
}

func reserveInput(cartID string, qty int) reservation.ReserveInput {
	return reservation.ReserveInput{
		CartID:    cartID,
		ProductID: "prod-1",
		Location:  "deposito",
		Quantity:  qty,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Reserve
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_IncrementaReservadoYDevuelveToken(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)

	result, err := uc.Reserve(context.Background(), reserveInput("cart-1", 3))
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, 3, result.Item.ReservedQuantity)
	assert.Equal(t, 7, result.Line.Available(), "available = stock - reserved")
	assert.Equal(t, 3, store.Line("prod-1", nil, "deposito").Reserved)
}

// Con disponible insuficiente la reserva falla sin tocar nada.
func TestReserve_InsuficienteNoTocaNada(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 5, 3)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)

	_, err := uc.Reserve(context.Background(), reserveInput("cart-1", 3))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	line := store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 3, line.Reserved, "la reserva previa de otros carritos queda intacta")
}

// Un ajuste forzado puede recortar el Reserved de la fila mientras la línea
// del carrito conserva su ReservedQuantity viejo. Re-reservar sobre esa línea
// descuenta a lo sumo lo que la fila realmente tiene: Reserved nunca queda
// negativo ni el disponible por encima del stock.
func TestReserve_TrasRecorteForzadoNoDejaReservadoNegativo(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	books := ledger.NewUseCase(store.Runner(), store.LineRepo(), store.MovementRepo(), nil, logger.Nop())
	ctx := context.Background()

	_, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	// Ajuste forzado -10: stock en cero y la reserva huérfana recortada a cero.
	_, err = books.ApplyMovement(ctx, ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeAdjustment,
		Quantity:     -10,
		Reason:       "rotura total",
		UserName:     "admin test",
		Force:        true,
	})
	require.NoError(t, err)

	// Sin stock no hay nada que re-reservar, aún pidiendo menos que antes.
	_, err = uc.Reserve(ctx, reserveInput("cart-1", 1))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	line := store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 0, line.Stock)
	assert.Equal(t, 0, line.Reserved, "el descuento se limita a lo reservado en la fila")
	assert.LessOrEqual(t, line.Available(), line.Stock)
}

// Recorte parcial: la fila conserva parte de la reserva y la reducción usa ese
// valor, no el viejo de la línea del carrito.
func TestReserve_ReduccionConRecorteParcial(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	books := ledger.NewUseCase(store.Runner(), store.LineRepo(), store.MovementRepo(), nil, logger.Nop())
	ctx := context.Background()

	_, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	// Ajuste forzado -8: stock 2, reserva recortada 3 -> 2.
	_, err = books.ApplyMovement(ctx, ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeAdjustment,
		Quantity:     -8,
		Reason:       "merma",
		UserName:     "admin test",
		Force:        true,
	})
	require.NoError(t, err)

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 1))
	require.NoError(t, err)

	line := store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 2, line.Stock)
	assert.Equal(t, 1, line.Reserved, "2 reservados en la fila - 2 efectivos + 1 nuevo")
	assert.Equal(t, 1, result.Item.ReservedQuantity)
}

// Dos reservas concurrentes de 3 unidades contra stock 5: exactamente una gana.
func TestReserve_ConcurrenciaSoloUnaGana(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 5, 0)
	store.SeedCart("cart-a", "user-a", entity.CartStatePendiente)
	store.SeedCart("cart-b", "user-b", entity.CartStatePendiente)
	uc := newManager(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, cartID := range []string{"cart-a", "cart-b"} {
		wg.Add(1)
		go func(i int, cartID string) {
			defer wg.Done()
			_, errs[i] = uc.Reserve(context.Background(), reserveInput(cartID, 3))
		}(i, cartID)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 1, okCount, "solo una de las dos reservas de 3 entra en stock 5")
	assert.Equal(t, 3, store.Line("prod-1", nil, "deposito").Reserved)
}

// Reservar sobre un carrito cerrado es conflicto.
func TestReserve_CarritoCerrado(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePagado)
	uc := newManager(store)

	_, err := uc.Reserve(context.Background(), reserveInput("cart-1", 2))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Re-reservar la misma línea en otra ubicación libera primero la anterior.
func TestReserve_CambioDeUbicacionLiberaLaAnterior(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedLine("prod-1", nil, "mendoza", 4, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	_, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	result, err := uc.Reserve(ctx, reservation.ReserveInput{
		CartID:    "cart-1",
		ProductID: "prod-1",
		Location:  "mendoza",
		Quantity:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, store.Line("prod-1", nil, "deposito").Reserved,
		"la ubicación anterior queda liberada")
	assert.Equal(t, 3, store.Line("prod-1", nil, "mendoza").Reserved)
	assert.Equal(t, "mendoza", result.Item.Location)
}

// ──────────────────────────────────────────────────────────────────────────────
// Release / Confirm
// ──────────────────────────────────────────────────────────────────────────────

// Release es idempotente: doble release y token desconocido son no-ops.
func TestRelease_Idempotente(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 4))
	require.NoError(t, err)

	require.NoError(t, uc.Release(ctx, result.Token))
	assert.Equal(t, 0, store.Line("prod-1", nil, "deposito").Reserved)

	require.NoError(t, uc.Release(ctx, result.Token), "segundo release es no-op")
	require.NoError(t, uc.Release(ctx, "token-inexistente"), "token desconocido es no-op")
	assert.Equal(t, 0, store.Line("prod-1", nil, "deposito").Reserved)
}

func TestConfirm_MarcaLaLinea(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 2))
	require.NoError(t, err)

	item, err := uc.Confirm(ctx, result.Token)
	require.NoError(t, err)
	assert.True(t, item.StockConfirmed)

	_, err = uc.Confirm(ctx, "token-inexistente")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Cambiar la reserva después de confirmar invalida la confirmación.
func TestReserve_InvalidaConfirmacionPrevia(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 2))
	require.NoError(t, err)
	_, err = uc.Confirm(ctx, result.Token)
	require.NoError(t, err)

	updated, err := uc.ChangeQuantity(ctx, result.Token, 5)
	require.NoError(t, err)
	assert.False(t, updated.Item.StockConfirmed,
		"cambiar la cantidad obliga a reverificar")
}

// ──────────────────────────────────────────────────────────────────────────────
// ChangeQuantity
// ──────────────────────────────────────────────────────────────────────────────

func TestChangeQuantity_AjustaLaReserva(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	updated, err := uc.ChangeQuantity(ctx, result.Token, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Item.ReservedQuantity)
	assert.Equal(t, 7, store.Line("prod-1", nil, "deposito").Reserved)

	updated, err = uc.ChangeQuantity(ctx, result.Token, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Item.ReservedQuantity)
	assert.Equal(t, 1, store.Line("prod-1", nil, "deposito").Reserved)
}

// Un incremento que no entra falla y deja la reserva anterior intacta.
func TestChangeQuantity_IncrementoInsuficiente(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 5, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	_, err = uc.ChangeQuantity(ctx, result.Token, 8)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 3, store.Line("prod-1", nil, "deposito").Reserved,
		"la reserva original de 3 sigue en pie")
	assert.Equal(t, 3, store.Item(result.Token).ReservedQuantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// RemoveItem / ReleaseCart
// ──────────────────────────────────────────────────────────────────────────────

func TestRemoveItem_LiberaYDestruyeLaLinea(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	result, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)

	require.NoError(t, uc.RemoveItem(ctx, result.Token))
	assert.Equal(t, 0, store.Line("prod-1", nil, "deposito").Reserved)
	assert.Nil(t, store.Item(result.Token), "la línea se destruye junto con su reserva")
}

func TestReleaseCart_LiberaTodasLasReservas(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	store.SeedLine("prod-2", nil, "deposito", 6, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)
	uc := newManager(store)
	ctx := context.Background()

	_, err := uc.Reserve(ctx, reserveInput("cart-1", 3))
	require.NoError(t, err)
	_, err = uc.Reserve(ctx, reservation.ReserveInput{
		CartID: "cart-1", ProductID: "prod-2", Location: "deposito", Quantity: 2,
	})
	require.NoError(t, err)

	require.NoError(t, uc.ReleaseCart(ctx, "cart-1"))
	assert.Equal(t, 0, store.Line("prod-1", nil, "deposito").Reserved)
	assert.Equal(t, 0, store.Line("prod-2", nil, "deposito").Reserved)
}
