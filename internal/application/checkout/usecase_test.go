package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarias/mayorista-core/internal/application/checkout"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/testutil"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

type fixture struct {
	store        *testutil.MemStore
	reservations *reservation.UseCase
	checkout     *checkout.UseCase
}

func newFixture() *fixture {
	store := testutil.NewMemStore()
	reservations := reservation.NewUseCase(store.Runner(), store.CartRepo(), logger.Nop())
	quotes := pricing.NewUseCase(store.TierRepo(), store.ProductRepo(), store.CartRepo(), logger.Nop())
	uc := checkout.NewUseCase(store.Runner(), store.CartRepo(), store.OrderRepo(), reservations, quotes, logger.Nop())
	return &fixture{store: store, reservations: reservations, checkout: uc}
}

// seedReadyCart deja un carrito con una línea reservada y confirmada, lista
// para finalizar: stock 10, reserva de 3 en deposito.
func (f *fixture) seedReadyCart(t *testing.T) string {
	t.Helper()
	f.store.SeedTier(entity.PriceTier{
		ID: "t-b", Name: "minorista", DisplayName: "Minorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(2),
		IsDefault: true, OrderIndex: 1,
	})
	f.store.SeedProduct("prod-1", decimal.NewFromInt(100))
	f.store.SeedLine("prod-1", nil, "deposito", 10, 0)
	f.store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)

	res, err := f.reservations.Reserve(context.Background(), reservation.ReserveInput{
		CartID:             "cart-1",
		ProductID:          "prod-1",
		Location:           "deposito",
		Quantity:           3,
		RequiresStockCheck: true,
	})
	require.NoError(t, err)
	_, err = f.reservations.Confirm(context.Background(), res.Token)
	require.NoError(t, err)
	return res.Token
}

func saleMovements(store *testutil.MemStore) []*entity.StockMovement {
	var sales []*entity.StockMovement
	for _, m := range store.AllMovements() {
		if m.MovementType == entity.MovementTypeSale {
			sales = append(sales, m)
		}
	}
	return sales
}

// ──────────────────────────────────────────────────────────────────────────────
// Finalización
// ──────────────────────────────────────────────────────────────────────────────

func TestFinalize_ConvierteReservaEnVenta(t *testing.T) {
	f := newFixture()
	token := f.seedReadyCart(t)
	ctx := context.Background()

	order, err := f.checkout.Finalize(ctx, "cart-1", "vendedor test", nil)
	require.NoError(t, err)
	require.NotNil(t, order)

	// La orden congela cantidad, tier y subtotal (3 × 100 × 2).
	assert.Equal(t, "cart-1", order.CartID)
	assert.Equal(t, 3, order.TotalQuantity)
	assert.Equal(t, "minorista", order.TierName)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(600)), "%s", order.Subtotal)

	stored := f.store.Order(order.ID)
	require.NotNil(t, stored)

	// Stock decrementado y reserva liberada en el mismo paso.
	line := f.store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 7, line.Stock)
	assert.Equal(t, 0, line.Reserved)

	sales := saleMovements(f.store)
	require.Len(t, sales, 1)
	assert.Equal(t, -3, sales[0].Quantity)
	assert.Equal(t, order.ID, sales[0].Reference)
	assert.Equal(t, "venta", sales[0].Reason)

	// El carrito queda pagado y sin líneas: el detalle vive en la orden.
	cart := f.store.Cart("cart-1")
	assert.Equal(t, entity.CartStatePagado, cart.Estado)
	assert.Empty(t, cart.Items)
	assert.Nil(t, f.store.Item(token))
}

func TestFinalize_RechazaLineaSinConfirmar(t *testing.T) {
	f := newFixture()
	f.store.SeedProduct("prod-1", decimal.NewFromInt(100))
	f.store.SeedLine("prod-1", nil, "deposito", 10, 0)
	f.store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)

	ctx := context.Background()
	_, err := f.reservations.Reserve(ctx, reservation.ReserveInput{
		CartID: "cart-1", ProductID: "prod-1", Location: "deposito",
		Quantity: 3, RequiresStockCheck: true,
	})
	require.NoError(t, err)

	_, err = f.checkout.Finalize(ctx, "cart-1", "vendedor test", nil)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Nada se tocó: la reserva sigue en pie.
	line := f.store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 10, line.Stock)
	assert.Equal(t, 3, line.Reserved)
}

// Dos finalizaciones simultáneas del mismo carrito: el reclamo de estado deja
// un único ganador, el perdedor recibe ErrConflict y el stock se descuenta una
// sola vez.
func TestFinalize_ConcurrenteDecrementaUnaVez(t *testing.T) {
	f := newFixture()
	f.seedReadyCart(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	orders := make([]*entity.Order, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			orders[i], errs[i] = f.checkout.Finalize(ctx, "cart-1", "vendedor test", nil)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for i := 0; i < 2; i++ {
		switch {
		case errs[i] == nil:
			won++
			require.NotNil(t, orders[i])
		case errors.Is(errs[i], domain.ErrConflict):
			lost++
		default:
			t.Fatalf("error inesperado: %v", errs[i])
		}
	}
	assert.Equal(t, 1, won, "exactamente una finalización gana el reclamo")
	assert.Equal(t, 1, lost)

	line := f.store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 7, line.Stock, "el stock se descuenta una sola vez")
	assert.Equal(t, 0, line.Reserved)
	assert.Len(t, saleMovements(f.store), 1)
	assert.Equal(t, entity.CartStatePagado, f.store.Cart("cart-1").Estado)
}

func TestFinalize_CarritoVacio(t *testing.T) {
	f := newFixture()
	f.store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)

	_, err := f.checkout.Finalize(context.Background(), "cart-1", "vendedor test", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFinalize_CarritoInexistente(t *testing.T) {
	f := newFixture()
	_, err := f.checkout.Finalize(context.Background(), "no-existe", "vendedor test", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Compensación
// ──────────────────────────────────────────────────────────────────────────────

// Si el registro de la orden falla después de decrementar stock, los ajustes
// compensatorios restauran stock y reserva y el carrito queda reintentable.
func TestFinalize_CompensaCuandoLaOrdenNoSeRegistra(t *testing.T) {
	f := newFixture()
	token := f.seedReadyCart(t)
	f.store.OrderCreateErr = errors.New("conexión perdida")
	ctx := context.Background()

	_, err := f.checkout.Finalize(ctx, "cart-1", "vendedor test", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registro de orden")

	// Estado restaurado: stock, reserva y línea de carrito intactos.
	line := f.store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 10, line.Stock)
	assert.Equal(t, 3, line.Reserved)

	item := f.store.Item(token)
	require.NotNil(t, item)
	assert.Equal(t, 3, item.ReservedQuantity)

	cart := f.store.Cart("cart-1")
	assert.Equal(t, entity.CartStatePendiente, cart.Estado)

	// El libro registra la venta y su compensación, no borra historia.
	var compensations int
	for _, m := range f.store.AllMovements() {
		if m.Reason == "compensación de checkout fallido" {
			compensations++
			assert.Equal(t, 3, m.Quantity)
		}
	}
	assert.Equal(t, 1, compensations)

	// Reintento con la conexión recuperada.
	f.store.OrderCreateErr = nil
	order, err := f.checkout.Finalize(ctx, "cart-1", "vendedor test", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, f.store.Line("prod-1", nil, "deposito").Stock)
	require.NotNil(t, f.store.Order(order.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_LiberaReservasSinMovimientos(t *testing.T) {
	f := newFixture()
	token := f.seedReadyCart(t)
	ctx := context.Background()

	require.NoError(t, f.checkout.Cancel(ctx, "cart-1"))

	line := f.store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 10, line.Stock, "cancelar no toca el stock físico")
	assert.Equal(t, 0, line.Reserved)
	assert.Empty(t, saleMovements(f.store))

	cart := f.store.Cart("cart-1")
	assert.Equal(t, entity.CartStateCancelado, cart.Estado)
	assert.Empty(t, cart.Items)
	assert.Nil(t, f.store.Item(token))
}

func TestCancel_CarritoInexistenteEsNoOp(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.checkout.Cancel(context.Background(), "no-existe"))
}

func TestGetOrder_NoEncontrada(t *testing.T) {
	f := newFixture()
	_, err := f.checkout.GetOrder(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
