package pricing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/testutil"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

func newEngine(store *testutil.MemStore) *pricing.UseCase {
	return pricing.NewUseCase(store.TierRepo(), store.ProductRepo(), store.CartRepo(), logger.Nop())
}

func newReservations(store *testutil.MemStore) *reservation.UseCase {
	return reservation.NewUseCase(store.Runner(), store.CartRepo(), logger.Nop())
}

func reserveInput(cartID, productID string, qty int) reservation.ReserveInput {
	return reservation.ReserveInput{
		CartID:    cartID,
		ProductID: productID,
		Location:  "deposito",
		Quantity:  qty,
	}
}

func orderIndexPtr(v int) *int { return &v }

func tierInput(name string, minQty int, multiplier float64) pricing.TierInput {
	return pricing.TierInput{
		Name:        name,
		DisplayName: name,
		FormulaType: entity.FormulaMultiplier,
		Multiplier:  decimal.NewFromFloat(multiplier),
		MinQuantity: minQty,
		Active:      true,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// CRUD de tiers e invariante de default
// ──────────────────────────────────────────────────────────────────────────────

// Promover un tier a default desmarca al anterior: nunca hay dos defaults
// activos a la vez.
func TestCreateTier_DefaultUnico(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	first := tierInput("minorista", 0, 1.5)
	first.IsDefault = true
	created, err := uc.CreateTier(ctx, first)
	require.NoError(t, err)
	require.True(t, created.IsDefault)

	second := tierInput("mayorista", 12, 2.5)
	second.IsDefault = true
	_, err = uc.CreateTier(ctx, second)
	require.NoError(t, err)

	tiers, err := uc.ListTiers(ctx, true)
	require.NoError(t, err)
	defaults := 0
	for _, tr := range tiers {
		if tr.IsDefault {
			defaults++
			assert.Equal(t, "mayorista", tr.Name)
		}
	}
	assert.Equal(t, 1, defaults, "a lo sumo un default a la vez")
}

func TestCreateTier_NombreDuplicado(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	_, err := uc.CreateTier(ctx, tierInput("mayorista", 12, 2.5))
	require.NoError(t, err)

	_, err = uc.CreateTier(ctx, tierInput("mayorista", 6, 2))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// Sin order_index explícito, el tier nuevo toma el siguiente disponible.
func TestCreateTier_OrderIndexAutomatico(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	in := tierInput("primero", 0, 1.5)
	in.OrderIndex = orderIndexPtr(4)
	_, err := uc.CreateTier(ctx, in)
	require.NoError(t, err)

	created, err := uc.CreateTier(ctx, tierInput("segundo", 6, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, created.OrderIndex)
}

// El cero explícito es una prioridad válida, distinta de omitir el campo: se
// respeta en el alta y sobrevive a ediciones que no lo envían.
func TestCreateTier_OrderIndexCeroExplicito(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	in := tierInput("prioritario", 0, 1.5)
	in.OrderIndex = orderIndexPtr(0)
	created, err := uc.CreateTier(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 0, created.OrderIndex)

	// Una edición sin order_index conserva el cero en vez de reasignarlo.
	edit := tierInput("prioritario", 0, 1.8)
	updated, err := uc.UpdateTier(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.OrderIndex)

	// El siguiente tier sin índice explícito no choca con el cero.
	next, err := uc.CreateTier(ctx, tierInput("segundo", 6, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, next.OrderIndex)
}

// Quitar la marca de default dejando tiers activos sin fallback se rechaza.
func TestUpdateTier_NoDejaActivosSinFallback(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	def := tierInput("minorista", 3, 1.5)
	def.IsDefault = true
	created, err := uc.CreateTier(ctx, def)
	require.NoError(t, err)
	_, err = uc.CreateTier(ctx, tierInput("mayorista", 12, 2.5))
	require.NoError(t, err)

	updated := tierInput("minorista", 3, 1.5)
	updated.IsDefault = false
	_, err = uc.UpdateTier(ctx, created.ID, updated)
	assert.ErrorIs(t, err, domain.ErrConflict,
		"el mayorista quedaría sin fallback para cantidades chicas")
}

// Sí se puede desmarcar el default si otro tier activo con min_quantity 0
// cubre el fallback de facto.
func TestDeleteTier_DefaultConCobertura(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newEngine(store)
	ctx := context.Background()

	def := tierInput("viejo-default", 6, 1.8)
	def.IsDefault = true
	created, err := uc.CreateTier(ctx, def)
	require.NoError(t, err)
	_, err = uc.CreateTier(ctx, tierInput("base", 0, 1.5))
	require.NoError(t, err)

	assert.NoError(t, uc.DeleteTier(ctx, created.ID),
		"base (min 0) actúa como default de facto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Recálculo masivo del catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestRecalculateCatalog_MapeaTiersAColumnas(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedTier(entity.PriceTier{
		ID: "t-w", Name: "wholesale", DisplayName: "Mayorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(3),
	})
	store.SeedProduct("prod-1", decimal.NewFromInt(100))
	uc := newEngine(store)

	result, err := uc.RecalculateCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalProducts)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Errors)

	prod := store.Product("prod-1")
	assert.True(t, prod.WholesalePrice.Equal(decimal.NewFromInt(300)),
		"wholesale por el tier homónimo: %s", prod.WholesalePrice)
	// Columnas sin tier asignado: fallback histórico 2.25 / 1.75.
	assert.True(t, prod.Discount1Price.Equal(decimal.NewFromFloat(225)), "%s", prod.Discount1Price)
	assert.True(t, prod.Discount2Price.Equal(decimal.NewFromFloat(175)), "%s", prod.Discount2Price)
}

// Una falla por producto se cuenta y no aborta el lote.
func TestRecalculateCatalog_FallaParcialNoAborta(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedTier(entity.PriceTier{
		ID: "t-w", Name: "wholesale", DisplayName: "Mayorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(2.5),
	})
	store.SeedProduct("prod-1", decimal.NewFromInt(100))
	store.SeedProduct("prod-2", decimal.NewFromInt(50))
	store.SeedProduct("prod-3", decimal.NewFromInt(80))
	store.ListPricesErr["prod-2"] = errors.New("deadlock simulado")
	uc := newEngine(store)

	result, err := uc.RecalculateCatalog(context.Background())
	require.NoError(t, err, "el éxito parcial no es error del lote")
	assert.Equal(t, 3, result.TotalProducts)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Errors)
}

// Sin tiers activos no hay nada que aplicar.
func TestRecalculateCatalog_SinTiers(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedProduct("prod-1", decimal.NewFromInt(100))
	uc := newEngine(store)

	_, err := uc.RecalculateCatalog(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoApplicableTier)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cotización de carrito
// ──────────────────────────────────────────────────────────────────────────────

// El tier se elige por la cantidad agregada del carrito, no por línea: dos
// líneas de 6 y 6 alcanzan el mayorista de min 12.
func TestQuoteCart_TierPorCantidadAgregada(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedTier(entity.PriceTier{
		ID: "t-m", Name: "mayorista", DisplayName: "Mayorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(2),
		MinQuantity: 12, OrderIndex: 1,
	})
	store.SeedTier(entity.PriceTier{
		ID: "t-b", Name: "minorista", DisplayName: "Minorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(3),
		MinQuantity: 0, OrderIndex: 2, IsDefault: true,
	})
	store.SeedProduct("prod-1", decimal.NewFromInt(100))
	store.SeedProduct("prod-2", decimal.NewFromInt(50))
	store.SeedLine("prod-1", nil, "deposito", 20, 0)
	store.SeedLine("prod-2", nil, "deposito", 20, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)

	reservations := newReservations(store)
	ctx := context.Background()
	for _, p := range []string{"prod-1", "prod-2"} {
		_, err := reservations.Reserve(ctx, reserveInput("cart-1", p, 6))
		require.NoError(t, err)
	}

	quote, err := newEngine(store).QuoteCart(ctx, "cart-1")
	require.NoError(t, err)

	require.NotNil(t, quote.Tier)
	assert.Equal(t, "mayorista", quote.Tier.Name, "12 unidades agregadas alcanzan el mayorista")
	assert.Equal(t, 12, quote.TotalQuantity)
	// 6*200 + 6*100
	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(1800)), "%s", quote.Subtotal)
	assert.Nil(t, quote.NextTier, "ya está en el tier de mayor prioridad")
}

func TestQuoteCart_InformaGapAlSiguienteTier(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedTier(entity.PriceTier{
		ID: "t-m", Name: "mayorista", DisplayName: "Mayorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(2),
		MinQuantity: 12, OrderIndex: 1,
	})
	store.SeedTier(entity.PriceTier{
		ID: "t-b", Name: "minorista", DisplayName: "Minorista", Active: true,
		FormulaType: entity.FormulaMultiplier, Multiplier: decimal.NewFromFloat(3),
		MinQuantity: 0, OrderIndex: 2, IsDefault: true,
	})
	store.SeedProduct("prod-1", decimal.NewFromInt(100))
	store.SeedLine("prod-1", nil, "deposito", 20, 0)
	store.SeedCart("cart-1", "user-1", entity.CartStatePendiente)

	ctx := context.Background()
	_, err := newReservations(store).Reserve(ctx, reserveInput("cart-1", "prod-1", 9))
	require.NoError(t, err)

	quote, err := newEngine(store).QuoteCart(ctx, "cart-1")
	require.NoError(t, err)

	require.NotNil(t, quote.Tier)
	assert.Equal(t, "minorista", quote.Tier.Name)
	require.NotNil(t, quote.NextTier)
	assert.Equal(t, "mayorista", quote.NextTier.Name)
	assert.Equal(t, 3, quote.MissingQuantity, "faltan 3 unidades para el mayorista")
}
