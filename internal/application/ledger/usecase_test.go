package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/mfarias/mayorista-core/internal/testutil"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

func newLedger(store *testutil.MemStore) *ledger.UseCase {
	return ledger.NewUseCase(store.Runner(), store.LineRepo(), store.MovementRepo(), nil, logger.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyMovement
// ──────────────────────────────────────────────────────────────────────────────

// El primer alta crea la línea y queda registrado como movimiento "initial"
// con snapshot 0 → cantidad.
func TestApplyMovement_PrimerAltaCreaLinea(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newLedger(store)

	movement, err := uc.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeAdjustment,
		Quantity:     10,
		UserName:     "carla",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.MovementTypeInitial, movement.MovementType,
		"el primer alta se normaliza a initial")
	assert.Equal(t, 0, movement.PreviousStock)
	assert.Equal(t, 10, movement.NewStock)

	line := store.Line("prod-1", nil, "deposito")
	require.NotNil(t, line)
	assert.Equal(t, 10, line.Stock)
	assert.Equal(t, 0, line.Reserved)
}

// Un primer alta negativo no tiene sentido: no hay stock que restar.
func TestApplyMovement_PrimerAltaNegativoFalla(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newLedger(store)

	_, err := uc.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeAdjustment,
		Quantity:     -5,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMovement)
}

// Un decremento que dejaría stock < reservado se rechaza sin tocar nada.
func TestApplyMovement_NoDejaStockBajoReservado(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 4)
	uc := newLedger(store)

	_, err := uc.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeSale,
		Quantity:     -8,
	})
	require.ErrorIs(t, err, domain.ErrInvalidMovement)

	line := store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 10, line.Stock, "el rechazo no debe mutar la línea")
	assert.Equal(t, 4, line.Reserved)
	assert.Empty(t, store.AllMovements(), "el rechazo no debe registrar movimiento")
}

// El ajuste forzado sí puede cruzar la reserva: la recorta al stock resultante
// y deja el recorte anotado en el movimiento.
func TestApplyMovement_ForzadoRecortaReservas(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 4)
	uc := newLedger(store)

	movement, err := uc.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeAdjustment,
		Quantity:     -8,
		Force:        true,
	})
	require.NoError(t, err)

	line := store.Line("prod-1", nil, "deposito")
	assert.Equal(t, 2, line.Stock)
	assert.Equal(t, 2, line.Reserved, "la reserva huérfana se recorta al stock resultante")
	assert.Contains(t, movement.Notes, "ajuste forzado",
		"el recorte queda registrado en las notas del movimiento")
}

// Force solo acompaña ajustes: un sale forzado es entrada inválida.
func TestApplyMovement_ForceSoloEnAjustes(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "deposito", 10, 0)
	uc := newLedger(store)

	_, err := uc.ApplyMovement(context.Background(), ledger.MovementInput{
		ProductID:    "prod-1",
		Location:     "deposito",
		MovementType: entity.MovementTypeSale,
		Quantity:     -2,
		Force:        true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// SetAbsoluteStock
// ──────────────────────────────────────────────────────────────────────────────

func TestSetAbsoluteStock_RegistraDelta(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "mendoza", 7, 0)
	uc := newLedger(store)

	movement, err := uc.SetAbsoluteStock(context.Background(), ledger.AbsoluteStockInput{
		ProductID: "prod-1",
		Location:  "mendoza",
		NewValue:  12,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, movement.Quantity, "el movimiento registra el delta, no el absoluto")
	assert.Equal(t, entity.MovementTypeAdjustment, movement.MovementType)
	assert.Equal(t, 12, store.Line("prod-1", nil, "mendoza").Stock)
}

// Fijar el mismo valor no genera movimiento: delta cero no ensucia el libro.
func TestSetAbsoluteStock_DeltaCeroEsNoOp(t *testing.T) {
	store := testutil.NewMemStore()
	store.SeedLine("prod-1", nil, "mendoza", 7, 0)
	uc := newLedger(store)

	movement, err := uc.SetAbsoluteStock(context.Background(), ledger.AbsoluteStockInput{
		ProductID: "prod-1",
		Location:  "mendoza",
		NewValue:  7,
	})
	require.NoError(t, err)
	assert.Nil(t, movement)
	assert.Empty(t, store.AllMovements())
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconcile: stock == Σ cantidades del libro
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_ReplayCoincideTrasMovimientos(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newLedger(store)
	ctx := context.Background()

	deltas := []int{15, -4, 6, -2}
	for _, d := range deltas {
		_, err := uc.ApplyMovement(ctx, ledger.MovementInput{
			ProductID:    "prod-1",
			Location:     "salta",
			MovementType: entity.MovementTypeAdjustment,
			Quantity:     d,
		})
		require.NoError(t, err)
	}

	replayed, ok, err := uc.Reconcile(ctx, "prod-1", nil, "salta")
	require.NoError(t, err)
	assert.True(t, ok, "el stock materializado debe coincidir con el replay")
	assert.Equal(t, 15, replayed)
	assert.Equal(t, 15, store.Line("prod-1", nil, "salta").Stock)
}

// El filtro por variante separa los libros: cada variante ve solo sus propios
// movimientos y el replay de conciliación no mezcla variantes hermanas.
func TestListMovements_FiltraPorVariante(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newLedger(store)
	ctx := context.Background()

	rojo, azul := "var-rojo", "var-azul"
	for _, v := range []struct {
		variant *string
		deltas  []int
	}{
		{&rojo, []int{8, -3}},
		{&azul, []int{20}},
		{nil, []int{5}},
	} {
		for _, d := range v.deltas {
			_, err := uc.ApplyMovement(ctx, ledger.MovementInput{
				ProductID:    "prod-1",
				VariantID:    v.variant,
				Location:     "deposito",
				MovementType: entity.MovementTypeAdjustment,
				Quantity:     d,
			})
			require.NoError(t, err)
		}
	}

	movements, err := uc.ListMovements(ctx, repository.MovementFilter{
		ProductID: "prod-1",
		VariantID: &rojo,
	})
	require.NoError(t, err)
	require.Len(t, movements, 2, "solo los movimientos de la variante roja")
	for _, m := range movements {
		require.NotNil(t, m.VariantID)
		assert.Equal(t, rojo, *m.VariantID)
	}

	// La conciliación de la variante roja replaya 8-3, no los 20 de la azul
	// ni los 5 de la línea sin variante.
	replayed, ok, err := uc.Reconcile(ctx, "prod-1", &rojo, "deposito")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, replayed)
}

func TestGetStock_Inexistente(t *testing.T) {
	store := testutil.NewMemStore()
	uc := newLedger(store)

	_, err := uc.GetStock(context.Background(), "prod-x", nil, "deposito")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
