package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/pricing"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func tier(name string, minQty, orderIndex int, opts ...func(*entity.PriceTier)) entity.PriceTier {
	t := entity.PriceTier{
		ID:          "tier-" + name,
		Name:        name,
		DisplayName: name,
		FormulaType: entity.FormulaMultiplier,
		Multiplier:  decimal.NewFromFloat(2),
		MinQuantity: minQty,
		OrderIndex:  orderIndex,
		Active:      true,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func asDefault(t *entity.PriceTier) { t.IsDefault = true }
func inactive(t *entity.PriceTier)  { t.Active = false }

// ──────────────────────────────────────────────────────────────────────────────
// Selección por prioridad (order_index)
// ──────────────────────────────────────────────────────────────────────────────

// Gana el tier aplicable de menor order_index, no el de mayor min_quantity:
// con "base" (min 0, orden 1) y "wholesale" (min 5, orden 3), una cantidad de
// 10 satisface ambos pero el seleccionado es "base".
func TestSelectTier_PrioridadPorOrderIndex(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("wholesale", 5, 3),
		tier("base", 0, 1),
	}

	selected, err := pricing.SelectTier(10, tiers)
	require.NoError(t, err)
	assert.Equal(t, "base", selected.Name,
		"el tier de menor order_index debe ganar aunque otro también aplique")
}

// Un tier con min_quantity 0 y prioridad mínima aplica siempre: se vuelve
// default de facto aunque no tenga la marca is_default.
func TestSelectTier_MinQuantityCeroAplicaSiempre(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("mayorista", 12, 2),
		tier("base", 0, 1),
	}

	selected, err := pricing.SelectTier(1, tiers)
	require.NoError(t, err)
	assert.Equal(t, "base", selected.Name)
}

// Si ningún tier alcanza la cantidad, cae al marcado is_default.
func TestSelectTier_FallbackAlDefault(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("mayorista", 12, 1),
		tier("minorista", 6, 2, asDefault),
	}

	selected, err := pricing.SelectTier(3, tiers)
	require.NoError(t, err)
	assert.Equal(t, "minorista", selected.Name)
}

// Los tiers inactivos no participan ni como default.
func TestSelectTier_IgnoraInactivos(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("viejo", 0, 1, inactive, asDefault),
		tier("mayorista", 12, 2),
	}

	_, err := pricing.SelectTier(3, tiers)
	assert.ErrorIs(t, err, domain.ErrNoApplicableTier)
}

// Sin tiers aplicables ni default el caller usa el costo base sin cambios.
func TestUnitPriceFor_SinTierDevuelveCosto(t *testing.T) {
	cost := decimal.NewFromInt(100)
	price := pricing.UnitPriceFor(cost, 1, nil)
	assert.True(t, cost.Equal(price), "sin tiers el precio es el costo: %s", price)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fórmulas de precio
// ──────────────────────────────────────────────────────────────────────────────

func TestCalculatePrice_Formulas(t *testing.T) {
	cost := decimal.NewFromInt(100)

	cases := []struct {
		name     string
		tier     entity.PriceTier
		expected string
	}{
		{
			name: "multiplier 2.5 sobre 100",
			tier: entity.PriceTier{
				FormulaType: entity.FormulaMultiplier,
				Multiplier:  decimal.NewFromFloat(2.5),
			},
			expected: "250",
		},
		{
			name: "percentage_markup 150% sobre 100",
			tier: entity.PriceTier{
				FormulaType: entity.FormulaPercentageMarkup,
				Percentage:  decimal.NewFromInt(150),
			},
			expected: "250",
		},
		{
			name: "flat_amount 500 sobre 100",
			tier: entity.PriceTier{
				FormulaType: entity.FormulaFlatAmount,
				FlatAmount:  decimal.NewFromInt(500),
			},
			expected: "600",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.tier.CalculatePrice(cost)
			expected, _ := decimal.NewFromString(tc.expected)
			assert.True(t, expected.Equal(got), "esperado %s, obtenido %s", expected, got)
		})
	}
}

// Un resultado negativo (flat_amount negativo mayor al costo) se recorta a cero.
func TestCalculatePrice_RecortaNegativos(t *testing.T) {
	negTier := entity.PriceTier{
		FormulaType: entity.FormulaFlatAmount,
		FlatAmount:  decimal.NewFromInt(-200),
	}
	got := negTier.CalculatePrice(decimal.NewFromInt(100))
	assert.True(t, got.Equal(decimal.Zero), "el precio nunca es negativo, obtenido %s", got)
}

// ──────────────────────────────────────────────────────────────────────────────
// Gap al siguiente tier
// ──────────────────────────────────────────────────────────────────────────────

func TestNextTierGap_InformaFaltante(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("mayorista", 12, 1),
		tier("minorista", 0, 2, asDefault),
	}

	gap := pricing.NextTierGap(9, tiers)
	require.NotNil(t, gap, "con 9 unidades el mayorista (min 12) está pendiente")
	assert.Equal(t, "mayorista", gap.NextTier.Name)
	assert.Equal(t, 3, gap.MissingQuantity)
}

// Si el tier vigente ya es el de mejor prioridad, agregar cantidad no cambia
// nada y el gap es nil.
func TestNextTierGap_NilCuandoNoHayMejora(t *testing.T) {
	tiers := []entity.PriceTier{
		tier("base", 0, 1),
		tier("mayorista", 12, 3),
	}

	assert.Nil(t, pricing.NextTierGap(5, tiers),
		"mayorista no desplazaría a base (order_index mayor)")
}
