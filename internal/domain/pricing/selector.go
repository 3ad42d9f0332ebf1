// Package pricing implementa la selección de niveles de precio y el cálculo
// de precio unitario. Lógica pura, sin persistencia: los casos de uso le
// pasan la lista de tiers ya cargada.
package pricing

import (
	"sort"

	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SelectTier devuelve el tier activo de menor OrderIndex cuyo MinQuantity
// alcanza la cantidad. Gana la prioridad del administrador, no el mejor
// ajuste: un tier con MinQuantity 0 y OrderIndex mínimo aplica siempre y en
// la práctica se vuelve el default aunque no tenga la marca. Si ninguno
// cumple, cae al tier marcado IsDefault; si tampoco hay default, devuelve
// ErrNoApplicableTier y el caller usa el costo base sin cambios.
func SelectTier(quantity int, tiers []entity.PriceTier) (*entity.PriceTier, error) {
	ordered := activeByOrder(tiers)

	for i := range ordered {
		if ordered[i].Applies(quantity) {
			return &ordered[i], nil
		}
	}
	for i := range ordered {
		if ordered[i].IsDefault {
			return &ordered[i], nil
		}
	}
	return nil, domain.ErrNoApplicableTier
}

// UnitPriceFor calcula el precio unitario para una cantidad dada. Sin tier
// aplicable ni default, el precio es el costo sin cambios.
func UnitPriceFor(costPrice decimal.Decimal, quantity int, tiers []entity.PriceTier) decimal.Decimal {
	tier, err := SelectTier(quantity, tiers)
	if err != nil {
		return costPrice
	}
	return tier.CalculatePrice(costPrice)
}

// TierGap describe el siguiente tier alcanzable y cuántas unidades faltan.
// Se expone como valor de retorno plano: notificar o no es decisión del
// caller (la cola de avisos de la UI quedó fuera del core).
type TierGap struct {
	NextTier        *entity.PriceTier
	MissingQuantity int
}

// NextTierGap devuelve el tier activo de mayor prioridad que la cantidad
// actual todavía no alcanza y que desplazaría al tier vigente si se
// alcanzara, junto con las unidades faltantes. Nil si agregar cantidad no
// cambia el tier.
func NextTierGap(quantity int, tiers []entity.PriceTier) *TierGap {
	ordered := activeByOrder(tiers)
	current, _ := SelectTier(quantity, tiers)

	for i := range ordered {
		t := &ordered[i]
		if t.MinQuantity <= quantity {
			continue
		}
		// Un tier pendiente solo desplaza al vigente si tiene mejor prioridad
		// (o si hoy no aplica ninguno por cantidad).
		if current != nil && current.Applies(quantity) && t.OrderIndex >= current.OrderIndex {
			continue
		}
		return &TierGap{NextTier: t, MissingQuantity: t.MinQuantity - quantity}
	}
	return nil
}

// activeByOrder filtra activos y ordena ascendente por OrderIndex (estable,
// para que empates conserven el orden de carga).
func activeByOrder(tiers []entity.PriceTier) []entity.PriceTier {
	out := make([]entity.PriceTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Active {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}
