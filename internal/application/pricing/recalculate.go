package pricing

import (
	"context"

	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Nombres de tier que el recálculo mapea a las columnas de precio de lista del
// catálogo. Tiers con otros nombres caen al mapeo por order_index (3/2/1),
// compatibilidad con configuraciones viejas.
const (
	tierNameWholesale = "wholesale"
	tierNameDiscount1 = "discount1"
	tierNameDiscount2 = "discount2"
)

// RecalcResult resumen del recálculo masivo.
type RecalcResult struct {
	TotalProducts int
	Updated       int
	Errors        int
	TiersApplied  int
}

// listPrices precios de lista calculados para un producto.
type listPrices struct {
	wholesale decimal.Decimal
	discount1 decimal.Decimal
	discount2 decimal.Decimal
}

// RecalculateCatalog recorre todos los productos y persiste sus precios de
// lista según los tiers activos. Cada producto se procesa de forma
// independiente: una falla incrementa Errors y no aborta el lote (el éxito
// parcial es esperado y se reporta, sin transacción todo-o-nada).
func (uc *UseCase) RecalculateCatalog(ctx context.Context) (*RecalcResult, error) {
	tiers, err := uc.tiers.List(false)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, domain.ErrNoApplicableTier
	}

	products, err := uc.products.ListCostPrices()
	if err != nil {
		return nil, err
	}

	result := &RecalcResult{TotalProducts: len(products), TiersApplied: len(tiers)}
	for _, prod := range products {
		prices := computeListPrices(prod.CostPrice, tiers)
		if err := uc.products.UpdateListPrices(prod.ID, prices.wholesale, prices.discount1, prices.discount2); err != nil {
			result.Errors++
			uc.log.Error().Err(err).Str("product_id", prod.ID).Msg("recálculo de precios: producto omitido")
			continue
		}
		result.Updated++
	}

	uc.log.Info().
		Int("total", result.TotalProducts).
		Int("actualizados", result.Updated).
		Int("errores", result.Errors).
		Msg("recálculo de catálogo completado")
	return result, nil
}

// computeListPrices aplica cada tier a su columna destino. Fallback histórico
// si ningún tier matchea una columna: multiplicadores 2.5 / 2.25 / 1.75.
func computeListPrices(costPrice decimal.Decimal, tiers []entity.PriceTier) listPrices {
	prices := listPrices{
		wholesale: costPrice.Mul(decimal.NewFromFloat(2.5)),
		discount1: costPrice.Mul(decimal.NewFromFloat(2.25)),
		discount2: costPrice.Mul(decimal.NewFromFloat(1.75)),
	}
	for _, tier := range tiers {
		if !tier.Active {
			continue
		}
		price := tier.CalculatePrice(costPrice)
		switch tier.Name {
		case tierNameWholesale:
			prices.wholesale = price
		case tierNameDiscount1:
			prices.discount1 = price
		case tierNameDiscount2:
			prices.discount2 = price
		default:
			switch tier.OrderIndex {
			case 3:
				prices.wholesale = price
			case 2:
				prices.discount1 = price
			case 1:
				prices.discount2 = price
			}
		}
	}
	return prices
}
