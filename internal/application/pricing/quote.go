package pricing

import (
	"context"

	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// QuoteItem una línea del carrito con su precio resuelto.
type QuoteItem struct {
	Item      entity.CartItem
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// CartQuote resumen de precios de un carrito: tier aplicado según la cantidad
// agregada (todas las líneas comparten el contexto de precio), desglose por
// línea y el gap hasta el siguiente tier como valor plano — avisar o no es
// decisión de la UI.
type CartQuote struct {
	CartID          string
	TotalQuantity   int
	Subtotal        decimal.Decimal
	Tier            *entity.PriceTier
	NextTier        *entity.PriceTier
	MissingQuantity int
	Items           []QuoteItem
}

// QuoteCart cotiza el carrito: selecciona el tier por la suma de cantidades de
// todas las líneas y aplica la fórmula al costo de cada producto. Sin tier
// aplicable ni default, cada línea queda al costo base.
func (uc *UseCase) QuoteCart(ctx context.Context, cartID string) (*CartQuote, error) {
	cart, err := uc.carts.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, domain.ErrNotFound
	}

	tiers, err := uc.tiers.List(false)
	if err != nil {
		return nil, err
	}

	totalQty := cart.TotalQuantity()
	tier, _ := pricing.SelectTier(totalQty, tiers)

	quote := &CartQuote{
		CartID:        cartID,
		TotalQuantity: totalQty,
		Subtotal:      decimal.Zero,
		Tier:          tier,
		Items:         make([]QuoteItem, 0, len(cart.Items)),
	}
	if gap := pricing.NextTierGap(totalQty, tiers); gap != nil {
		quote.NextTier = gap.NextTier
		quote.MissingQuantity = gap.MissingQuantity
	}

	for _, item := range cart.Items {
		product, err := uc.products.GetByID(item.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		unit := product.CostPrice
		if tier != nil {
			unit = tier.CalculatePrice(product.CostPrice)
		}
		sub := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		quote.Subtotal = quote.Subtotal.Add(sub)
		quote.Items = append(quote.Items, QuoteItem{Item: item, UnitPrice: unit, Subtotal: sub})
	}
	return quote, nil
}
