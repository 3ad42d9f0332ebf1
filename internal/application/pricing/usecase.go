package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/mfarias/mayorista-core/internal/domain"
	"github.com/mfarias/mayorista-core/internal/domain/entity"
	"github.com/mfarias/mayorista-core/internal/domain/pricing"
	"github.com/mfarias/mayorista-core/internal/domain/repository"
	"github.com/mfarias/mayorista-core/pkg/logger"
	"github.com/shopspring/decimal"
)

// UseCase administra los niveles de precio (CRUD con el invariante de default
// único), la cotización de carritos y el recálculo masivo del catálogo.
type UseCase struct {
	tiers    repository.PriceTierRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(tiers repository.PriceTierRepository, products repository.ProductRepository, carts repository.CartRepository, log *logger.Logger) *UseCase {
	return &UseCase{tiers: tiers, products: products, carts: carts, log: log}
}

// ListTiers devuelve tiers ordenados por order_index. includeInactive solo
// para administración.
func (uc *UseCase) ListTiers(ctx context.Context, includeInactive bool) ([]entity.PriceTier, error) {
	return uc.tiers.List(includeInactive)
}

// GetTier devuelve un tier por ID.
func (uc *UseCase) GetTier(ctx context.Context, id string) (*entity.PriceTier, error) {
	tier, err := uc.tiers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if tier == nil {
		return nil, domain.ErrNotFound
	}
	return tier, nil
}

// TierInput entrada para crear/actualizar un tier. OrderIndex nil significa
// "asignar el siguiente" en el alta y "conservar el actual" en la edición; el
// cero explícito es una prioridad válida.
type TierInput struct {
	Name         string
	DisplayName  string
	FormulaType  string
	Multiplier   decimal.Decimal
	Percentage   decimal.Decimal
	FlatAmount   decimal.Decimal
	MinQuantity  int
	OrderIndex   *int
	Active       bool
	IsDefault    bool
	ShowInPublic bool
	Description  string
	ColorCode    string
}

func (in *TierInput) validate() error {
	if in.Name == "" || in.DisplayName == "" {
		return domain.ErrInvalidInput
	}
	if !entity.ValidFormulaType(in.FormulaType) {
		return domain.ErrInvalidInput
	}
	if in.MinQuantity < 0 {
		return domain.ErrInvalidInput
	}
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		return domain.ErrInvalidInput
	}
	return nil
}

// CreateTier da de alta un nivel de precio. Si viene marcado como default,
// desmarca el resto en la misma operación (nunca quedan dos defaults activos).
// Sin order_index explícito toma el siguiente disponible.
func (uc *UseCase) CreateTier(ctx context.Context, input TierInput) (*entity.PriceTier, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	if existing, err := uc.tiers.GetByName(input.Name); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrConflict
	}

	if input.OrderIndex == nil {
		all, err := uc.tiers.List(true)
		if err != nil {
			return nil, err
		}
		next := 1
		for _, t := range all {
			if t.OrderIndex >= next {
				next = t.OrderIndex + 1
			}
		}
		input.OrderIndex = &next
	}

	tier := tierFromInput(uuid.New().String(), input)
	if tier.IsDefault {
		if err := uc.tiers.ClearDefaultExcept(tier.ID); err != nil {
			return nil, err
		}
	}
	if err := uc.tiers.Create(tier); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tier", tier.Name).Int("order_index", tier.OrderIndex).Msg("nivel de precio creado")
	return tier, nil
}

// UpdateTier modifica un tier existente preservando el invariante de default:
// promover uno desmarca los demás; desmarcar o desactivar el único default
// mientras existan otros tiers sin fallback se rechaza con ErrConflict.
func (uc *UseCase) UpdateTier(ctx context.Context, id string, input TierInput) (*entity.PriceTier, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	current, err := uc.tiers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if input.Name != current.Name {
		if existing, err := uc.tiers.GetByName(input.Name); err != nil {
			return nil, err
		} else if existing != nil && existing.ID != id {
			return nil, domain.ErrConflict
		}
	}

	losesDefault := current.IsDefault && (!input.IsDefault || !input.Active)
	if losesDefault {
		if err := uc.ensureOtherFallback(id); err != nil {
			return nil, err
		}
	}

	tier := tierFromInput(id, input)
	tier.CreatedAt = current.CreatedAt
	if input.OrderIndex == nil {
		tier.OrderIndex = current.OrderIndex
	}
	if tier.IsDefault && !current.IsDefault {
		if err := uc.tiers.ClearDefaultExcept(id); err != nil {
			return nil, err
		}
	}
	if err := uc.tiers.Update(tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// DeleteTier elimina un tier. El default no se puede borrar mientras algún
// otro tier carezca de fallback.
func (uc *UseCase) DeleteTier(ctx context.Context, id string) error {
	tier, err := uc.tiers.GetByID(id)
	if err != nil {
		return err
	}
	if tier == nil {
		return domain.ErrNotFound
	}
	if tier.IsDefault {
		if err := uc.ensureOtherFallback(id); err != nil {
			return err
		}
	}
	return uc.tiers.Delete(id)
}

// ensureOtherFallback verifica que quitar el default de `id` no deje tiers
// activos sin cobertura: exige otro tier activo con MinQuantity 0 (que actúa
// como default de facto) o ningún otro tier activo.
func (uc *UseCase) ensureOtherFallback(id string) error {
	active, err := uc.tiers.List(false)
	if err != nil {
		return err
	}
	others := 0
	covered := false
	for _, t := range active {
		if t.ID == id {
			continue
		}
		others++
		if t.MinQuantity == 0 {
			covered = true
		}
	}
	if others > 0 && !covered {
		return domain.ErrConflict
	}
	return nil
}

// ReorderEntry un par (tier, prioridad) del reordenamiento masivo.
type ReorderEntry struct {
	ID         string
	OrderIndex int
}

// Reorder actualiza las prioridades en bloque.
func (uc *UseCase) Reorder(ctx context.Context, entries []ReorderEntry) error {
	for _, e := range entries {
		if e.ID == "" {
			return domain.ErrInvalidInput
		}
		if err := uc.tiers.UpdateOrderIndex(e.ID, e.OrderIndex); err != nil {
			return err
		}
	}
	return nil
}

// TierQuote un tier con su precio calculado para un costo dado.
type TierQuote struct {
	Tier            entity.PriceTier
	CalculatedPrice decimal.Decimal
	AppliesNow      bool
}

// CalculateForTiers devuelve todos los tiers activos con el precio que
// producirían para costPrice, marcando cuál aplica hoy para quantity.
func (uc *UseCase) CalculateForTiers(ctx context.Context, costPrice decimal.Decimal, quantity int) ([]TierQuote, error) {
	tiers, err := uc.tiers.List(false)
	if err != nil {
		return nil, err
	}
	applicable, _ := pricing.SelectTier(quantity, tiers)

	quotes := make([]TierQuote, 0, len(tiers))
	for _, t := range tiers {
		quotes = append(quotes, TierQuote{
			Tier:            t,
			CalculatedPrice: t.CalculatePrice(costPrice),
			AppliesNow:      applicable != nil && applicable.ID == t.ID,
		})
	}
	return quotes, nil
}

func tierFromInput(id string, in TierInput) *entity.PriceTier {
	orderIndex := 0
	if in.OrderIndex != nil {
		orderIndex = *in.OrderIndex
	}
	return &entity.PriceTier{
		ID:           id,
		Name:         in.Name,
		DisplayName:  in.DisplayName,
		FormulaType:  in.FormulaType,
		Multiplier:   in.Multiplier,
		Percentage:   in.Percentage,
		FlatAmount:   in.FlatAmount,
		MinQuantity:  in.MinQuantity,
		OrderIndex:   orderIndex,
		Active:       in.Active,
		IsDefault:    in.IsDefault,
		ShowInPublic: in.ShowInPublic,
		Description:  in.Description,
		ColorCode:    in.ColorCode,
	}
}
