package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mfarias/mayorista-core/internal/application/checkout"
	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *ledger.UseCase
	Reservations *reservation.UseCase
	Pricing      *pricing.UseCase
	Checkout     *checkout.UseCase
	JWTSecret    string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; las de
// administración de stock y precios además rol admin o encargado.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	backoffice := RequireRole("admin", "encargado")

	// Stock por ubicación
	stockHandler := NewStockHandler(deps.Ledger)
	api.Get("/location-stocks", stockHandler.ListLocationStocks)
	api.Post("/products/:id/stocks", backoffice, stockHandler.SetStocks)

	// Libro de movimientos
	movementHandler := NewMovementHandler(deps.Ledger)
	movements := api.Group("/stock-movements")
	movements.Get("/", movementHandler.ListMovements)
	movements.Post("/", backoffice, movementHandler.CreateMovement)
	movements.Get("/report", backoffice, movementHandler.Report)
	movements.Get("/reconcile", backoffice, stockHandler.Reconcile)

	// Carrito y reservas
	cartHandler := NewCartHandler(deps.Reservations, deps.Pricing)
	cart := api.Group("/cart")
	cart.Get("/", cartHandler.GetActiveCart)
	cart.Post("/add", cartHandler.AddToCart)
	cart.Put("/update/:productId", cartHandler.UpdateCartItem)
	cart.Delete("/item/:itemId", cartHandler.RemoveCartItem)
	cart.Get("/summary", cartHandler.CartSummary)
	api.Put("/carts/:id/status", cartHandler.UpdateCartStatus)

	// Checkout
	checkoutHandler := NewCheckoutHandler(deps.Checkout)
	api.Post("/checkout/:cartId", checkoutHandler.Finalize)
	api.Post("/carts/:id/cancel", checkoutHandler.Cancel)
	api.Get("/orders/:id", checkoutHandler.GetOrder)

	// Niveles de precio (settings)
	tierHandler := NewPriceTierHandler(deps.Pricing)
	tiers := api.Group("/settings/price-tiers", backoffice)
	tiers.Get("/", tierHandler.List)
	tiers.Post("/", tierHandler.Create)
	tiers.Put("/reorder", tierHandler.Reorder)
	tiers.Get("/calculate", tierHandler.Calculate)
	tiers.Post("/recalculate-products", tierHandler.Recalculate)
	tiers.Get("/:id", tierHandler.GetByID)
	tiers.Put("/:id", tierHandler.Update)
	tiers.Delete("/:id", tierHandler.Delete)
}
