package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mfarias/mayorista-core/internal/application/checkout"
	"github.com/mfarias/mayorista-core/internal/application/ledger"
	"github.com/mfarias/mayorista-core/internal/application/pricing"
	"github.com/mfarias/mayorista-core/internal/application/reservation"
	infrapdf "github.com/mfarias/mayorista-core/internal/infrastructure/pdf"
	"github.com/mfarias/mayorista-core/internal/infrastructure/postgres"
	httpRouter "github.com/mfarias/mayorista-core/internal/interfaces/http"
	"github.com/mfarias/mayorista-core/pkg/config"
	"github.com/mfarias/mayorista-core/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	lineRepo := postgres.NewStockLineRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	tierRepo := postgres.NewPriceTierRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	reportGenerator := infrapdf.NewMarotoReportGenerator()

	ledgerUC := ledger.NewUseCase(txRunner, lineRepo, movementRepo, reportGenerator, log)
	reservationUC := reservation.NewUseCase(txRunner, cartRepo, log)
	pricingUC := pricing.NewUseCase(tierRepo, productRepo, cartRepo, log)
	checkoutUC := checkout.NewUseCase(txRunner, cartRepo, orderRepo, reservationUC, pricingUC, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Mayorista Core API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledgerUC,
		Reservations: reservationUC,
		Pricing:      pricingUC,
		Checkout:     checkoutUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
