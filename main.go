package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"game-key-store/config"
	"game-key-store/database"
	"game-key-store/handlers"
	"game-key-store/middleware"
	"game-key-store/repository"
	"game-key-store/services"
	"game-key-store/utils"
	"game-key-store/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	// Money goes out as JSON numbers, matching the request format.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.Open(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	store := repository.NewStore(db)
	gameService := services.NewGameService(store)
	clientService := services.NewClientService(store)
	purchaseService := services.NewPurchaseService(store)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.BodyLimit,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Origins(), ","),
		AllowMethods: "GET,POST,DELETE,OPTIONS,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		MaxAge:       86400,
	}))
	app.Use(middleware.RequestLogger())

	handlers.Register(app, handlers.Services{
		DB:       db,
		Games:    gameService,
		Clients:  clientService,
		Purchase: purchaseService,
	}, cfg.GatewayToken)
	if cfg.GatewayToken == "" {
		log.Warn().Msg("GATEWAY_TOKEN not set, /api is served without gateway authentication")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopReporter := func() error { return nil }
	if cfg.InventoryReportInterval > 0 {
		var sink workers.ReportSink
		if cfg.R2.Enabled() {
			r2, err := utils.NewR2Sink(ctx, cfg.R2)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize R2 client")
			}
			sink = r2
		}
		reporter := workers.NewInventoryReporter(store, sink, cfg.LowStockThreshold)
		stopReporter, err = reporter.Start(ctx, cfg.InventoryReportInterval)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start inventory reporter")
		}
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()
	log.Info().Str("addr", cfg.HTTPAddr).Strs("origins", cfg.Origins()).Msg("server running")

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := stopReporter(); err != nil {
		log.Error().Err(err).Msg("inventory reporter shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
