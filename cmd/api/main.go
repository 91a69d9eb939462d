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
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/jhoicas/travel-commerce-api/docs"
	"github.com/jhoicas/travel-commerce-api/internal/application/auth"
	"github.com/jhoicas/travel-commerce-api/internal/application/authz"
	"github.com/jhoicas/travel-commerce-api/internal/application/booking"
	"github.com/jhoicas/travel-commerce-api/internal/application/payment"
	"github.com/jhoicas/travel-commerce-api/internal/application/roles"
	"github.com/jhoicas/travel-commerce-api/internal/application/trip"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/events"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/memory"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/metrics"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/paymentgw"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/travel-commerce-api/internal/interfaces/http"
	"github.com/jhoicas/travel-commerce-api/pkg/config"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:    cfg.App.Env,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		MaxAge: cfg.Log.MaxAge,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Str("payment_mode", cfg.Payment.Mode).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner repository.TxRunner
		uow      repository.UnitOfWork
	)
	switch cfg.App.Storage {
	case "memory":
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		txRunner, uow = store, store.UnitOfWork()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			applied, err := postgres.NewMigrator(pool).Up(ctx)
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			log.Info().Strs("applied", applied).Msg("migraciones al día")
		}
		txRunner, uow = postgres.NewTxRunner(pool), postgres.NewUnitOfWork(pool)
	}

	// Roles del sistema siempre sembrados; el SUPER_ADMIN inicial solo si se configura.
	if err := roles.Bootstrap(ctx, txRunner, ""); err != nil {
		log.Fatal().Err(err).Msg("siembra de roles")
	}

	gateway, err := paymentgw.New(paymentgw.Config{
		AppEnv:    cfg.App.Env,
		Provider:  cfg.Payment.Provider,
		Mode:      cfg.Payment.Mode,
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
		BaseURL:   cfg.Payment.BaseURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("gateway de pagos")
	}

	recorder := metrics.New(prometheus.NewRegistry(), true)
	publisher := events.NewAsyncPublisher(events.NewLogPublisher(log), 256, 2, log)

	authUC := auth.NewAuthUseCase(txRunner, uow.Users, uow.Roles, auth.JWTConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL(),
		Issuer: cfg.JWT.Issuer,
	}, log)
	tripUC := trip.NewUseCase(txRunner, uow.Trips, log)
	bookingUC := booking.NewUseCase(booking.Deps{
		Tx:       txRunner,
		Bookings: uow.Bookings,
		Events:   publisher,
		Metrics:  recorder,
		Log:      log,
	}, booking.Config{CancellationCutoff: cfg.Booking.CancellationCutoff})
	intentUC := payment.NewIntentUseCase(uow.Bookings, uow.Payments, gateway, payment.IntentConfig{
		Currency: cfg.Payment.Currency,
		KeyID:    cfg.Payment.KeyID,
	}, log)
	reconciler := payment.NewReconciler(payment.ReconcilerDeps{
		Tx:       txRunner,
		Payments: uow.Payments,
		Events:   publisher,
		Metrics:  recorder,
		Log:      log,
	}, payment.ReconcilerConfig{
		Provider:      cfg.Payment.Provider,
		WebhookSecret: cfg.Payment.WebhookSecret,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Travel Commerce API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		TripUC:         tripUC,
		BookingUC:      bookingUC,
		IntentUC:       intentUC,
		Reconciler:     reconciler,
		RoleGuard:      roles.NewGuard(txRunner, uow.Users, uow.Roles, log),
		Resolver:       authz.NewPermissionResolver(uow.Users, uow.Roles),
		Metrics:        recorder,
		JWTSecret:      cfg.JWT.Secret,
		LoginPerMinute: cfg.HTTP.LoginPerMinute,
		Log:            log,
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
	if err := publisher.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("vaciado de eventos pendientes")
	}

	log.Info().Msg("aplicación detenida")
}
