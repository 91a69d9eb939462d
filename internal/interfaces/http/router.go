package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/travel-commerce-api/internal/application/auth"
	"github.com/jhoicas/travel-commerce-api/internal/application/booking"
	"github.com/jhoicas/travel-commerce-api/internal/application/payment"
	"github.com/jhoicas/travel-commerce-api/internal/application/roles"
	"github.com/jhoicas/travel-commerce-api/internal/application/trip"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// MetricsRecorder lo implementa *metrics.Recorder.
type MetricsRecorder interface {
	httpRecorder
	Handler() http.Handler
}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	TripUC         *trip.UseCase
	BookingUC      *booking.UseCase
	IntentUC       *payment.IntentUseCase
	Reconciler     *payment.Reconciler
	RoleGuard      *roles.Guard
	Resolver       principalResolver
	Metrics        MetricsRecorder // nil: sin /metrics
	JWTSecret      string
	LoginPerMinute int
	Log            *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("http")

	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	// Webhooks (públicos, autenticados por firma)
	webhookHandler := NewWebhookHandler(deps.Reconciler, log)
	app.Post("/webhooks/:provider", webhookHandler.Handle)

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", RateLimit(deps.LoginPerMinute, 0), authHandler.Login)

	// Rutas protegidas (requieren Bearer Token y usuario activo)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), PrincipalMiddleware(deps.Resolver, log))

	protected.Get("/me/permissions", authHandler.MyPermissions)

	// Trips: cada acción comprueba su permiso en el caso de uso
	trips := protected.Group("/trips")
	tripHandler := NewTripHandler(deps.TripUC, log)
	trips.Get("/:id", tripHandler.GetByID)
	trips.Post("/:id/:action", tripHandler.Transition)

	// Bookings
	bookings := protected.Group("/bookings")
	bookingHandler := NewBookingHandler(deps.BookingUC, deps.IntentUC, log)
	bookings.Post("/", RequirePermission(rbac.PermBookingCreate), bookingHandler.Create)
	bookings.Get("/:id", bookingHandler.GetByID)
	bookings.Post("/:id/pay", bookingHandler.Pay)
	bookings.Post("/:id/:action", bookingHandler.Transition)

	// Administración de roles
	admin := protected.Group("/admin", RequirePermission(rbac.PermUserAssignRole, rbac.PermRoleAssign))
	roleHandler := NewRoleHandler(deps.RoleGuard, log)
	admin.Post("/roles/assign", roleHandler.Assign)
	admin.Post("/roles/revoke", roleHandler.Revoke)
}
