package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Orders   *handler.OrderHandler
	Vendor   *handler.VendorHandler
	Promos   *handler.PromoHandler
	Payments *handler.PaymentHandler
	Health   *handler.HealthHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, auth middleware.AuthConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Applied in order: RequestID -> Recovery -> Logging -> CORS -> Authenticate
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Authenticate(auth, logger))

	// Health check endpoint (no authentication required)
	r.Get("/health", h.Health.Check)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Orders.Create)
		r.Get("/track", h.Orders.Track)
		r.Post("/send-guest-notifications", h.Orders.SendGuestNotifications)
		r.Get("/{id}", h.Orders.GetByID)
	})

	r.Post("/promo-codes/validate", h.Promos.Validate)
	r.Post("/payments/create-session", h.Payments.CreateSession)

	r.Route("/vendor/orders", func(r chi.Router) {
		r.Use(middleware.RequireRole(model.RoleVendor, model.RoleAdmin))
		r.Get("/", h.Vendor.List)
		r.Put("/{id}", h.Vendor.UpdateStatus)
		r.Put("/{id}/tracking", h.Vendor.SetTracking)
	})

	return r
}
