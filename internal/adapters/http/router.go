package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stockdeck/stockdeck/internal/application"
)

// Handler is the HTTP adapter entrypoint for the dashboard API.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handler.signup)
			r.Post("/login", handler.login)
			r.Post("/oauth", handler.oauthLogin)
			r.Post("/password/forgot", handler.forgotPassword)
			r.Post("/password/verify-otp", handler.verifyResetCode)
			r.Post("/password/reset", handler.resetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Get("/auth/me", handler.me)
			r.Get("/products", handler.listProducts)
			r.Post("/products", handler.createProduct)
			r.Get("/products/stats", handler.productStats)
			r.Put("/products/{product_id}", handler.updateProduct)
			r.Delete("/products/{product_id}", handler.deleteProduct)
		})
	})

	return r
}
