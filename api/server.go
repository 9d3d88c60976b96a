/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique id per request for tracing
  2. RequestLogger: One structured line per request
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for API consumers

ROUTE GROUPS:
  /health                Liveness
  /api/products/*        Catalog reads (open)
  /api/buyers/*          Buyer reads (open)
  /api/transactions      Log reads (open)
  /api/clock             Clock read (open)
  /api/purchases/*       Purchases (identity required)
  /api/returns/*         Returns (identity required)
  /api/admin/*           Catalog and clock administration (identity
                         required; the engine enforces privilege)
  /api/scenarios/*       Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - identity.go: RequireIdentity
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger zerolog.Logger, resolver IdentityResolver, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", DefaultIdentityHeader, "X-Request-Id"},
		AllowCredentials: false,
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog reads
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
			r.Get("/{id}/summary", h.GetProductSummary)
		})

		// Buyer reads
		r.Route("/buyers", func(r chi.Router) {
			r.Get("/{id}", h.GetBuyer)
			r.Get("/{id}/history", h.GetBuyerHistory)
			r.Get("/{id}/summary", h.GetBuyerSummary)
		})

		// Log and clock reads
		r.Get("/transactions", h.ListTransactions)
		r.Get("/clock", h.GetClock)

		// Purchases and returns act for the calling identity
		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity(resolver))

			r.Route("/purchases", func(r chi.Router) {
				r.Post("/", h.SubmitPurchase)
				r.Post("/preview", h.PreviewPurchase)
			})

			r.Route("/returns", func(r chi.Router) {
				r.Post("/index", h.ReturnByIndex)
				r.Post("/product", h.ReturnByProduct)
				r.Post("/latest", h.ReturnLatest)
			})

			// Admin routes; privilege is the engine's call
			r.Route("/admin", func(r chi.Router) {
				r.Post("/products", h.CreateProduct)
				r.Post("/products/{name}/quantity", h.AddQuantity)
				r.Put("/products/{name}/price", h.SetPrice)
				r.Post("/clock/advance", h.AdvanceClock)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/{name}", h.LoadScenario)
		})
	})

	return r
}
