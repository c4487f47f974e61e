package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrJamesThe3rd/budgetbox/internal/http/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/http/health"
)

func New(
	budgetV1 *budget.Handler,
	healthH *health.Handler,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/budget", func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		budgetV1.Routes(r)
	})

	router.Route("/healthz", healthH.Routes)
	router.Handle("/metrics", promhttp.Handler())

	return router
}
