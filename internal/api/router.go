// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchstake/internal/api/handler"
)

// NewRouter creates and configures the main application router.
func NewRouter(wagerHandler *handler.WagerHandler, internalHandler *handler.InternalHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/wagers", func(r chi.Router) {
		r.Post("/", wagerHandler.PlaceWager)
		r.Post("/resolve", wagerHandler.ResolveWager)
		r.Get("/active", wagerHandler.GetActiveWager)
		r.Get("/", wagerHandler.GetWagerHistory)
	})

	r.Get("/accounts/balances", wagerHandler.GetBalances)

	r.Route("/internal", func(r chi.Router) {
		r.Use(internalHandler.RequireToken)
		r.Post("/resolver/run", internalHandler.TriggerResolverRun)
		r.Post("/accounts/{accountID}/credit", internalHandler.CreditAccount)
		r.Post("/wagers/{wagerID}/cancel", internalHandler.CancelWager)
	})

	return r
}
