package handlers

import (
	"net/http"
	"time"

	mw "ShopAdmin/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router. Everything under /admin except login and
// logout sits behind the session guard, including unknown paths and
// unsupported methods.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLog(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.Healthz)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route(DashboardPath, func(ar chi.Router) {
		// authentication
		ar.Get("/login", h.ShowLoginPage)
		if h.limiter != nil {
			ar.With(mw.RateLimit(h.limiter, h.metrics, h.logger)).Post("/login", h.HandleLogin)
		} else {
			ar.Post("/login", h.HandleLogin)
		}
		ar.Post("/logout", h.HandleLogout)

		// admin pages and API
		ar.Group(func(g chi.Router) {
			g.Use(mw.AdminOnly(h.guard, h.metrics, h.logger))

			g.Get("/", h.AdminDashboardPage)
			g.Get("/api/me", h.GetMe)

			g.Get("/api/tax-classes", h.GetTaxClasses)
			g.Post("/api/tax-classes", h.CreateTaxClass)
			g.Post("/api/tax-classes/{classID}/rates", h.CreateTaxRate)

			g.Put("/api/tax-rates/{id}", h.UpdateTaxRate)
			g.Patch("/api/tax-rates/{id}", h.UpdateTaxRate)
			g.Delete("/api/tax-rates/{id}", h.DeleteTaxRate)
		})

		ar.NotFound(mw.AdminOnlyFunc(h.guard, h.metrics, h.logger, notFound))
		ar.MethodNotAllowed(mw.AdminOnlyFunc(h.guard, h.metrics, h.logger, methodNotAllowed))
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusNotFound, "Not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
