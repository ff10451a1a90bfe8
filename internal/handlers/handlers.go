// Package handlers serves the admin login flow, the admin pages and the
// tax-rate API behind the session guard.
package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"ShopAdmin/internal/auth"
	"ShopAdmin/internal/metrics"
	"ShopAdmin/internal/models"
	"ShopAdmin/internal/ratelimit"

	"go.uber.org/zap"
)

// Store is the persistence used by the handlers. *db.DB implements it.
type Store interface {
	Ping(ctx context.Context) error
	ListTaxClasses(ctx context.Context) ([]models.TaxClass, error)
	CreateTaxClass(ctx context.Context, name string) (*models.TaxClass, error)
	CreateTaxRate(ctx context.Context, classUUID string, r models.TaxRate) (*models.TaxRate, error)
	GetTaxRate(ctx context.Context, rateUUID string) (*models.TaxRate, error)
	UpdateTaxRate(ctx context.Context, r models.TaxRate) error
	DeleteTaxRate(ctx context.Context, rateUUID string) error
}

// Deps are the collaborators of Handlers. Limiter and Metrics may be nil.
type Deps struct {
	Store    Store
	Verifier *auth.Verifier
	Guard    *auth.Guard
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

type Handlers struct {
	store    Store
	verifier *auth.Verifier
	guard    *auth.Guard
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
	pages    map[string]*template.Template
}

//go:embed templates/*.html
var templateFS embed.FS

func New(d Deps) (*Handlers, error) {
	if d.Store == nil || d.Verifier == nil || d.Guard == nil {
		return nil, fmt.Errorf("handlers: store, verifier and guard are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	pages := map[string]*template.Template{}
	for _, name := range []string{"login", "dashboard"} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("handlers: parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &Handlers{
		store:    d.Store,
		verifier: d.Verifier,
		guard:    d.Guard,
		limiter:  d.Limiter,
		metrics:  d.Metrics,
		logger:   d.Logger,
		pages:    pages,
	}, nil
}

func (h *Handlers) render(w http.ResponseWriter, page string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Year"] = time.Now().Year()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("render template", zap.String("page", page), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// internalError logs err and answers with a generic 500.
func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	jsonError(w, http.StatusInternalServerError, "Internal server error")
}

// Healthz reports whether the database answers.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
