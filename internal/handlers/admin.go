package handlers

import (
	"net/http"

	"ShopAdmin/internal/auth"
)

// AdminDashboardPage renders the dashboard for the administrator attached
// by the guard.
func (h *Handlers) AdminDashboardPage(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	h.render(w, "dashboard", map[string]any{
		"Title":     "Tax rates",
		"Admin":     admin,
		"TaxAPI":    taxClassesAPI,
		"LogoutURL": "/admin/logout",
	})
}

// GetMe returns the authorized administrator without its password hash.
func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	admin, ok := auth.AdminFromContext(r.Context())
	if !ok {
		jsonError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	writeJSON(w, http.StatusOK, admin.Public())
}
