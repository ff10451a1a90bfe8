package middleware

import (
	"net/http"

	"ShopAdmin/internal/auth"
	"ShopAdmin/internal/metrics"

	"go.uber.org/zap"
)

// LoginPath is where unauthenticated admin requests are sent.
const LoginPath = "/admin/login"

// AdminOnly is the session guard as chi middleware: g.Use(AdminOnly(...)).
// Every request re-checks that the session's administrator still exists and
// is active; anything short of that redirects to the login page. The
// authorized administrator is attached to the request context.
func AdminOnly(guard *auth.Guard, m *metrics.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin, err := guard.Authorize(r)
			if err != nil {
				if auth.IsPersistence(err) {
					m.Guard(metrics.GuardError)
					logger.Error("session guard failed", zap.String("path", r.URL.Path), zap.Error(err))
				} else {
					m.Guard(metrics.GuardUnauthenticated)
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			m.Guard(metrics.GuardAuthorized)
			if err := guard.Refresh(w, r); err != nil {
				logger.Warn("session refresh failed", zap.Int64("admin_id", admin.ID), zap.Error(err))
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context(), admin)))
		})
	}
}

// AdminOnlyFunc wraps a single handler, e.g. r.NotFound(AdminOnlyFunc(guard, m, lg, h)).
func AdminOnlyFunc(guard *auth.Guard, m *metrics.Metrics, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return AdminOnly(guard, m, logger)(next).ServeHTTP
}
