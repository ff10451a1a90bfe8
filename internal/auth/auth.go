// Package auth implements the admin credential verifier and session guard.
//
// Both take the administrator store and the session store as explicit
// dependencies. The guard re-reads the administrator on every request: a
// session is only valid while the id it carries resolves to an existing,
// active administrator.
package auth

import (
	"context"
	"net/http"

	"ShopAdmin/internal/models"
)

// AdminStore looks up active administrators. Lookups that match nothing
// return db.ErrNotFound.
type AdminStore interface {
	FindActiveAdminByEmail(ctx context.Context, email string) (*models.Administrator, error)
	FindActiveAdminByID(ctx context.Context, id int64) (*models.Administrator, error)
}

// SessionStore is the session capability shared by Verifier and Guard.
// *sessions.Manager implements it.
type SessionStore interface {
	SetAdminID(w http.ResponseWriter, r *http.Request, adminID int64) error
	AdminID(r *http.Request) (int64, bool, error)
	Touch(w http.ResponseWriter, r *http.Request) error
	Clear(w http.ResponseWriter, r *http.Request) error
}

type adminContextKey struct{}

// WithAdmin attaches the authorized administrator to ctx.
func WithAdmin(ctx context.Context, a *models.Administrator) context.Context {
	return context.WithValue(ctx, adminContextKey{}, a)
}

// AdminFromContext returns the administrator attached by the guard.
func AdminFromContext(ctx context.Context) (*models.Administrator, bool) {
	a, ok := ctx.Value(adminContextKey{}).(*models.Administrator)
	return a, ok && a != nil
}
