package auth

import (
	"errors"
	"net/http"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/models"
)

// Guard authorizes requests to protected admin routes.
// Decisions are never cached: each call performs one administrator lookup.
type Guard struct {
	admins   AdminStore
	sessions SessionStore
}

func NewGuard(admins AdminStore, sessions SessionStore) *Guard {
	return &Guard{admins: admins, sessions: sessions}
}

// Authorize returns the active administrator referenced by the request's
// session. It returns ErrUnauthenticated when the session carries no id or
// the id no longer resolves to an active administrator, and a
// *PersistenceError when the session or administrator store fails.
func (g *Guard) Authorize(r *http.Request) (*models.Administrator, error) {
	id, ok, err := g.sessions.AdminID(r)
	if err != nil {
		return nil, &PersistenceError{Op: "load session", Err: err}
	}
	if !ok {
		return nil, ErrUnauthenticated
	}

	a, err := g.admins.FindActiveAdminByID(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, &PersistenceError{Op: "find admin by id", Err: err}
	}
	out := a.Public()
	return &out, nil
}

// Refresh extends the session after a successful Authorize.
func (g *Guard) Refresh(w http.ResponseWriter, r *http.Request) error {
	return g.sessions.Touch(w, r)
}
