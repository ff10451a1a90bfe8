package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/models"
	"ShopAdmin/internal/passwords"

	"go.uber.org/zap"
)

// Verifier checks administrator credentials.
type Verifier struct {
	admins   AdminStore
	sessions SessionStore
	logger   *zap.Logger

	// dummyHash is compared against when no account matches so that both
	// failure paths cost one hash comparison.
	dummyHash string
}

// NewVerifier builds a Verifier. hasher must be the one used for stored
// hashes so the dummy comparison costs the same.
func NewVerifier(admins AdminStore, sessions SessionStore, hasher passwords.Hasher, logger *zap.Logger) (*Verifier, error) {
	dummy, err := hasher.Hash("shopadmin-dummy-password")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{admins: admins, sessions: sessions, logger: logger, dummyHash: dummy}, nil
}

// Authenticate returns the active administrator matching email and password,
// without its password hash. Email comparison is case-insensitive.
func (v *Verifier) Authenticate(ctx context.Context, email, password string) (*models.Administrator, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	a, err := v.admins.FindActiveAdminByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		_, _ = passwords.Verify(password, v.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, &PersistenceError{Op: "find admin by email", Err: err}
	}

	ok, err := passwords.Verify(password, a.PasswordHash)
	if err != nil {
		v.logger.Error("stored password hash unreadable", zap.Int64("admin_id", a.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	out := a.Public()
	return &out, nil
}

// Login authenticates and, on success, binds the administrator id to a
// freshly issued session. Nothing is written to the session on failure.
func (v *Verifier) Login(w http.ResponseWriter, r *http.Request, email, password string) (*models.Administrator, error) {
	a, err := v.Authenticate(r.Context(), email, password)
	if err != nil {
		return nil, err
	}
	if err := v.sessions.SetAdminID(w, r, a.ID); err != nil {
		return nil, &PersistenceError{Op: "save session", Err: err}
	}
	return a, nil
}

// Logout ends the request's session.
func (v *Verifier) Logout(w http.ResponseWriter, r *http.Request) error {
	if err := v.sessions.Clear(w, r); err != nil {
		return &PersistenceError{Op: "clear session", Err: err}
	}
	return nil
}
