// Package provision creates and maintains administrator accounts outside the
// login path: the startup seed and the admin CLI commands.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ShopAdmin/internal/db"
	"ShopAdmin/internal/models"
	"ShopAdmin/internal/passwords"
)

// Store is the subset of *db.DB used here.
type Store interface {
	CreateAdmin(ctx context.Context, email, passwordHash, fullName string, active bool) (int64, error)
	ListAdmins(ctx context.Context) ([]models.Administrator, error)
	SetAdminActive(ctx context.Context, email string, active bool) error
	SetAdminPasswordHash(ctx context.Context, email, passwordHash string) error
}

var (
	ErrExists   = errors.New("provision: administrator already exists")
	ErrNotFound = errors.New("provision: administrator not found")
)

// EnsureSeedAdmin creates the seed administrator unless one with the same
// email already exists. An existing account is never modified, so a
// deactivated seed account stays deactivated. created reports whether a
// row was inserted.
func EnsureSeedAdmin(ctx context.Context, store Store, hasher passwords.Hasher, email, password, name string) (bool, error) {
	_, err := Create(ctx, store, hasher, email, password, name)
	if errors.Is(err, ErrExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	return true, nil
}

// Create hashes password and inserts an active administrator.
func Create(ctx context.Context, store Store, hasher passwords.Hasher, email, password, name string) (int64, error) {
	email = db.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return 0, err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	id, err := store.CreateAdmin(ctx, email, hash, strings.TrimSpace(name), true)
	if errors.Is(err, db.ErrDuplicate) {
		return 0, ErrExists
	}
	return id, err
}

// SetActive activates or deactivates an administrator. Deactivation takes
// effect on the administrator's next request.
func SetActive(ctx context.Context, store Store, email string, active bool) error {
	return notFound(store.SetAdminActive(ctx, email, active))
}

// SetPassword replaces an administrator's password hash.
func SetPassword(ctx context.Context, store Store, hasher passwords.Hasher, email, password string) error {
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	return notFound(store.SetAdminPasswordHash(ctx, email, hash))
}

// List returns every administrator without password hashes.
func List(ctx context.Context, store Store) ([]models.Administrator, error) {
	return store.ListAdmins(ctx)
}

func validateEmail(email string) error {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("provision: invalid email %q", email)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
