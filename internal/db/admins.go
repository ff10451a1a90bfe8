package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"ShopAdmin/internal/models"
)

const adminColumns = `id, email, password_hash, active, full_name, created_at, updated_at`

// NormalizeEmail is the stored form of an administrator email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindActiveAdminByEmail returns the active administrator with this email
// (case-insensitive), including the password hash.
func (d *DB) FindActiveAdminByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	row := d.sql.QueryRowContext(ctx, d.q(`SELECT `+adminColumns+` FROM admin_user WHERE email = ? AND active = ?`),
		NormalizeEmail(email), true)
	return scanAdmin(row)
}

// FindActiveAdminByID returns the active administrator with this id.
func (d *DB) FindActiveAdminByID(ctx context.Context, id int64) (*models.Administrator, error) {
	row := d.sql.QueryRowContext(ctx, d.q(`SELECT `+adminColumns+` FROM admin_user WHERE id = ? AND active = ?`), id, true)
	return scanAdmin(row)
}

// GetAdminByEmail returns the administrator regardless of status.
func (d *DB) GetAdminByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	row := d.sql.QueryRowContext(ctx, d.q(`SELECT `+adminColumns+` FROM admin_user WHERE email = ?`), NormalizeEmail(email))
	return scanAdmin(row)
}

// CreateAdmin inserts an administrator in a single statement and returns its id.
// An existing email is left untouched and reported as ErrDuplicate.
func (d *DB) CreateAdmin(ctx context.Context, email, passwordHash, fullName string, active bool) (int64, error) {
	email = NormalizeEmail(email)
	if email == "" || passwordHash == "" {
		return 0, errors.New("db: email and password hash are required")
	}
	now := nowUnix()
	var id int64
	err := d.sql.QueryRowContext(ctx, d.q(`
INSERT INTO admin_user(email, password_hash, active, full_name, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(email) DO NOTHING
RETURNING id`), email, passwordHash, active, fullName, now, now).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicate
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetAdminActive flips the active flag.
func (d *DB) SetAdminActive(ctx context.Context, email string, active bool) error {
	res, err := d.sql.ExecContext(ctx, d.q(`UPDATE admin_user SET active = ?, updated_at = ? WHERE email = ?`),
		active, nowUnix(), NormalizeEmail(email))
	return affectedOne(res, err)
}

// SetAdminPasswordHash replaces the stored hash.
func (d *DB) SetAdminPasswordHash(ctx context.Context, email, passwordHash string) error {
	if passwordHash == "" {
		return errors.New("db: password hash is required")
	}
	res, err := d.sql.ExecContext(ctx, d.q(`UPDATE admin_user SET password_hash = ?, updated_at = ? WHERE email = ?`),
		passwordHash, nowUnix(), NormalizeEmail(email))
	return affectedOne(res, err)
}

// DeleteAdmin removes the administrator with this email.
func (d *DB) DeleteAdmin(ctx context.Context, email string) error {
	res, err := d.sql.ExecContext(ctx, d.q(`DELETE FROM admin_user WHERE email = ?`), NormalizeEmail(email))
	return affectedOne(res, err)
}

// ListAdmins returns all administrators ordered by email, without hashes.
func (d *DB) ListAdmins(ctx context.Context) ([]models.Administrator, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+adminColumns+` FROM admin_user ORDER BY email ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Administrator
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a.Public())
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (*models.Administrator, error) {
	var a models.Administrator
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Active, &a.FullName, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
