package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type migration struct {
	id       string
	postgres []string
	sqlite   []string
}

var migrations = []migration{
	{
		id: "0001_admin_user",
		postgres: []string{`
CREATE TABLE IF NOT EXISTS admin_user (
  id BIGSERIAL PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  full_name TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
)`},
		sqlite: []string{`
CREATE TABLE IF NOT EXISTS admin_user (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  full_name TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
)`},
	},
	{
		id: "0002_tax",
		postgres: []string{`
CREATE TABLE IF NOT EXISTS tax_class (
  id BIGSERIAL PRIMARY KEY,
  uuid TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS tax_rate (
  id BIGSERIAL PRIMARY KEY,
  uuid TEXT NOT NULL UNIQUE,
  tax_class_id BIGINT NOT NULL REFERENCES tax_class(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT '*',
  province TEXT NULL,
  postcode TEXT NULL,
  rate DOUBLE PRECISION NOT NULL,
  is_compound BOOLEAN NOT NULL DEFAULT FALSE,
  priority INTEGER NOT NULL DEFAULT 0
)`,
			`CREATE INDEX IF NOT EXISTS idx_tax_rate_class ON tax_rate(tax_class_id)`,
		},
		sqlite: []string{`
CREATE TABLE IF NOT EXISTS tax_class (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uuid TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS tax_rate (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uuid TEXT NOT NULL UNIQUE,
  tax_class_id INTEGER NOT NULL REFERENCES tax_class(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT '*',
  province TEXT NULL,
  postcode TEXT NULL,
  rate REAL NOT NULL,
  is_compound INTEGER NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0
)`,
			`CREATE INDEX IF NOT EXISTS idx_tax_rate_class ON tax_rate(tax_class_id)`,
		},
	},
	{
		id: "0003_admin_session",
		postgres: []string{`
CREATE TABLE IF NOT EXISTS admin_session (
  token TEXT PRIMARY KEY,
  data BYTEA NOT NULL,
  expires_at BIGINT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_admin_session_expires ON admin_session(expires_at)`,
		},
		sqlite: []string{`
CREATE TABLE IF NOT EXISTS admin_session (
  token TEXT PRIMARY KEY,
  data BLOB NOT NULL,
  expires_at INTEGER NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_admin_session_expires ON admin_session(expires_at)`,
		},
	},
}

// Migrate applies pending migrations, each in its own transaction.
func Migrate(ctx context.Context, d *DB) error {
	if _, err := d.sql.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id TEXT PRIMARY KEY,
  applied_at BIGINT NOT NULL
)`); err != nil {
		return err
	}

	for _, m := range migrations {
		applied, err := d.isMigrationApplied(ctx, m.id)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		stmts := m.sqlite
		if d.driver == DriverPostgres {
			stmts = m.postgres
		}
		if err := d.applyMigration(ctx, m.id, stmts); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.id, err)
		}
	}
	return nil
}

// AppliedMigrations lists applied migration ids in order.
func (d *DB) AppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id FROM schema_migrations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (d *DB) isMigrationApplied(ctx context.Context, id string) (bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, d.q(`SELECT id FROM schema_migrations WHERE id = ?`), id).Scan(&v)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, err
}

func (d *DB) applyMigration(ctx context.Context, id string, stmts []string) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, d.q(`INSERT INTO schema_migrations(id, applied_at) VALUES(?, ?)`), id, nowUnix()); err != nil {
		return err
	}
	return tx.Commit()
}
