// Package db owns the ShopAdmin database handle: connection setup,
// migrations, and the queries for administrators, tax rates and sessions.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("db: not found")
	// ErrDuplicate is returned when an insert hits a unique key.
	ErrDuplicate = errors.New("db: duplicate")
)

type DB struct {
	sql    *sql.DB
	driver Driver
}

// Open connects to rawDSN (see ParseDSN), pings it and applies migrations.
func Open(ctx context.Context, rawDSN string) (*DB, error) {
	driver, dsn := ParseDSN(rawDSN)
	s, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	if driver == DriverSQLite {
		// one writer; also keeps a :memory: database alive across calls
		s.SetMaxOpenConns(1)
		s.SetMaxIdleConns(1)
		s.SetConnMaxLifetime(0)
	} else {
		s.SetMaxOpenConns(10)
		s.SetMaxIdleConns(5)
		s.SetConnMaxLifetime(30 * time.Minute)
		s.SetConnMaxIdleTime(5 * time.Minute)
	}

	d := &DB{sql: s, driver: driver}
	if err := d.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	if err := Migrate(ctx, d); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("db: migrate: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) Driver() Driver { return d.driver }

// Ping checks connectivity with a short timeout.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return d.sql.PingContext(ctx)
}

func (d *DB) q(query string) string { return rebind(d.driver, query) }

func nowUnix() int64 { return time.Now().Unix() }
