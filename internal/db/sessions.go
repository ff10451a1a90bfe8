package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// LoadSession returns the stored session body for token if it has not expired.
func (d *DB) LoadSession(ctx context.Context, token string) ([]byte, bool, error) {
	var data []byte
	err := d.sql.QueryRowContext(ctx, d.q(`SELECT data FROM admin_session WHERE token = ? AND expires_at > ?`),
		token, time.Now().Unix()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// SaveSession upserts the session body and its expiry.
func (d *DB) SaveSession(ctx context.Context, token string, data []byte, ttl time.Duration) error {
	_, err := d.sql.ExecContext(ctx, d.q(`
INSERT INTO admin_session(token, data, expires_at) VALUES(?, ?, ?)
ON CONFLICT(token) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`),
		token, data, time.Now().Add(ttl).Unix())
	return err
}

// DeleteSession removes token. Missing tokens are not an error.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.sql.ExecContext(ctx, d.q(`DELETE FROM admin_session WHERE token = ?`), token)
	return err
}

// PurgeExpiredSessions deletes expired rows and reports how many were removed.
func (d *DB) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := d.sql.ExecContext(ctx, d.q(`DELETE FROM admin_session WHERE expires_at <= ?`), time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
