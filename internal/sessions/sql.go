package sessions

import (
	"context"
	"time"
)

// SessionTable is the subset of *db.DB the SQL backend uses.
type SessionTable interface {
	LoadSession(ctx context.Context, token string) ([]byte, bool, error)
	SaveSession(ctx context.Context, token string, data []byte, ttl time.Duration) error
	DeleteSession(ctx context.Context, token string) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// SQLBackend keeps sessions in the admin_session table.
type SQLBackend struct {
	table SessionTable
}

func NewSQLBackend(table SessionTable) *SQLBackend {
	return &SQLBackend{table: table}
}

func (b *SQLBackend) Load(ctx context.Context, token string) ([]byte, bool, error) {
	return b.table.LoadSession(ctx, token)
}

func (b *SQLBackend) Save(ctx context.Context, token string, data []byte, ttl time.Duration) error {
	return b.table.SaveSession(ctx, token, data, ttl)
}

func (b *SQLBackend) Delete(ctx context.Context, token string) error {
	return b.table.DeleteSession(ctx, token)
}

func (b *SQLBackend) Purge(ctx context.Context) (int64, error) {
	return b.table.PurgeExpiredSessions(ctx)
}
