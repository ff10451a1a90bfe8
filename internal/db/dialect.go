package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Driver names a database/sql driver registered by this package.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDSN picks a driver for raw and returns the DSN that driver expects.
// Accepted forms: postgres:// and postgresql:// URLs, lib/pq key=value
// strings, sqlite://path, and bare file paths (sqlite).
func ParseDSN(raw string) (Driver, string) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DriverPostgres, raw
	case strings.HasPrefix(raw, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(raw, "sqlite://"))
	case strings.Contains(raw, "host=") || strings.Contains(raw, "dbname="):
		return DriverPostgres, raw
	default:
		return DriverSQLite, sqliteDSN(raw)
	}
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
}

// rebind converts '?' placeholders to $1, $2, ... for Postgres.
func rebind(d Driver, query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
