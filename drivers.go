package bit2

import (
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // registers the "libsql" database/sql driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" database/sql driver
)

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	}
}

// OpenSQLite opens a local SQLite database file.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn}), gormConfig())
}

// OpenLibSQL opens a remote libSQL (Turso) database. The DSN is a libsql://
// URL, optionally carrying an authToken query parameter (see LibSQLDSN).
func OpenLibSQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.New(sqlite.Config{DriverName: "libsql", DSN: dsn}), gormConfig())
}

// OpenPostgres opens a PostgreSQL database.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// OpenMySQL opens a MySQL database.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// RegisterDefaultDrivers registers connection functions for every driver
// constant.
func (m *ConnectionManager) RegisterDefaultDrivers() {
	m.AddConnectionFunc(DbSqlite, OpenSQLite)
	m.AddConnectionFunc(DbLibSQL, OpenLibSQL)
	m.AddConnectionFunc(DbPostgres, OpenPostgres)
	m.AddConnectionFunc(DbMySQL, OpenMySQL)
}

// LibSQLDSN builds a libSQL DSN from a database URL and an auth token.
func LibSQLDSN(databaseURL, authToken string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(databaseURL))
	if err != nil {
		return "", fmt.Errorf("invalid libsql url %q: %w", databaseURL, err)
	}
	switch u.Scheme {
	case "libsql", "https", "http", "wss", "ws":
	default:
		return "", fmt.Errorf("unsupported libsql url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("libsql url %q has no host", databaseURL)
	}
	if authToken != "" {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
