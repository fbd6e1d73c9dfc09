// Package sqldb implements the relational asset store on PostgreSQL or SQLite.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Schema creates the tables read by the store. Dates are stored as
// YYYY-MM-DD and amounts as NUMERIC so both drivers agree.
const Schema = `
CREATE TABLE IF NOT EXISTS instruments (
	code      TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	market    TEXT NOT NULL DEFAULT '',
	currency  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	id             BIGINT PRIMARY KEY,
	user_id        BIGINT NOT NULL,
	asset_type     TEXT NOT NULL,
	code           TEXT NOT NULL,
	quantity       NUMERIC NOT NULL,
	purchase_date  DATE NOT NULL,
	purchase_price NUMERIC NOT NULL DEFAULT 0,
	currency       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_holdings_user ON holdings (user_id, asset_type);

CREATE TABLE IF NOT EXISTS daily_prices (
	code        TEXT NOT NULL,
	trade_date  DATE NOT NULL,
	close_price NUMERIC NOT NULL,
	currency    TEXT NOT NULL,
	PRIMARY KEY (code, trade_date)
);

CREATE TABLE IF NOT EXISTS tips (
	id  BIGINT PRIMARY KEY,
	tip TEXT NOT NULL
);
`

// DB wraps the database connection
type DB struct {
	*sql.DB
	driver string
}

// NewDB opens and pings a connection. An empty driver means SQLite.
func NewDB(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// An in-memory SQLite database exists per connection.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, driver: driver}, nil
}

// ApplySchema creates missing tables.
func (db *DB) ApplySchema(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into the driver's form.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
