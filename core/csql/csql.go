// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package csql wraps a postgres database together with the schema the
// portfolio tables live in.
package csql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/lib/pq" // load database driver for postgres
	"github.com/sirupsen/logrus"
)

// DB encapsulates a standard sql.DB with a schema
type DB struct {
	*sql.DB
	Schema string
}

// ErrNoRows is returned by Scan when QueryRow doesn't return a
// row. In such a case, QueryRow returns a placeholder *Row value that
// defers this error until a Scan.
var ErrNoRows = sql.ErrNoRows

var validSchema = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Open opens a postgres database with a schema and pings it. The schema gets
// created if it does not exist yet.
func Open(ctx context.Context, dataSourceName, schema string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot reach database: %w", err)
	}
	wrapped, err := WithSchema(db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	if wrapped.Schema != "public" {
		logrus.Infoln("selected database schema:", wrapped.Schema)
		if _, err = db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+wrapped.Schema+`;`); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot create schema %s: %w", wrapped.Schema, err)
		}
	}
	return wrapped, nil
}

// WithSchema wraps an already opened database. An empty schema selects public.
func WithSchema(db *sql.DB, schema string) (*DB, error) {
	if schema == "" {
		schema = "public"
	}
	if !validSchema.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema name %q", schema)
	}
	return &DB{DB: db, Schema: schema}, nil
}

// Table returns the schema qualified name of a table
func (db *DB) Table(name string) string {
	return db.Schema + `."` + name + `"`
}

// Migrate creates the portfolio tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + db.Table("projects") + ` (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	tech TEXT[] NOT NULL DEFAULT '{}',
	link TEXT NOT NULL DEFAULT '#',
	image TEXT,
	featured BOOLEAN NOT NULL DEFAULT FALSE
);`,
		`CREATE TABLE IF NOT EXISTS ` + db.Table("skills") + ` (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	level INTEGER CHECK (level BETWEEN 0 AND 100),
	category TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS ` + db.Table("contacts") + ` (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	read BOOLEAN NOT NULL DEFAULT FALSE
);`,
		`CREATE TABLE IF NOT EXISTS ` + db.Table("users") + ` (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
		`CREATE TABLE IF NOT EXISTS ` + db.Table("refresh_tokens") + ` (
	token_hash TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES ` + db.Table("users") + `(id) ON DELETE CASCADE,
	expires_at TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS projects_featured_idx ON ` + db.Table("projects") + ` (featured DESC, id);`,
		`CREATE INDEX IF NOT EXISTS contacts_timestamp_idx ON ` + db.Table("contacts") + ` (timestamp DESC);`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("cannot migrate schema %s: %w", db.Schema, err)
		}
	}
	return nil
}

// ClearSchema clears all the data contained in the database's schema
// Technically this is done by dropping the schema and then recreating it
func (db *DB) ClearSchema(ctx context.Context) error {
	if db.Schema == "public" {
		return fmt.Errorf("refuse to drop public schema")
	}
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS `+db.Schema+` CASCADE;
CREATE SCHEMA IF NOT EXISTS `+db.Schema+`;`)
	if err != nil {
		return fmt.Errorf("cannot clear schema %s: %w", db.Schema, err)
	}
	return nil
}
