package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// Migrate creates the tables for the database's dialect if they are missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var schema string
	switch db.DriverName() {
	case "postgres":
		schema = postgresSchema
	case "sqlite":
		schema = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", db.DriverName(), err)
	}
	return nil
}
