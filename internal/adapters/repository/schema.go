package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the catalog tables when they do not exist yet.
// gen_random_uuid is built into PostgreSQL 13 and later.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS "CREDIT_PACKAGE" (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name VARCHAR(50) NOT NULL UNIQUE,
	credit_amount INTEGER NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS "SKILL" (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name VARCHAR(50) NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT now()
)`,
}

// Synchronize creates any missing catalog tables. Existing tables are left
// untouched; there is no column-level migration.
func Synchronize(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
