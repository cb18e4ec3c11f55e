package database

import (
	"context"
	"fmt"

	"github.com/taskmaster/taskapi/internal/infrastructure/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          BIGSERIAL PRIMARY KEY,
	title       VARCHAR(200) NOT NULL,
	description VARCHAR(2000),
	status      VARCHAR(20) NOT NULL DEFAULT 'pending'
	            CHECK (status IN ('pending', 'in_progress', 'completed')),
	priority    INTEGER NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 3),
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks(title);
`

// AUTOINCREMENT keeps SQLite from reusing the id of a deleted last row.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT,
	status      TEXT NOT NULL DEFAULT 'pending'
	            CHECK (status IN ('pending', 'in_progress', 'completed')),
	priority    INTEGER NOT NULL DEFAULT 1 CHECK (priority BETWEEN 1 AND 3),
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_title ON tasks(title);
`

// EnsureSchema creates the tasks table and its index when they are missing.
// It is idempotent and does not alter an existing table.
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema := postgresSchema
	if db.driver == config.DriverSQLite {
		schema = sqliteSchema
	}

	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
