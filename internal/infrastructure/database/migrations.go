package database

import (
	"context"
	"fmt"
)

// migration is a single schema change applied in order.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations holds the full schema history. Append only; never edit an
// applied entry.
var migrations = []migration{
	{
		version: 1,
		name:    "settings",
		sql: `
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    power_on INTEGER NOT NULL DEFAULT 1,
    inside_enabled INTEGER NOT NULL DEFAULT 1,
    outside_enabled INTEGER NOT NULL DEFAULT 1,
    timers_enabled INTEGER NOT NULL DEFAULT 0,
    outside_safety_lock INTEGER NOT NULL DEFAULT 0,
    cmd_lockout INTEGER NOT NULL DEFAULT 0,
    autoretract INTEGER NOT NULL DEFAULT 1,
    hold_time_cs INTEGER NOT NULL DEFAULT 1000,
    timezone TEXT NOT NULL DEFAULT 'America/New_York',
    notifications TEXT NOT NULL DEFAULT '{}',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`,
	},
	{
		version: 2,
		name:    "schedules",
		sql: `
CREATE TABLE IF NOT EXISTS schedules (
    idx INTEGER PRIMARY KEY,
    enabled INTEGER NOT NULL DEFAULT 1,
    days_of_week TEXT NOT NULL,
    inside INTEGER NOT NULL DEFAULT 0,
    outside INTEGER NOT NULL DEFAULT 0,
    in_start_hour INTEGER NOT NULL DEFAULT 0,
    in_start_min INTEGER NOT NULL DEFAULT 0,
    in_end_hour INTEGER NOT NULL DEFAULT 0,
    in_end_min INTEGER NOT NULL DEFAULT 0,
    out_start_hour INTEGER NOT NULL DEFAULT 0,
    out_start_min INTEGER NOT NULL DEFAULT 0,
    out_end_hour INTEGER NOT NULL DEFAULT 0,
    out_end_min INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`,
	},
	{
		version: 3,
		name:    "counters",
		sql: `
CREATE TABLE IF NOT EXISTS counters (
    name TEXT PRIMARY KEY,
    value INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);`,
	},
	{
		version: 4,
		name:    "door_events",
		sql: `
CREATE TABLE IF NOT EXISTS door_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    occurred_at TEXT NOT NULL DEFAULT (datetime('now')),
    event_type TEXT NOT NULL,
    door_state TEXT NOT NULL,
    detail TEXT
);
CREATE INDEX IF NOT EXISTS idx_door_events_occurred ON door_events(occurred_at);`,
	},
}

// Migrate applies any pending schema migrations in version order.
// Each migration runs in its own transaction; a failure leaves the
// schema at the last successfully applied version.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: If a migration fails to apply
func (db *DB) Migrate(ctx context.Context) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	err = db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// applyMigration runs a single migration inside a transaction.
func (db *DB) applyMigration(ctx context.Context, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.version, m.name); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
