// Package database provides SQLite persistence for the simulator.
//
// The store keeps the appliance's durable state between runs: the
// single-row settings table, the schedule list, lifetime counters, and
// an append-only history of door events. Schema changes are applied as
// ordered migrations tracked in the schema_migrations table.
//
// SQLite supports a single writer, so the pool is pinned to one
// connection. WAL mode is enabled by default for read concurrency.
package database
