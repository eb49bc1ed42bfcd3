// ABOUTME: Database schema definitions and migrations
// ABOUTME: Handles SQLite table creation and initialization
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	start_date DATETIME NOT NULL,
	end_date DATETIME,
	all_day INTEGER NOT NULL DEFAULT 0,
	location TEXT,
	address TEXT,
	event_type TEXT NOT NULL CHECK(event_type IN ('fair', 'generic-event', 'appointment', 'delivery', 'meeting')),
	event_category TEXT,
	expected_attendees INTEGER,
	products_to_bring TEXT,
	special_requirements TEXT,
	estimated_revenue REAL,
	google_event_id TEXT,
	google_calendar_id TEXT NOT NULL DEFAULT 'primary',
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK(sync_status IN ('not_synced', 'pending', 'synced', 'error')),
	sync_error TEXT,
	last_sync_at DATETIME,
	created_by TEXT,
	assigned_to TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
CREATE INDEX IF NOT EXISTS idx_events_sync_status ON events(sync_status);
CREATE INDEX IF NOT EXISTS idx_events_google_event_id ON events(google_event_id);

CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	customer_name TEXT,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	scheduled_date DATETIME,
	delivery_date DATETIME,
	delivery_address TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_type ON orders(type);
CREATE INDEX IF NOT EXISTS idx_orders_scheduled_date ON orders(scheduled_date);

CREATE TABLE IF NOT EXISTS oauth_tokens (
	provider TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT,
	token_type TEXT,
	scope TEXT,
	expiry DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	direction TEXT NOT NULL CHECK(direction IN ('pull', 'push')),
	synced INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	error TEXT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at DESC);
`

// InitSchema creates all tables and indexes if they don't exist.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
