package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []struct {
	name string
	ddl  string
}{
	{"scan_history", `
CREATE TABLE IF NOT EXISTS scan_history (
	id UUID PRIMARY KEY,
	station VARCHAR(255) NOT NULL,
	operator VARCHAR(255) NOT NULL DEFAULT '',
	kind VARCHAR(16) NOT NULL,
	action VARCHAR(16) NOT NULL,
	lookup_key VARCHAR(255) NOT NULL DEFAULT '',
	record_id VARCHAR(255) NOT NULL DEFAULT '',
	status VARCHAR(16) NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS scan_history_created_at_idx ON scan_history (created_at DESC);`},
	{"read_model_attendance", `
CREATE TABLE IF NOT EXISTS read_model_attendance (
	day DATE NOT NULL,
	subject VARCHAR(255) NOT NULL,
	verified INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	checked_in INTEGER NOT NULL DEFAULT 0,
	guests INTEGER NOT NULL DEFAULT 0,
	checked_out INTEGER NOT NULL DEFAULT 0,
	last_update TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (day, subject)
);`},
	{"read_model_attendance_processed", `
CREATE TABLE IF NOT EXISTS read_model_attendance_processed (
	idempotency_key VARCHAR(255) PRIMARY KEY,
	processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`},
	{"events", `
CREATE TABLE IF NOT EXISTS events (
	event_id UUID PRIMARY KEY,
	published_at TIMESTAMP WITH TIME ZONE NOT NULL,
	event_name VARCHAR(255) NOT NULL,
	station VARCHAR(255) NOT NULL DEFAULT '',
	event_payload JSONB NOT NULL
);`},
}

func InitializeDBSchema(ctx context.Context, db *sqlx.DB) error {
	for _, table := range schema {
		if _, err := db.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	return nil
}
