package journal

import (
	"database/sql"
	"fmt"
)

// schema creates the runs table. Timestamps are stored as RFC 3339 UTC
// strings; sqlite has no native time type.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	login_id      TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	artifact_path TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_login_id ON runs(login_id);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// migrate applies the schema.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("journal: migrating schema: %w", err)
	}
	return nil
}
