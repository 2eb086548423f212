package archive

import (
	"database/sql"
	"fmt"
)

type migration struct {
	Version int
	Name    string
	UpSQL   string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "001_exchanges",
		UpSQL: `CREATE TABLE exchanges(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	target TEXT,
	status INTEGER NOT NULL,
	ok INTEGER NOT NULL,
	body TEXT,
	ts TEXT NOT NULL
);
CREATE INDEX idx_exchanges_kind ON exchanges(kind);`,
	},
	{
		Version: 2,
		Name:    "002_proposals",
		UpSQL: `CREATE TABLE proposals(
	proposal_id TEXT PRIMARY KEY,
	session_id TEXT,
	language TEXT NOT NULL,
	currency TEXT NOT NULL,
	client_name TEXT,
	client_email TEXT,
	boat_count INTEGER NOT NULL,
	payload_json TEXT NOT NULL,
	request_id TEXT NOT NULL,
	upstream_status INTEGER NOT NULL,
	ok INTEGER NOT NULL,
	created_at TEXT NOT NULL
);`,
	},
}

// Migrate applies pending migrations in order.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var currentVersion int
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&currentVersion)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
		currentVersion = 0
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}
		if _, err := tx.Exec(m.UpSQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, m.Version); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		currentVersion = m.Version
	}
	return tx.Commit()
}
