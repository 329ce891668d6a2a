package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Schema is the mesures table written by the ingest bridge. date_time holds
// local wall-clock text in "YYYY-MM-DD HH:MM:SS" so lexical order is time order.
const Schema = `
CREATE TABLE IF NOT EXISTS mesures (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date_time DATETIME,
	temp      REAL,
	hum       REAL,
	gaz_pct   REAL,
	lux       REAL,
	press     REAL,
	air_pct   REAL
);
CREATE INDEX IF NOT EXISTS idx_mesures_date_time ON mesures(date_time);
`

// Open opens the sqlite database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ApplySchema(conn *sql.DB) error {
	if _, err := conn.Exec(Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
