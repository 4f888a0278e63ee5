package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/match-sim/match-sim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	match_id   TEXT    NOT NULL,
	turn_index INTEGER NOT NULL,
	actor_role TEXT    NOT NULL,
	type       TEXT    NOT NULL,
	payload    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id, seq);
`

// SQLite is a Store backed by a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a SQLite ledger at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append writes the events as one transaction so a crash never leaves a
// partially-persisted turn.
func (s *SQLite) Append(ctx context.Context, matchID string, events []sim.GameEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO match_events (match_id, turn_index, actor_role, type, payload) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ledger append: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := encodePayload(ev.Payload)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, matchID, ev.Turn, ev.Actor, ev.Type, payload); err != nil {
			return fmt.Errorf("insert ledger row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger append: %w", err)
	}
	return nil
}

// Events reads the match's ledger back in append order.
func (s *SQLite) Events(ctx context.Context, matchID string) ([]sim.GameEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_index, actor_role, type, payload FROM match_events WHERE match_id = ? ORDER BY seq`,
		matchID)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var events []sim.GameEvent
	for rows.Next() {
		var ev sim.GameEvent
		var payload string
		if err := rows.Scan(&ev.Turn, &ev.Actor, &ev.Type, &payload); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		ev.Payload, err = decodePayload(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLite)(nil)
