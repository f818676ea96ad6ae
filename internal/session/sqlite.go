package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finchat/advisor/models"
)

// SQLiteStore persists session state so multiple server processes can share
// one store. Profiles are stored as a JSON blob on the session row; history
// turns get their own ordered table.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	profile    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*State, error) {
	var profileJSON string
	var updatedAt time.Time

	row := s.db.QueryRowContext(ctx,
		"SELECT profile, updated_at FROM sessions WHERE id = ?", id)
	if err := row.Scan(&profileJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	state := &State{UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(profileJSON), &state.Profile); err != nil {
		return nil, fmt.Errorf("decode profile for %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM turns WHERE session_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn models.Turn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn for %s: %w", id, err)
		}
		state.History = append(state.History, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for %s: %w", id, err)
	}

	return state, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id string, state *State) error {
	profileJSON, err := json.Marshal(&state.Profile)
	if err != nil {
		return fmt.Errorf("encode profile for %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO sessions (id, profile, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET profile = excluded.profile, updated_at = excluded.updated_at`,
		id, string(profileJSON), time.Now()); err != nil {
		return fmt.Errorf("upsert session %s: %w", id, err)
	}

	// History is append-only, so replacing the rows wholesale is simpler
	// than diffing and still atomic inside the transaction.
	if _, err := tx.ExecContext(ctx, "DELETE FROM turns WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("clear turns for %s: %w", id, err)
	}
	for seq, turn := range state.History {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO turns (session_id, seq, role, content) VALUES (?, ?, ?, ?)",
			id, seq, turn.Role, turn.Content); err != nil {
			return fmt.Errorf("insert turn %d for %s: %w", seq, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
