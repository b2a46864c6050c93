// Package journal keeps a history of every edit attempted against a deck in
// SQLite.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/dgallion1/deckedit/internal/edit"
)

// Source says where a command came from.
type Source string

const (
	SourceCommand     Source = "command"
	SourceInstruction Source = "instruction"
	SourceCLI         Source = "cli"
)

// Entry is one recorded edit.
type Entry struct {
	ID           string       `json:"id"`
	DeckID       string       `json:"deck_id"`
	Source       Source       `json:"source"`
	Instruction  string       `json:"instruction,omitempty"`
	Command      edit.Command `json:"command"`
	Matched      bool         `json:"matched"`
	Replacements int          `json:"replacements"`
	Error        string       `json:"error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Journal is a SQLite-backed edit history.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) createTables() error {
	createEdits := `
	CREATE TABLE IF NOT EXISTS edits (
		id TEXT PRIMARY KEY,
		deck_id TEXT NOT NULL,
		source TEXT NOT NULL,
		instruction TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		slide INTEGER NOT NULL,
		params TEXT NOT NULL DEFAULT '{}',
		matched INTEGER NOT NULL DEFAULT 0,
		replacements INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);`
	if _, err := j.db.Exec(createEdits); err != nil {
		return fmt.Errorf("failed to create edits table: %w", err)
	}

	createIndex := `CREATE INDEX IF NOT EXISTS idx_edits_deck ON edits(deck_id, created_at);`
	if _, err := j.db.Exec(createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Record stores e, filling in ID and CreatedAt when empty.
func (j *Journal) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return e, fmt.Errorf("generate id: %w", err)
		}
		e.ID = id.String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	params, err := json.Marshal(e.Command)
	if err != nil {
		return e, fmt.Errorf("marshal command: %w", err)
	}

	query := `INSERT INTO edits
		(id, deck_id, source, instruction, action, slide, params, matched, replacements, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = j.db.ExecContext(ctx, query,
		e.ID, e.DeckID, string(e.Source), e.Instruction, string(e.Command.Action), e.Command.Slide,
		string(params), e.Matched, e.Replacements, e.Error, e.CreatedAt)
	if err != nil {
		return e, fmt.Errorf("failed to insert edit: %w", err)
	}
	return e, nil
}

// List returns the most recent entries for deckID, newest first. limit <= 0
// means 100.
func (j *Journal) List(ctx context.Context, deckID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, deck_id, source, instruction, params, matched, replacements, error, created_at
		FROM edits WHERE deck_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := j.db.QueryContext(ctx, query, deckID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query edits: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var source, params string
		if err := rows.Scan(&e.ID, &e.DeckID, &source, &e.Instruction, &params,
			&e.Matched, &e.Replacements, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		e.Source = Source(source)
		if err := json.Unmarshal([]byte(params), &e.Command); err != nil {
			return nil, fmt.Errorf("decode params of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
