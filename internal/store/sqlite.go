package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"thoughtline/internal/model"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL enables one writer + many readers; busy_timeout avoids "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS thoughts (
			id TEXT PRIMARY KEY,
			parent_id TEXT NOT NULL,
			rank TEXT NOT NULL,
			value TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_thoughts_parent ON thoughts(parent_id, rank);`,
		`CREATE INDEX IF NOT EXISTS idx_thoughts_value ON thoughts(value);`,
		`CREATE TABLE IF NOT EXISTS lexemes (
			value TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS kv (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Init creates the database and stamps a workspace id. Safe to call twice.
func (s Store) Init(ctx context.Context) (string, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	return ensureMetaUUID(ctx, db, "workspace_id")
}

// WorkspaceID returns the stamped workspace id, or "" for a workspace that
// was never initialized. It does not create the database.
func (s Store) WorkspaceID(ctx context.Context) (string, error) {
	if _, err := os.Stat(s.sqlitePath()); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, "workspace_id").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return strings.TrimSpace(v), err
}

func ensureMetaUUID(ctx context.Context, db *sql.DB, key string) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = ?`, key).Scan(&v)
	if err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	v = uuid.NewString()
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES(?, ?)`, key, v); err != nil {
		return "", err
	}
	return v, nil
}

// LoadGraph reads every stored thought and lexeme. A stored root row
// replaces the empty root of a fresh graph.
func (s Store) LoadGraph(ctx context.Context) (*Graph, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	g := NewGraph()
	thoughts, err := readJSONRows[model.Thought](ctx, db, `SELECT json FROM thoughts`)
	if err != nil {
		return nil, err
	}
	for i := range thoughts {
		t := thoughts[i]
		if t.Children == nil {
			t.Children = map[string]string{}
		}
		g.PutThought(t.ID, &t)
	}
	lexemes, err := readJSONRows[model.Lexeme](ctx, db, `SELECT json FROM lexemes`)
	if err != nil {
		return nil, err
	}
	for i := range lexemes {
		l := lexemes[i]
		g.PutLexeme(l.Value, &l)
	}
	return g, nil
}

func (s Store) GetThought(ctx context.Context, id string) (*model.Thought, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	xs, err := readJSONRows[model.Thought](ctx, db, `SELECT json FROM thoughts WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, &NotFoundError{Kind: "thought", ID: id}
	}
	return &xs[0], nil
}

func (s Store) GetLexeme(ctx context.Context, value string) (*model.Lexeme, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	xs, err := readJSONRows[model.Lexeme](ctx, db, `SELECT json FROM lexemes WHERE value = ?`, value)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return nil, &NotFoundError{Kind: "lexeme", ID: value}
	}
	return &xs[0], nil
}

// ApplyUpdates writes a batch of thought and lexeme changes in one
// transaction. Nil values delete; the root row is never deleted.
func (s Store) ApplyUpdates(ctx context.Context, thoughts map[string]*model.Thought, lexemes map[string]*model.Lexeme) error {
	if len(thoughts) == 0 && len(lexemes) == 0 {
		return nil
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	nowMs := time.Now().UTC().UnixMilli()
	for id, t := range thoughts {
		if t == nil {
			if id == model.RootID {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM thoughts WHERE id = ?`, id); err != nil {
				return err
			}
			continue
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO thoughts(id, parent_id, rank, value, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?, ?)`,
			t.ID, t.ParentID, t.Rank, t.Value, string(raw), nowMs); err != nil {
			return err
		}
	}
	for value, l := range lexemes {
		if l == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM lexemes WHERE value = ?`, value); err != nil {
				return err
			}
			continue
		}
		raw, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO lexemes(value, json, updated_at_unixms) VALUES(?, ?, ?)`,
			value, string(raw), nowMs); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) Get(ctx context.Context, key string) (string, bool, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return "", false, err
	}
	defer db.Close()
	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM kv WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s Store) Set(ctx context.Context, key, value string) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(k, v, updated_at_unixms) VALUES(?, ?, ?)`,
		key, value, time.Now().UTC().UnixMilli())
	return err
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GraphUpdates computes the ApplyUpdates batch turning before into after.
func GraphUpdates(before, after *Graph) (map[string]*model.Thought, map[string]*model.Lexeme) {
	thoughts := map[string]*model.Thought{}
	lexemes := map[string]*model.Lexeme{}
	for id, t := range after.thoughts {
		if before.thoughts[id] != t {
			thoughts[id] = t
		}
	}
	for id := range before.thoughts {
		if _, ok := after.thoughts[id]; !ok {
			thoughts[id] = nil
		}
	}
	for v, l := range after.lexemes {
		if before.lexemes[v] != l {
			lexemes[v] = l
		}
	}
	for v := range before.lexemes {
		if _, ok := after.lexemes[v]; !ok {
			lexemes[v] = nil
		}
	}
	return thoughts, lexemes
}
