// Package docdb stores task documents in SQLite. It backs the local document
// service and the "sqlite" backend.
package docdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/five82/ticklist/internal/task"
)

// ErrNotFound is returned when updating or deleting an unknown document.
var ErrNotFound = task.ErrNoDocument

// DB is a SQLite-backed set of document collections.
type DB struct {
	db    *sql.DB
	newID func() string
}

// Open opens (creating if needed) the database at path. A leading ~ is
// expanded. ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if path != ":memory:" {
		if strings.HasPrefix(path, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve home: %w", err)
			}
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// pointing at the same database.
	db.SetMaxOpenConns(1)

	d := &DB{db: db, newID: uuid.NewString}
	if err := d.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			collection TEXT NOT NULL,
			text TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			deadline TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Create inserts a document and returns its new identifier.
func (d *DB) Create(ctx context.Context, collection string, fields task.Fields) (string, error) {
	id := d.newID()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, text, completed, deadline, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, collection, fields.Text, fields.Completed, deadlineValue(fields.Deadline), fields.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// List returns a collection's documents in insertion order.
func (d *DB) List(ctx context.Context, collection string) ([]task.Task, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, text, completed, deadline, created_at FROM documents WHERE collection = ? ORDER BY seq`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []task.Task
	for rows.Next() {
		var (
			t        task.Task
			deadline sql.NullString
			created  string
		)
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &deadline, &created); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if deadline.Valid {
			if t.Deadline, err = task.ParseDate(deadline.String); err != nil {
				return nil, fmt.Errorf("document %s: %w", t.ID, err)
			}
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("document %s: parse created_at: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Update applies the fields set in patch. An empty patch only checks that
// the document exists.
func (d *DB) Update(ctx context.Context, collection, id string, patch task.Patch) error {
	var (
		sets []string
		args []any
	)
	if patch.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *patch.Text)
	}
	if patch.Completed != nil {
		sets = append(sets, "completed = ?")
		args = append(args, *patch.Completed)
	}
	if patch.Deadline != nil {
		sets = append(sets, "deadline = ?")
		args = append(args, deadlineValue(*patch.Deadline))
	}
	if len(sets) == 0 {
		return d.exists(ctx, collection, id)
	}

	args = append(args, collection, id)
	res, err := d.db.ExecContext(ctx,
		`UPDATE documents SET `+strings.Join(sets, ", ")+` WHERE collection = ? AND id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return affected(res, id)
}

// Delete removes a document.
func (d *DB) Delete(ctx context.Context, collection, id string) error {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return affected(res, id)
}

func (d *DB) exists(ctx context.Context, collection, id string) error {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup document: %w", err)
	}
	return nil
}

func affected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func deadlineValue(d task.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
