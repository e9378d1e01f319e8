// Package sqlite provides a SQLite-backed fractal catalog.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	chaos "github.com/marben/chaos_ifs"
)

// ErrNotFound is returned when no descriptor has the requested id.
var ErrNotFound = errors.New("fractal not found")

const schema = `CREATE TABLE IF NOT EXISTS fractals (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	body       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store persists raw descriptors as JSON documents, in insertion order.
type Store struct {
	sqlDB *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put inserts raw, or replaces the stored descriptor with the same id while
// keeping its position.
func (s *Store) Put(ctx context.Context, raw chaos.RawDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return fmt.Errorf("fractal id is required")
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode fractal %q: %w", id, err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO fractals (id, position, body, updated_at)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM fractals), ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		id, string(body), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put fractal %q: %w", id, err)
	}
	return nil
}

// Get returns the descriptor stored under id.
func (s *Store) Get(ctx context.Context, id string) (chaos.RawDescriptor, error) {
	var body string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT body FROM fractals WHERE id = ?`, strings.TrimSpace(id)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return chaos.RawDescriptor{}, ErrNotFound
	}
	if err != nil {
		return chaos.RawDescriptor{}, fmt.Errorf("get fractal %q: %w", id, err)
	}
	return decode(id, body)
}

// List returns every stored descriptor in insertion order.
func (s *Store) List(ctx context.Context) ([]chaos.RawDescriptor, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, body FROM fractals ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list fractals: %w", err)
	}
	defer rows.Close()

	var raws []chaos.RawDescriptor
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan fractal: %w", err)
		}
		raw, err := decode(id, body)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fractals: %w", err)
	}
	return raws, nil
}

// Delete removes id. Deleting a missing id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM fractals WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete fractal %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fractal %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decode(id, body string) (chaos.RawDescriptor, error) {
	var raw chaos.RawDescriptor
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return chaos.RawDescriptor{}, fmt.Errorf("decode fractal %q: %w", id, err)
	}
	return raw, nil
}
