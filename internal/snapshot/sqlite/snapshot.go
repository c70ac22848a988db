// Package sqlite keeps index snapshots in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/snapshot"
)

type Config struct {
	FileName string `envconfig:"KD_SQLITE_FILE" default:"kd.sqlite"`
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	dimension  INTEGER NOT NULL,
	len        INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	blob       BLOB NOT NULL
)`

var _ snapshot.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating when missing) the database file of cfg.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	logging.FromContext(ctx).Infof("opening snapshot db %s", cfg.FileName)
	db, err := sql.Open("sqlite", cfg.FileName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.FileName, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New uses db, creating the snapshots table when missing.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Save(ctx context.Context, meta snapshot.Snapshot, blob []byte) (snapshot.Snapshot, error) {
	meta.Size = len(blob)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (name, id, dimension, len, size, created_at, blob)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	id = excluded.id,
	dimension = excluded.dimension,
	len = excluded.len,
	size = excluded.size,
	created_at = excluded.created_at,
	blob = excluded.blob`,
		meta.Name, meta.ID.String(), meta.Dimension, meta.Len, meta.Size, meta.CreatedAt.UnixNano(), blob,
	)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("sqlite save %s: %w", meta.Name, err)
	}
	return meta, nil
}

func (s *Store) Load(ctx context.Context, name string) ([]byte, snapshot.Snapshot, error) {
	var (
		meta    = snapshot.Snapshot{Name: name}
		created int64
		blob    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dimension, len, size, created_at, blob FROM snapshots WHERE name = ?`, name,
	).Scan(&meta.ID, &meta.Dimension, &meta.Len, &meta.Size, &created, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snapshot.Snapshot{}, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, snapshot.Snapshot{}, fmt.Errorf("sqlite load %s: %w", name, err)
	}
	meta.CreatedAt = time.Unix(0, created).UTC()
	return blob, meta, nil
}

func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite names: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
