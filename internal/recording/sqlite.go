package recording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jason-s-yu/hbroom/internal/database"
)

// SQLiteStore keeps recordings in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path along with its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("recording: migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			room_name TEXT NOT NULL,
			stadium TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			stopped_at INTEGER NOT NULL,
			size INTEGER NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recordings_stopped_at ON recordings(stopped_at DESC);
	`)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, rec *Recording) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Size = len(rec.Data)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recordings (id, room_name, stadium, started_at, stopped_at, size, data) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.RoomName, rec.Stadium, rec.StartedAt.UnixMilli(), rec.StoppedAt.UnixMilli(), rec.Size, rec.Data,
	)
	if err != nil {
		return fmt.Errorf("recording: insert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_name, stadium, started_at, stopped_at, size FROM recordings ORDER BY stopped_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recording: list: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var (
			r                Recording
			id               string
			started, stopped int64
		)
		if err := rows.Scan(&id, &r.RoomName, &r.Stadium, &started, &stopped, &r.Size); err != nil {
			return nil, fmt.Errorf("recording: scan: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("recording: bad id %q: %w", id, err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.StoppedAt = time.UnixMilli(stopped).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*Recording, error) {
	r := Recording{ID: id}
	var started, stopped int64
	err := s.db.QueryRowContext(ctx,
		`SELECT room_name, stadium, started_at, stopped_at, size, data FROM recordings WHERE id = ?`,
		id.String(),
	).Scan(&r.RoomName, &r.Stadium, &started, &stopped, &r.Size, &r.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recording: get %s: %w", id, err)
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	r.StoppedAt = time.UnixMilli(stopped).UTC()
	return &r, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
