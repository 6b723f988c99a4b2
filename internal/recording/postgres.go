package recording

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps recordings in a recordings table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool and creates the schema if needed. The store
// owns the pool from then on.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("recording: migration failed: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS recordings (
			id UUID PRIMARY KEY,
			room_name TEXT NOT NULL,
			stadium TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			stopped_at TIMESTAMPTZ NOT NULL,
			size INTEGER NOT NULL,
			data BYTEA NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_recordings_stopped_at ON recordings (stopped_at DESC);
	`)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, rec *Recording) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Size = len(rec.Data)
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO recordings (id, room_name, stadium, started_at, stopped_at, size, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, q, rec.ID, rec.RoomName, rec.Stadium, rec.StartedAt, rec.StoppedAt, rec.Size, rec.Data)
		return err
	})
	if err != nil {
		return fmt.Errorf("recording: insert %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Recording, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_name, stadium, started_at, stopped_at, size
		FROM recordings
		ORDER BY stopped_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recording: list: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var r Recording
		if err := rows.Scan(&r.ID, &r.RoomName, &r.Stadium, &r.StartedAt, &r.StoppedAt, &r.Size); err != nil {
			return nil, fmt.Errorf("recording: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Recording, error) {
	r := Recording{ID: id}
	err := s.pool.QueryRow(ctx, `
		SELECT room_name, stadium, started_at, stopped_at, size, data
		FROM recordings WHERE id = $1
	`, id).Scan(&r.RoomName, &r.Stadium, &r.StartedAt, &r.StoppedAt, &r.Size, &r.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("recording: get %s: %w", id, err)
	}
	return &r, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
