package historian

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jason-s-yu/hbroom/internal/cache"
	"github.com/jason-s-yu/hbroom/internal/events"
)

// PostgresSink writes to the room_events table.
type PostgresSink struct {
	pool *pgxpool.Pool
}

func NewPostgresSink(ctx context.Context, pool *pgxpool.Pool) (*PostgresSink, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS room_events (
			room_id UUID NOT NULL,
			idx BIGINT NOT NULL,
			kind TEXT NOT NULL,
			payload JSONB NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (room_id, idx)
		);
		CREATE INDEX IF NOT EXISTS idx_room_events_kind ON room_events (kind);
	`)
	if err != nil {
		return nil, fmt.Errorf("historian: migration failed: %w", err)
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) WriteEvents(ctx context.Context, recs []cache.EventRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO room_events (room_id, idx, kind, payload, ts)
			VALUES ($1, $2, $3, $4, to_timestamp($5 / 1000.0))
			ON CONFLICT (room_id, idx) DO NOTHING
		`
		for _, rec := range recs {
			if _, err := tx.Exec(ctx, q, rec.RoomID, rec.Index, string(rec.Kind), []byte(rec.Payload), rec.Timestamp); err != nil {
				return fmt.Errorf("insert event %d: %w", rec.Index, err)
			}
		}
		return nil
	})
}

// SQLiteSink writes to a room_events table in a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

func NewSQLiteSink(db *sql.DB) (*SQLiteSink, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS room_events (
			room_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			ts INTEGER NOT NULL,
			PRIMARY KEY (room_id, idx)
		);
		CREATE INDEX IF NOT EXISTS idx_room_events_kind ON room_events(kind);
	`)
	if err != nil {
		return nil, fmt.Errorf("historian: migration failed: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) WriteEvents(ctx context.Context, recs []cache.EventRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO room_events (room_id, idx, kind, payload, ts) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.RoomID.String(), rec.Index, string(rec.Kind), string(rec.Payload), rec.Timestamp); err != nil {
			return fmt.Errorf("insert event %d: %w", rec.Index, err)
		}
	}
	return tx.Commit()
}

// Events returns the stored events of a room in order.
func (s *SQLiteSink) Events(ctx context.Context, roomID uuid.UUID) ([]cache.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, kind, payload, ts FROM room_events WHERE room_id = ? ORDER BY idx`, roomID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cache.EventRecord
	for rows.Next() {
		rec := cache.EventRecord{RoomID: roomID}
		var kind, payload string
		if err := rows.Scan(&rec.Index, &kind, &payload, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Kind = events.Kind(kind)
		rec.Payload = json.RawMessage(payload)
		out = append(out, rec)
	}
	return out, rows.Err()
}
