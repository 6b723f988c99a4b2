package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Store persists ratings by auth key. Get returns nil for an unknown player.
type Store interface {
	Get(ctx context.Context, auth string) (*Rating, error)
	Save(ctx context.Context, rs []Rating) error
	Top(ctx context.Context, limit int) ([]Rating, error)
}

// MemoryStore keeps ratings for the life of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	ratings map[string]Rating
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ratings: make(map[string]Rating)}
}

func (s *MemoryStore) Get(_ context.Context, auth string) (*Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[auth]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) Save(_ context.Context, rs []Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		s.ratings[r.Auth] = r
	}
	return nil
}

func (s *MemoryStore) Top(_ context.Context, limit int) ([]Rating, error) {
	s.mu.RLock()
	out := make([]Rating, 0, len(s.ratings))
	for _, r := range s.ratings {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Auth < out[j].Auth
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SQLStore keeps ratings in the player_ratings table of a SQLite database.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS player_ratings (
			auth TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			rating REAL NOT NULL,
			rd REAL NOT NULL,
			sigma REAL NOT NULL,
			games INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_player_ratings_rating ON player_ratings(rating DESC);
	`)
	if err != nil {
		return nil, fmt.Errorf("rating: migration failed: %w", err)
	}
	return &SQLStore{db: db}, nil
}

const ratingColumns = `auth, name, rating, rd, sigma, games, wins, updated_at`

func (s *SQLStore) Get(ctx context.Context, auth string) (*Rating, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ratingColumns+` FROM player_ratings WHERE auth = ?`, auth)
	r, err := scanRating(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rating: get %s: %w", auth, err)
	}
	return &r, nil
}

func (s *SQLStore) Save(ctx context.Context, rs []Rating) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range rs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO player_ratings (`+ratingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(auth) DO UPDATE SET
				name = excluded.name, rating = excluded.rating, rd = excluded.rd,
				sigma = excluded.sigma, games = excluded.games, wins = excluded.wins,
				updated_at = excluded.updated_at`,
			r.Auth, r.Name, r.Rating, r.RD, r.Sigma, r.Games, r.Wins, r.UpdatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("rating: save %s: %w", r.Auth, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Top(ctx context.Context, limit int) ([]Rating, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ratingColumns+` FROM player_ratings ORDER BY rating DESC, auth LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRating(sc scanner) (Rating, error) {
	var r Rating
	var updated int64
	err := sc.Scan(&r.Auth, &r.Name, &r.Rating, &r.RD, &r.Sigma, &r.Games, &r.Wins, &updated)
	r.UpdatedAt = time.UnixMilli(updated).UTC()
	return r, err
}
