// Package recording captures room sessions and keeps them in a Store.
package recording

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("recording: not found")

// Recording is one stopped session. Data is only populated by Store.Get.
type Recording struct {
	ID        uuid.UUID `json:"id"`
	RoomName  string    `json:"roomName"`
	Stadium   string    `json:"stadium"`
	StartedAt time.Time `json:"startedAt"`
	StoppedAt time.Time `json:"stoppedAt"`
	Size      int       `json:"size"`
	Data      []byte    `json:"-"`
}

// Store persists recordings.
type Store interface {
	Save(ctx context.Context, rec *Recording) error
	// List returns the newest recordings first, without their data.
	List(ctx context.Context, limit int) ([]Recording, error)
	Get(ctx context.Context, id uuid.UUID) (*Recording, error)
	Close() error
}
