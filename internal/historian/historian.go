// Package historian drains the room event queue into durable storage.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/cache"
)

// Sink persists batches of event records. Writing a record twice must be
// harmless.
type Sink interface {
	WriteEvents(ctx context.Context, recs []cache.EventRecord) error
}

// Historian pops event records from a Redis list and writes them to a Sink
// in batches.
type Historian struct {
	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration

	rdb   *redis.Client
	queue string
	sink  Sink
	log   logrus.FieldLogger

	batchMu sync.Mutex
	batch   []cache.EventRecord
}

func New(rdb *redis.Client, queue string, sink Sink, log logrus.FieldLogger) *Historian {
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Historian{
		BatchSize:  20,
		FlushDelay: 500 * time.Millisecond,
		PopTimeout: 3 * time.Second,
		rdb:        rdb,
		queue:      queue,
		sink:       sink,
		log:        log.WithField("component", "historian"),
	}
}

// Run consumes the queue until ctx is done, then flushes what it holds.
func (h *Historian) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.FlushDelay)
	defer ticker.Stop()
	h.log.WithField("queue", h.queue).Info("historian started")

	for {
		select {
		case <-ctx.Done():
			h.flush()
			h.log.Info("historian stopped")
			return nil

		case <-ticker.C:
			h.flush()

		default:
			res, err := h.rdb.BLPop(ctx, h.PopTimeout, h.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					h.log.WithError(err).Error("BLPop failed")
					time.Sleep(h.FlushDelay)
				}
				continue
			}
			// res[0] is the queue name and res[1] the payload.
			if len(res) < 2 {
				continue
			}
			var rec cache.EventRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				h.log.WithError(err).Warn("invalid event record")
				continue
			}
			h.append(rec)
		}
	}
}

func (h *Historian) append(rec cache.EventRecord) {
	h.batchMu.Lock()
	h.batch = append(h.batch, rec)
	full := len(h.batch) >= h.BatchSize
	h.batchMu.Unlock()
	if full {
		h.flush()
	}
}

func (h *Historian) flush() {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	batch := h.batch
	h.batch = nil
	h.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.sink.WriteEvents(ctx, batch); err != nil {
		h.log.WithError(err).WithField("count", len(batch)).Error("failed to flush events")
		return
	}
	h.log.WithField("count", len(batch)).Debug("flushed events")
}
