// Package cache fans room events out to a Redis list and keeps the current
// room link under a TTL key, for services that watch the room from outside.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
)

// DefaultQueueName is the Redis list events are pushed to.
const DefaultQueueName = "hbroom_events"

// DefaultLinkTTL bounds how long a link survives if the daemon dies without
// clearing it.
const DefaultLinkTTL = 6 * time.Hour

// EventRecord is one queued room event.
type EventRecord struct {
	RoomID    uuid.UUID       `json:"room_id"`
	Index     int64           `json:"index"`
	Kind      events.Kind     `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Connect returns a client for addr after a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// LinkKey is where the link of room id is stored.
func LinkKey(id uuid.UUID) string {
	return "hbroom:link:" + id.String()
}

// Publisher pushes events from a registry to Redis on a worker goroutine, so
// a slow Redis never stalls event dispatch.
type Publisher struct {
	rdb     *redis.Client
	roomID  uuid.UUID
	queue   string
	linkTTL time.Duration
	log     logrus.FieldLogger

	index   atomic.Int64
	records chan EventRecord
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(rdb *redis.Client, roomID uuid.UUID, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Publisher{
		rdb:     rdb,
		roomID:  roomID,
		queue:   queue,
		linkTTL: DefaultLinkTTL,
		log:     log.WithField("component", "publisher"),
		records: make(chan EventRecord, 1024),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// Attach publishes every event except game ticks.
func (p *Publisher) Attach(reg *events.Registry) (detach func()) {
	return reg.SubscribeAll(func(ev events.Event) bool {
		p.Publish(ev)
		return false
	}, events.KindGameTick)
}

// Publish queues ev. When the buffer is full the event is dropped.
func (p *Publisher) Publish(ev events.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.WithError(err).WithField("kind", ev.Kind()).Error("failed to marshal event")
		return
	}
	rec := EventRecord{
		RoomID:    p.roomID,
		Index:     p.index.Add(1) - 1,
		Kind:      ev.Kind(),
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.records <- rec:
	default:
		p.log.WithField("kind", rec.Kind).Warn("event queue full, dropping")
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for rec := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.push(ctx, rec); err != nil {
			p.log.WithError(err).WithField("kind", rec.Kind).Error("failed to publish event")
		}
		cancel()
	}
}

func (p *Publisher) push(ctx context.Context, rec EventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal EventRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	if rec.Kind == events.KindRoomLink {
		var link events.RoomLink
		if err := json.Unmarshal(rec.Payload, &link); err != nil {
			return err
		}
		return p.StoreLink(ctx, link.URL)
	}
	return nil
}

// StoreLink records the room link with the publisher's TTL.
func (p *Publisher) StoreLink(ctx context.Context, url string) error {
	return p.rdb.Set(ctx, LinkKey(p.roomID), url, p.linkTTL).Err()
}

// Link reads the stored link; empty when none is stored.
func (p *Publisher) Link(ctx context.Context) (string, error) {
	url, err := p.rdb.Get(ctx, LinkKey(p.roomID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return url, err
}

// Close flushes queued events and removes the link.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.records)
	p.mu.Unlock()
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.rdb.Del(ctx, LinkKey(p.roomID)).Err()
}
