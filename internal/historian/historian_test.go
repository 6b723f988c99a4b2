package historian

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/cache"
	"github.com/jason-s-yu/hbroom/internal/database"
	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

func newSink(t *testing.T) *SQLiteSink {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sink, err := NewSQLiteSink(db)
	require.NoError(t, err)
	return sink
}

func TestSQLiteSinkIgnoresDuplicates(t *testing.T) {
	sink := newSink(t)
	ctx := context.Background()
	roomID := uuid.New()
	recs := []cache.EventRecord{
		{RoomID: roomID, Index: 0, Kind: events.KindGameStart, Payload: json.RawMessage(`{}`), Timestamp: 1},
		{RoomID: roomID, Index: 1, Kind: events.KindGameStop, Payload: json.RawMessage(`{}`), Timestamp: 2},
	}
	require.NoError(t, sink.WriteEvents(ctx, recs))
	require.NoError(t, sink.WriteEvents(ctx, recs[1:]))

	got, err := sink.Events(ctx, roomID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, events.KindGameStart, got[0].Kind)
	assert.Equal(t, events.KindGameStop, got[1].Kind)

	other, err := sink.Events(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistorianDrainsQueue(t *testing.T) {
	m := miniredis.RunT(t)
	rdb, err := cache.Connect(context.Background(), m.Addr(), 0)
	require.NoError(t, err)
	defer rdb.Close()

	log, _ := logtest.NewNullLogger()
	roomID := uuid.New()
	pub := cache.NewPublisher(rdb, roomID, "", log)
	reg := events.NewRegistry()
	pub.Attach(reg)

	sink := newSink(t)
	h := New(rdb, "", sink, log)
	h.BatchSize = 2
	h.FlushDelay = 20 * time.Millisecond
	h.PopTimeout = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 1, Name: "ana"}})
	reg.Dispatch(events.GameStart{})
	reg.Dispatch(events.PlayerLeave{Player: models.Player{ID: 1, Name: "ana"}})

	require.Eventually(t, func() bool {
		got, err := sink.Events(context.Background(), roomID)
		return err == nil && len(got) == 3
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("historian did not stop")
	}

	got, err := sink.Events(context.Background(), roomID)
	require.NoError(t, err)
	assert.Equal(t, events.KindPlayerJoin, got[0].Kind)
	assert.Equal(t, int64(2), got[2].Index)
	pub.Close()
}

func TestHistorianSkipsGarbage(t *testing.T) {
	m := miniredis.RunT(t)
	rdb, err := cache.Connect(context.Background(), m.Addr(), 0)
	require.NoError(t, err)
	defer rdb.Close()

	log, hook := logtest.NewNullLogger()
	sink := newSink(t)
	h := New(rdb, "q", sink, log)
	h.FlushDelay = 20 * time.Millisecond
	h.PopTimeout = 50 * time.Millisecond

	roomID := uuid.New()
	rec, err := json.Marshal(cache.EventRecord{RoomID: roomID, Kind: events.KindGameStop, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	_, err = m.RPush("q", "not json", string(rec))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := sink.Events(context.Background(), roomID)
		return err == nil && len(got) == 1
	}, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Message == "invalid event record" {
			warned = true
		}
	}
	assert.True(t, warned)
}
