package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

func TestConnect(t *testing.T) {
	m := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), m.Addr(), 0)
	require.NoError(t, err)
	defer rdb.Close()

	_, err = Connect(context.Background(), "127.0.0.1:1", 0)
	assert.Error(t, err)
}

func TestPublisherPushesEvents(t *testing.T) {
	m := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), m.Addr(), 0)
	require.NoError(t, err)
	defer rdb.Close()

	log, _ := logtest.NewNullLogger()
	roomID := uuid.New()
	p := NewPublisher(rdb, roomID, "", log)
	reg := events.NewRegistry()
	p.Attach(reg)

	reg.Dispatch(events.RoomLink{URL: "https://www.haxball.com/play?c=abc"})
	reg.Dispatch(events.GameTick{})
	reg.Dispatch(events.PlayerJoin{Player: models.Player{ID: 4, Name: "ana"}})

	require.Eventually(t, func() bool {
		items, _ := m.List(DefaultQueueName)
		return len(items) == 2
	}, 2*time.Second, 10*time.Millisecond)

	items, err := m.List(DefaultQueueName)
	require.NoError(t, err)
	var first, second EventRecord
	require.NoError(t, json.Unmarshal([]byte(items[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(items[1]), &second))
	assert.Equal(t, events.KindRoomLink, first.Kind)
	assert.Equal(t, int64(0), first.Index)
	assert.Equal(t, roomID, first.RoomID)
	assert.Equal(t, events.KindPlayerJoin, second.Kind)
	assert.Equal(t, int64(1), second.Index)
	assert.JSONEq(t, `"ana"`, string(mustField(t, second.Payload, "player", "name")))

	link, err := p.Link(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.haxball.com/play?c=abc", link)
	assert.Equal(t, DefaultLinkTTL, m.TTL(LinkKey(roomID)))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.False(t, m.Exists(LinkKey(roomID)))

	p.Publish(events.GameStart{})
	items, _ = m.List(DefaultQueueName)
	assert.Len(t, items, 2)
}

func TestLinkAbsent(t *testing.T) {
	m := miniredis.RunT(t)
	rdb, err := Connect(context.Background(), m.Addr(), 0)
	require.NoError(t, err)
	defer rdb.Close()

	p := NewPublisher(rdb, uuid.New(), "custom_queue", nil)
	defer p.Close()
	link, err := p.Link(context.Background())
	require.NoError(t, err)
	assert.Empty(t, link)
}

func mustField(t *testing.T, raw json.RawMessage, path ...string) json.RawMessage {
	t.Helper()
	for _, key := range path {
		var obj map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &obj))
		raw = obj[key]
	}
	return raw
}
