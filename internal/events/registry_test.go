package events

import (
	"encoding/json"
	"sync"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/models"
)

func TestDispatchRunsHandlersInOrder(t *testing.T) {
	r := NewRegistry()
	var calls []string
	On(r, func(ev PlayerJoin) { calls = append(calls, "first:"+ev.Player.Name) })
	On(r, func(ev PlayerJoin) { calls = append(calls, "second:"+ev.Player.Name) })
	On(r, func(ev PlayerLeave) { calls = append(calls, "leave") })

	r.Dispatch(PlayerJoin{Player: models.Player{ID: 1, Name: "ana"}})
	assert.Equal(t, []string{"first:ana", "second:ana"}, calls)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	r := NewRegistry()
	n := 0
	unsub := On(r, func(GameTick) { n++ })
	other := On(r, func(GameTick) { n += 10 })

	r.Dispatch(GameTick{})
	unsub()
	unsub()
	r.Dispatch(GameTick{})

	assert.Equal(t, 21, n)
	assert.Equal(t, 1, r.Count(KindGameTick))
	other()
	assert.Equal(t, 0, r.Count(KindGameTick))
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	r := NewRegistry()
	var calls []int
	var unsubSecond func()
	On(r, func(GameTick) {
		calls = append(calls, 1)
		unsubSecond()
	})
	unsubSecond = On(r, func(GameTick) { calls = append(calls, 2) })

	r.Dispatch(GameTick{})
	r.Dispatch(GameTick{})
	assert.Equal(t, []int{1, 2, 1}, calls)
}

func TestChatSuppression(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Dispatch(PlayerChat{Message: "hi"}))

	OnPlayerChat(r, func(PlayerChat) bool { return false })
	assert.False(t, r.Dispatch(PlayerChat{Message: "hi"}))

	seen := 0
	OnPlayerChat(r, func(c PlayerChat) bool { return c.Message == "!secret" })
	OnPlayerChat(r, func(PlayerChat) bool { seen++; return false })
	assert.True(t, r.Dispatch(PlayerChat{Message: "!secret"}))
	assert.Equal(t, 1, seen, "handlers after a suppressing one still run")
}

func TestPanickingHandlerDoesNotStopDispatch(t *testing.T) {
	r := NewRegistry()
	ran := false
	On(r, func(GameStart) { panic("boom") })
	On(r, func(GameStart) { ran = true })

	assert.NotPanics(t, func() { r.Dispatch(GameStart{}) })
	assert.True(t, ran)
}

func TestSetLoggerWhileDispatching(t *testing.T) {
	r := NewRegistry()
	On(r, func(GameStart) { panic("boom") })

	log, hook := logtest.NewNullLogger()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.Dispatch(GameStart{})
		}
	}()
	r.SetLogger(log)
	wg.Wait()

	r.Dispatch(GameStart{})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "event handler panicked", hook.LastEntry().Message)
}

func TestSubscribeAllExcept(t *testing.T) {
	r := NewRegistry()
	var kinds []Kind
	unsub := r.SubscribeAll(func(ev Event) bool {
		kinds = append(kinds, ev.Kind())
		return false
	}, KindGameTick)

	r.Dispatch(GameTick{})
	r.Dispatch(TeamGoal{Team: models.Red})
	unsub()
	r.Dispatch(TeamGoal{Team: models.Blue})
	assert.Equal(t, []Kind{KindTeamGoal}, kinds)
}

func TestDecode(t *testing.T) {
	ev, err := Decode(KindPlayerKicked, json.RawMessage(`{"kickedPlayer":{"id":3,"name":"x","team":1,"admin":false,"position":null},"reason":"afk","ban":true,"byPlayer":null}`))
	require.NoError(t, err)
	kicked, ok := ev.(PlayerKicked)
	require.True(t, ok)
	assert.Equal(t, 3, kicked.KickedPlayer.ID)
	assert.Equal(t, models.Red, kicked.KickedPlayer.Team)
	assert.True(t, kicked.Ban)
	assert.Nil(t, kicked.ByPlayer)

	ev, err = Decode(KindGameTick, nil)
	require.NoError(t, err)
	assert.Equal(t, GameTick{}, ev)

	_, err = Decode("playerDance", nil)
	assert.Error(t, err)
	_, err = Decode(KindRoomLink, json.RawMessage(`{"url":5}`))
	assert.Error(t, err)
}

func TestEveryKindDecodes(t *testing.T) {
	for _, k := range Kinds {
		ev, err := Decode(k, json.RawMessage(`{}`))
		require.NoError(t, err, k)
		assert.Equal(t, k, ev.Kind())
	}
}
