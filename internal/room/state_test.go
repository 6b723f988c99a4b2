package room

import (
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

func TestEnqueueBackpressure(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	r := &Room{log: log, out: make(chan Envelope, 1), done: make(chan struct{})}

	assert.NoError(t, r.SendChat("one", nil))
	assert.ErrorIs(t, r.SendChat("two", nil), ErrBackpressure)
	assert.True(t, IsRetryable(ErrBackpressure))
	assert.Equal(t, "command queue full, dropping", hook.LastEntry().Message)

	close(r.done)
	assert.ErrorIs(t, r.SendChat("three", nil), ErrClosed)
}

func TestMirrorKeepsIdentityOnUpdates(t *testing.T) {
	m := newMirror()
	m.apply(events.PlayerJoin{Player: models.Player{ID: 3, Name: "ana", Auth: "a-key", Conn: "C0FFEE"}})
	m.apply(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 3, Name: "ana", Team: models.Blue}})

	assert.Equal(t, models.Blue, m.players[0].Team)
	assert.Equal(t, "a-key", m.players[0].Auth)
	assert.Equal(t, "C0FFEE", m.players[0].Conn)

	m.playerDiscs[3] = models.DiscProperties{Radius: 15}
	m.inputs[3] = models.InputLeft
	m.apply(events.PlayerTeamChange{ChangedPlayer: models.Player{ID: 3, Team: models.Spectators}})
	assert.NotContains(t, m.playerDiscs, 3)

	m.apply(events.PlayerLeave{Player: models.Player{ID: 3}})
	assert.Empty(t, m.players)
	assert.NotContains(t, m.inputs, 3)
}

func TestMirrorGameTransitions(t *testing.T) {
	m := newMirror()
	assert.Equal(t, GameStopped, m.game)

	m.apply(events.GameStart{})
	assert.Equal(t, GameRunning, m.game)
	m.apply(events.GamePause{})
	assert.Equal(t, GamePaused, m.game)
	m.apply(events.GameUnpause{})
	assert.Equal(t, GameRunning, m.game)

	m.scores = &models.Scores{Red: 1}
	m.apply(events.TeamVictory{Scores: models.Scores{Red: 3, Blue: 1}})
	assert.Equal(t, 3, m.scores.Red)

	m.apply(events.GameStop{})
	assert.Equal(t, GameStopped, m.game)
	assert.Nil(t, m.scores)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
