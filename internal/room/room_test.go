package room_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/hosttest"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
)

const wait = 5 * time.Second

func testConfig() room.RoomConfig {
	public := false
	return room.RoomConfig{
		RoomName:   "hbroom test",
		PlayerName: "host",
		MaxPlayers: 12,
		Public:     &public,
		Token:      "thr1.test-token",
		NoPlayer:   true,
	}
}

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func start(t *testing.T, host *hosttest.Server, reg *events.Registry) *room.Room {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	r, err := room.Init(ctx, testConfig(), room.Options{BridgeURL: host.URL, Events: reg, Logger: quietLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	select {
	case <-r.Linked():
	case <-time.After(wait):
		t.Fatal("room never linked")
	}
	require.Eventually(t, func() bool { return r.State() == room.StateActive }, wait, 10*time.Millisecond)
	return r
}

func TestInitLinksOnce(t *testing.T) {
	host := hosttest.New(t)
	reg := events.NewRegistry()
	links := make(chan string, 4)
	events.On(reg, func(ev events.RoomLink) { links <- ev.URL })

	r := start(t, host, reg)

	url := <-links
	assert.True(t, strings.HasPrefix(url, hosttest.LinkPrefix), url)
	assert.Equal(t, url, r.Link())
	assert.Equal(t, room.GameStopped, r.GameState())
	assert.Equal(t, models.DefaultCollisionFlags, r.CollisionFlags())

	require.NoError(t, r.Close())
	select {
	case extra := <-links:
		t.Fatalf("roomLink fired twice: %s", extra)
	default:
	}
}

func TestInitSendsConfigAndEnv(t *testing.T) {
	host := hosttest.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	r, err := room.Init(ctx, testConfig(), room.Options{
		BridgeURL: host.URL,
		Env:       room.Env{Proxy: "ws://relay.example:9000", WebRTC: "node-datachannel"},
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	defer r.Close()

	got := host.Config()
	assert.Equal(t, "hbroom test", got.RoomName)
	assert.Equal(t, 12, got.MaxPlayers)
	require.NotNil(t, got.Public)
	assert.False(t, *got.Public)
	assert.Nil(t, got.Geo)
	assert.Equal(t, room.Env{Proxy: "ws://relay.example:9000", WebRTC: "node-datachannel"}, host.Env())
}

func TestInitRejectsBadToken(t *testing.T) {
	host := hosttest.New(t)
	reg := events.NewRegistry()
	linked := make(chan struct{}, 1)
	events.On(reg, func(events.RoomLink) { linked <- struct{}{} })

	cfg := testConfig()
	cfg.Token = "expired"
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	r, err := room.Init(ctx, cfg, room.Options{BridgeURL: host.URL, Events: reg, Logger: quietLogger()})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, room.ErrUnauthorized)
	assert.False(t, room.IsRetryable(err))
	assert.Empty(t, linked)

	var hostErr *room.HostError
	require.True(t, errors.As(err, &hostErr))
	assert.Equal(t, room.CodeUnauthorized, hostErr.Code)
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	host := hosttest.New(t)
	cfg := testConfig()
	cfg.RoomName = ""
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	_, err := room.Init(ctx, cfg, room.Options{BridgeURL: host.URL, Logger: quietLogger()})
	assert.ErrorIs(t, err, room.ErrInvalidConfig)
	assert.False(t, room.IsRetryable(err))
}

func TestInitUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	_, err := room.Init(ctx, testConfig(), room.Options{BridgeURL: "ws://127.0.0.1:1", Logger: quietLogger()})
	assert.ErrorIs(t, err, room.ErrUnreachable)
	assert.True(t, room.IsRetryable(err))
}

func TestAbsentEntitiesAreNil(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)

	assert.Nil(t, r.GetPlayer(99))
	assert.Empty(t, r.GetPlayerList())
	assert.Nil(t, r.GetScores())
	assert.Nil(t, r.GetBallPosition())
	assert.Nil(t, r.GetDiscProperties(0))
	assert.Nil(t, r.GetPlayerDiscProperties(99))
	assert.Equal(t, 0, r.GetDiscCount())
	_, ok := r.GetPlayerInput(99)
	assert.False(t, ok)
}

func TestPartialDiscUpdate(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)

	require.NoError(t, r.StartGame())
	require.Eventually(t, func() bool { return r.GetDiscCount() == 1 }, wait, 10*time.Millisecond)
	assert.Equal(t, room.GameRunning, r.GameState())
	assert.Equal(t, &models.Position{}, r.GetBallPosition())
	require.NotNil(t, r.GetScores())

	require.NoError(t, r.SetDiscProperties(0, models.DiscPropertiesUpdate{X: models.Float(5)}))
	require.Eventually(t, func() bool {
		d := r.GetDiscProperties(0)
		return d != nil && d.X == 5
	}, wait, 10*time.Millisecond)

	want := hosttest.Ball
	want.X = 5
	assert.Equal(t, &want, r.GetDiscProperties(0))
	assert.Equal(t, &models.Position{X: 5}, r.GetBallPosition())
}

func TestPlayerLifecycle(t *testing.T) {
	host := hosttest.New(t)
	reg := events.NewRegistry()
	kicked := make(chan events.PlayerKicked, 1)
	events.On(reg, func(ev events.PlayerKicked) { kicked <- ev })
	r := start(t, host, reg)

	ana := host.Join("ana")
	require.Eventually(t, func() bool { return r.GetPlayer(ana.ID) != nil }, wait, 10*time.Millisecond)
	assert.Equal(t, models.Spectators, r.GetPlayer(ana.ID).Team)
	assert.Nil(t, r.GetPlayer(ana.ID).Position)

	require.NoError(t, r.SetPlayerTeam(ana.ID, models.Red))
	require.NoError(t, r.SetPlayerAdmin(ana.ID, true))
	require.Eventually(t, func() bool {
		p := r.GetPlayer(ana.ID)
		return p != nil && p.Team == models.Red && p.Admin
	}, wait, 10*time.Millisecond)

	require.NoError(t, r.StartGame())
	require.Eventually(t, func() bool { return r.GetPlayerDiscProperties(ana.ID) != nil }, wait, 10*time.Millisecond)
	require.NotNil(t, r.GetPlayer(ana.ID).Position)

	host.Input(ana.ID, models.InputKick|models.InputUp)
	require.Eventually(t, func() bool {
		in, ok := r.GetPlayerInput(ana.ID)
		return ok && in.Has(models.InputKick)
	}, wait, 10*time.Millisecond)

	require.NoError(t, r.KickPlayer(ana.ID, "afk", false))
	select {
	case ev := <-kicked:
		assert.Equal(t, ana.ID, ev.KickedPlayer.ID)
		assert.Equal(t, "afk", ev.Reason)
		assert.Nil(t, ev.ByPlayer)
	case <-time.After(wait):
		t.Fatal("no playerKicked event")
	}
	require.Eventually(t, func() bool { return r.GetPlayer(ana.ID) == nil }, wait, 10*time.Millisecond)
	assert.Nil(t, r.GetPlayerDiscProperties(ana.ID))
}

func TestGameSubState(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)

	require.NoError(t, r.StartGame())
	require.Eventually(t, func() bool { return r.GameState() == room.GameRunning }, wait, 10*time.Millisecond)
	require.NoError(t, r.PauseGame(true))
	require.Eventually(t, func() bool { return r.GameState() == room.GamePaused }, wait, 10*time.Millisecond)
	require.NoError(t, r.PauseGame(false))
	require.Eventually(t, func() bool { return r.GameState() == room.GameRunning }, wait, 10*time.Millisecond)
	require.NoError(t, r.StopGame())
	require.Eventually(t, func() bool { return r.GameState() == room.GameStopped }, wait, 10*time.Millisecond)
	assert.Nil(t, r.GetScores())
	assert.Nil(t, r.GetBallPosition())
}

func TestChatSuppression(t *testing.T) {
	host := hosttest.New(t)
	reg := events.NewRegistry()
	seen := make(chan string, 2)
	events.OnPlayerChat(reg, func(ev events.PlayerChat) bool {
		seen <- ev.Message
		return false
	})
	events.OnPlayerChat(reg, func(ev events.PlayerChat) bool {
		return strings.HasPrefix(ev.Message, "!")
	})
	r := start(t, host, reg)
	ana := host.Join("ana")
	require.Eventually(t, func() bool { return r.GetPlayer(ana.ID) != nil }, wait, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	suppressed, err := host.Chat(ctx, ana.ID, "!help")
	require.NoError(t, err)
	assert.True(t, suppressed)

	suppressed, err = host.Chat(ctx, ana.ID, "gg")
	require.NoError(t, err)
	assert.False(t, suppressed)

	assert.Equal(t, "!help", <-seen)
	assert.Equal(t, "gg", <-seen)
}

func TestRecording(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	blob, err := r.StopRecording(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, r.StartRecording())
	require.NoError(t, r.StartRecording())
	blob, err = r.StopRecording(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(blob), hosttest.RecordingHeader), string(blob))
	assert.False(t, host.Recording())

	blob, err = r.StopRecording(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestCommandsReachHost(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	require.NoError(t, r.SetPassword(""))
	cmd, err := host.WaitCommand(ctx, "setPassword")
	require.NoError(t, err)
	assert.JSONEq(t, "null", string(cmd.Args[0]))

	color := 0xFF0000
	require.NoError(t, r.SendAnnouncement(room.Announcement{Message: "welcome", Color: &color, Style: room.StyleBold}))
	cmd, err = host.WaitCommand(ctx, "sendAnnouncement")
	require.NoError(t, err)
	require.Len(t, cmd.Args, 5)
	var msg string
	require.NoError(t, cmd.Arg(0, &msg))
	assert.Equal(t, "welcome", msg)
	assert.JSONEq(t, "null", string(cmd.Args[1]))
	assert.JSONEq(t, "16711680", string(cmd.Args[2]))
	assert.JSONEq(t, `"bold"`, string(cmd.Args[3]))

	require.NoError(t, r.SetDefaultStadium("Big"))
	require.Eventually(t, func() bool { return host.StadiumName() == "Big" }, wait, 10*time.Millisecond)
}

func TestCloseIsTerminal(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)
	host.Join("ana")
	require.Eventually(t, func() bool { return len(r.GetPlayerList()) == 1 }, wait, 10*time.Millisecond)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	<-r.Done()
	assert.Equal(t, room.StateClosed, r.State())
	assert.NoError(t, r.Err())
	assert.Empty(t, r.GetPlayerList())
	assert.ErrorIs(t, r.SendChat("hi", nil), room.ErrClosed)

	_, err := r.StopRecording(context.Background())
	assert.ErrorIs(t, err, room.ErrClosed)
}

func TestHostDisconnectClosesRoom(t *testing.T) {
	host := hosttest.New(t)
	r := start(t, host, nil)

	host.Disconnect()
	select {
	case <-r.Done():
	case <-time.After(wait):
		t.Fatal("room did not notice the bridge going away")
	}
	assert.Equal(t, room.StateClosed, r.State())
	assert.ErrorIs(t, r.Err(), room.ErrUnreachable)
}
