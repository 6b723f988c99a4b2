package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/hbroom/internal/hosttest"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
)

func lookup(vars map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Production())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpire)
	assert.Equal(t, "hbroom_events", cfg.EventQueue)
	assert.Equal(t, "hbroom", cfg.RoomConfig().RoomName)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"HB_ENV":             "production",
		"HB_HEADLESS_TOKEN":  "thr1.env",
		"HB_PROXY":           "ws://relay:1",
		"HB_WEBRTC":          "node-datachannel",
		"HB_LOG_LEVEL":       "debug",
		"REDIS_DB":           "3",
		"TOKEN_EXPIRE_TIME":  "2h",
		"HB_ALLOWED_ORIGINS": "https://ops.example, ,https://admin.example",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpire)
	assert.Equal(t, []string{"https://ops.example", "https://admin.example"}, cfg.AllowedOrigins)
	assert.Equal(t, room.Env{Proxy: "ws://relay:1", WebRTC: "node-datachannel"}, cfg.RoomEnv())
	assert.Equal(t, "thr1.env", cfg.RoomConfig().Token)
	assert.NoError(t, cfg.Validate())
	assert.IsType(t, &logrus.JSONFormatter{}, cfg.NewLogger().Formatter)
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	_, err := FromEnv(lookup(map[string]string{"HB_LOG_LEVEL": "loud"}))
	assert.Error(t, err)

	_, err = FromEnv(lookup(map[string]string{"REDIS_DB": "zero"}))
	assert.ErrorContains(t, err, "REDIS_DB")

	_, err = FromEnv(lookup(map[string]string{"TOKEN_EXPIRE_TIME": "soon"}))
	assert.ErrorContains(t, err, "TOKEN_EXPIRE_TIME")

	cfg, err := FromEnv(lookup(map[string]string{"TOKEN_EXPIRE_TIME": "never"}))
	require.NoError(t, err)
	assert.Zero(t, cfg.TokenExpire)
}

const roomYAML = `
room:
  roomName: futsal 3v3
  maxPlayers: 12
  public: false
  token: thr1.file
  geo: {code: nl, lat: 52.37, lon: 4.89}
stadium: tiny.yaml
scoreLimit: 3
timeLimit: 5
teamsLock: true
teamColors:
  - team: red
    angle: 60
    text: FFFFFF
    colors: [E56E56, "#C9584A"]
adminPasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"
autoRecord: true
`

func writeRoomFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	stadiumYAML, err := os.ReadFile(filepath.Join("..", "stadium", "testdata", "tiny.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), stadiumYAML, 0o644))
	path := filepath.Join(dir, "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte(roomYAML), 0o644))
	return path
}

func TestLoadRoomFile(t *testing.T) {
	path := writeRoomFile(t)
	cfg, err := FromEnv(lookup(map[string]string{"HB_ROOM_FILE": path}))
	require.NoError(t, err)

	rc := cfg.RoomConfig()
	assert.Equal(t, "futsal 3v3", rc.RoomName)
	assert.Equal(t, "thr1.file", rc.Token)
	require.NotNil(t, rc.Public)
	assert.False(t, *rc.Public)
	assert.Equal(t, &models.Geo{Code: "nl", Lat: 52.37, Lon: 4.89}, rc.Geo)

	f := cfg.Room
	require.NotNil(t, f.TeamsLock)
	assert.True(t, *f.TeamsLock)
	assert.True(t, f.AutoRecord)

	st, err := f.LoadStadium()
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.NotEmpty(t, st.Name)
}

func TestLoadRoomFileRejectsBadColours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte("teamColors:\n  - team: spectators\n"), 0o644))
	_, err := LoadRoomFile(path)
	assert.ErrorContains(t, err, "teamColors[0]")

	require.NoError(t, os.WriteFile(path, []byte("teamColors:\n  - team: blue\n    colors: [XYZ]\n"), 0o644))
	_, err = LoadRoomFile(path)
	assert.ErrorContains(t, err, "bad colour")
}

func TestBootstrap(t *testing.T) {
	host := hosttest.New(t)
	f, err := LoadRoomFile(writeRoomFile(t))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := room.Init(ctx, f.Room, room.Options{BridgeURL: host.URL})
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, f.Bootstrap(r))

	cmd, err := host.WaitCommand(ctx, "setTeamColors")
	require.NoError(t, err)
	assert.JSONEq(t, "1", string(cmd.Args[0]))
	assert.JSONEq(t, "60", string(cmd.Args[1]))
	assert.JSONEq(t, "16777215", string(cmd.Args[2]))
	assert.JSONEq(t, "[15035990, 13195338]", string(cmd.Args[3]))

	var names []string
	for _, c := range host.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"setCustomStadium", "setScoreLimit", "setTimeLimit", "setTeamsLock", "setTeamColors"}, names)
}
