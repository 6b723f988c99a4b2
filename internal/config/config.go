// Package config assembles the daemon's settings from the environment, an
// optional .env file and an optional YAML room file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/room"
)

// Config is everything the daemon reads at startup.
type Config struct {
	Env       string
	BridgeURL string
	Token     string
	Proxy     string
	WebRTC    string
	RoomFile  string
	LogLevel  logrus.Level

	AdminAddr      string
	AdminKey       string
	TokenExpire    time.Duration
	AllowedOrigins []string

	DatabaseURL string
	SQLitePath  string

	RedisAddr  string
	RedisDB    int
	EventQueue string

	// Room is the parsed room file, zero when RoomFile is empty.
	Room RoomFile
}

var ErrMissingToken = errors.New("config: no headless token (set HB_HEADLESS_TOKEN or token in the room file)")

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads .env (if present), the process environment and the room file.
func Load(dotenv ...string) (Config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup and loads the room file it names.
func FromEnv(lookup LookupFunc) (Config, error) {
	e := env(lookup)
	cfg := Config{
		Env:         e.get("HB_ENV", "development"),
		BridgeURL:   e.get("HB_BRIDGE_URL", "ws://localhost:8700/bridge"),
		Token:       e.get("HB_HEADLESS_TOKEN", ""),
		Proxy:       e.get("HB_PROXY", ""),
		WebRTC:      e.get("HB_WEBRTC", ""),
		RoomFile:    e.get("HB_ROOM_FILE", ""),
		AdminAddr:   e.get("HB_ADMIN_ADDR", ":8080"),
		AdminKey:    e.get("HB_ADMIN_KEY", ""),
		DatabaseURL: e.get("DATABASE_URL", ""),
		SQLitePath:  e.get("HB_SQLITE_PATH", ""),
		RedisAddr:   e.get("REDIS_ADDR", ""),
		EventQueue:  e.get("HB_EVENT_QUEUE", "hbroom_events"),
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(e.get("HB_LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("config: HB_LOG_LEVEL: %w", err)
	}
	if cfg.RedisDB, err = e.getInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.TokenExpire, err = parseExpire(e.get("TOKEN_EXPIRE_TIME", "24h")); err != nil {
		return Config{}, err
	}

	if origins := e.get("HB_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.RoomFile != "" {
		if cfg.Room, err = LoadRoomFile(cfg.RoomFile); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Production reports whether HB_ENV is "production".
func (c Config) Production() bool { return c.Env == "production" }

// RoomConfig merges the room file with the environment. The environment wins.
func (c Config) RoomConfig() room.RoomConfig {
	rc := c.Room.Room
	if c.Token != "" {
		rc.Token = c.Token
	}
	if rc.RoomName == "" {
		rc.RoomName = "hbroom"
	}
	return rc
}

func (c Config) RoomEnv() room.Env {
	return room.Env{Proxy: c.Proxy, WebRTC: c.WebRTC}
}

// Validate checks what the daemon cannot start without.
func (c Config) Validate() error {
	if c.BridgeURL == "" {
		return errors.New("config: HB_BRIDGE_URL is empty")
	}
	if c.RoomConfig().Token == "" {
		return ErrMissingToken
	}
	return nil
}

// NewLogger returns a logger at the configured level. Production uses JSON.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.Production() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// parseExpire reads a duration; "never" and "0" mean tokens do not expire.
func parseExpire(v string) (time.Duration, error) {
	if v == "never" || v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: TOKEN_EXPIRE_TIME: %w", err)
	}
	return d, nil
}

type env LookupFunc

// get reads an environment variable or returns a default value.
func (e env) get(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

// getInt parses an environment variable as an integer, else a default value.
func (e env) getInt(key string, def int) (int, error) {
	s := e.get(key, "")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
