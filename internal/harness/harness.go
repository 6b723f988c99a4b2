// Package harness drives rooms against a live headless bridge from tests.
// Credentials are read once, by the test binary's TestMain, and handed to
// tests as a Config; nothing here reads the environment on its own.
package harness

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jason-s-yu/hbroom/internal/room"
)

// LinkPrefix is how every public room link starts.
const LinkPrefix = "https://www.haxball.com/play?c="

const (
	// DefaultLinkTimeout bounds how long a room may take to link.
	DefaultLinkTimeout = 30 * time.Second

	// DefaultDelay spaces out room creation so the host's rate limit is
	// not tripped.
	DefaultDelay = 2 * time.Second
)

var ErrNoLink = errors.New("harness: room did not link in time")

// Config is the injected test configuration.
type Config struct {
	Token       string
	Proxy       string
	BridgeURL   string
	Delay       time.Duration
	LinkTimeout time.Duration
}

// LookupFunc has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv builds a Config from the CI_* variables, falling back to TEST_*.
func FromEnv(lookup LookupFunc) Config {
	first := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v
			}
		}
		return ""
	}
	cfg := Config{
		Token:       first("CI_HB_HEADLESS_TOKEN", "TEST_HB_HEADLESS_TOKEN"),
		Proxy:       first("CI_HB_PROXY", "TEST_HB_PROXY"),
		BridgeURL:   first("HB_BRIDGE_URL"),
		Delay:       DefaultDelay,
		LinkTimeout: DefaultLinkTimeout,
	}
	if v := first("HB_TEST_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cfg.Delay = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

// Before waits the configured delay. Call it first in every live test.
func (c Config) Before(t testing.TB) {
	t.Helper()
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}
}

// RequireToken skips t unless a token and a bridge to use it with are set.
func (c Config) RequireToken(t testing.TB) {
	t.Helper()
	if c.Token == "" {
		t.Skip("no headless token (set CI_HB_HEADLESS_TOKEN or TEST_HB_HEADLESS_TOKEN)")
	}
	if c.BridgeURL == "" {
		t.Skip("no bridge (set HB_BRIDGE_URL)")
	}
}

// RequireProxy skips t unless a relay address is set.
func (c Config) RequireProxy(t testing.TB) {
	t.Helper()
	if c.Proxy == "" {
		t.Skip("no proxy (set CI_HB_PROXY or TEST_HB_PROXY)")
	}
}

// RoomConfig is the baseline room used by the liveness checks.
func (c Config) RoomConfig() room.RoomConfig {
	public := false
	return room.RoomConfig{
		RoomName:   "Test",
		MaxPlayers: 16,
		Public:     &public,
		NoPlayer:   true,
		Token:      c.Token,
	}
}

// Open initializes a room on the configured bridge and closes it when t
// finishes. withProxy routes the host through c.Proxy.
func (c Config) Open(ctx context.Context, t testing.TB, cfg room.RoomConfig, withProxy bool) (*room.Room, error) {
	t.Helper()
	opts := room.Options{BridgeURL: c.BridgeURL}
	if withProxy {
		opts.Env.Proxy = c.Proxy
	}
	r, err := room.Init(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { r.Close() })
	return r, nil
}

// AwaitLink waits for h's room link. It fails with ErrNoLink after timeout
// and with the room's own error if it closes first.
func AwaitLink(ctx context.Context, h room.Handle, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultLinkTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.Linked():
		return h.Link(), nil
	case <-h.Done():
		if err := h.Err(); err != nil {
			return "", fmt.Errorf("harness: room closed before linking: %w", err)
		}
		return "", fmt.Errorf("harness: room closed before linking: %w", room.ErrClosed)
	case <-timer.C:
		return "", fmt.Errorf("%w (%s)", ErrNoLink, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
