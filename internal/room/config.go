package room

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

// RoomConfig is the object handed to the host's init call. Nothing here is
// validated locally: the host rejects what it does not like, either by failing
// Init or by closing the room later. Optional fields are omitted from the wire
// when empty so the host applies its own defaults.
type RoomConfig struct {
	RoomName   string `json:"roomName" yaml:"roomName"`
	PlayerName string `json:"playerName,omitempty" yaml:"playerName"`
	Password   string `json:"password,omitempty" yaml:"password"`
	MaxPlayers int    `json:"maxPlayers,omitempty" yaml:"maxPlayers"`

	// Public is tri-state; nil leaves the listing decision to the host.
	Public *bool       `json:"public,omitempty" yaml:"public"`
	Geo    *models.Geo `json:"geo,omitempty" yaml:"geo"`

	Token    string `json:"token" yaml:"token"`
	NoPlayer bool   `json:"noPlayer,omitempty" yaml:"noPlayer"`
	Proxy    string `json:"proxy,omitempty" yaml:"proxy"`
	Debug    bool   `json:"debug,omitempty" yaml:"debug"`
}

// Env carries the environment overrides for hosts that do not run in a
// browser: a relay address and the name of an alternate WebRTC stack.
type Env struct {
	Proxy  string `json:"proxy,omitempty"`
	WebRTC string `json:"webrtc,omitempty"`
}

// Options controls how Init reaches the bridge. Only BridgeURL is required.
type Options struct {
	BridgeURL string
	Env       Env

	// ID names the room in logs and downstream records. Zero picks a
	// random one.
	ID uuid.UUID

	// Events receives every notification. Passing a registry lets callers
	// subscribe before Init returns, so no roomLink can be missed.
	Events *events.Registry

	HTTPClient *http.Client
	Logger     logrus.FieldLogger

	// QueueSize bounds outstanding commands. Mutators fail with
	// ErrBackpressure rather than block when it is full.
	QueueSize    int
	ReadLimit    int64
	WriteTimeout time.Duration
}

const (
	// Subprotocol is negotiated with the bridge on dial.
	Subprotocol = "headless"

	defaultQueueSize    = 256
	defaultReadLimit    = 32 << 20
	defaultWriteTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Events == nil {
		o.Events = events.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = defaultReadLimit
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	return o
}

// AnnouncementStyle is the text style of a SendAnnouncement message.
type AnnouncementStyle string

const (
	StyleNormal      AnnouncementStyle = "normal"
	StyleBold        AnnouncementStyle = "bold"
	StyleItalic      AnnouncementStyle = "italic"
	StyleSmall       AnnouncementStyle = "small"
	StyleSmallBold   AnnouncementStyle = "small-bold"
	StyleSmallItalic AnnouncementStyle = "small-italic"
)

// Announcement is a host message. Nil fields use the host defaults; a nil
// Target sends to everyone.
type Announcement struct {
	Message string            `json:"message"`
	Target  *int              `json:"targetId,omitempty"`
	Color   *int              `json:"color,omitempty"`
	Style   AnnouncementStyle `json:"style,omitempty"`

	// Sound is 0 for none, 1 for the chat sound, 2 for the highlight sound.
	Sound *int `json:"sound,omitempty"`
}
