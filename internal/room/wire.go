package room

import (
	"encoding/json"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

// Frame types exchanged with the bridge.
const (
	FrameInit    = "init"
	FrameReady   = "ready"
	FrameError   = "error"
	FrameCommand = "command"
	FrameCall    = "call"
	FrameResult  = "result"
	FrameReply   = "reply"
	FrameEvent   = "event"
	FrameState   = "state"
)

// Envelope is one JSON text frame. Seq correlates call/result and
// playerChat/reply pairs.
type Envelope struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq,omitempty"`
	Name  string          `json:"name,omitempty"`
	Args  []any           `json:"args,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *HostError      `json:"error,omitempty"`
}

// InitPayload is the data of the init frame.
type InitPayload struct {
	Config RoomConfig `json:"config"`
	Env    Env        `json:"env"`
}

// ReadyPayload is the data of the ready frame.
type ReadyPayload struct {
	CollisionFlags models.CollisionFlags `json:"collisionFlags"`
}

// ChatReply answers a playerChat event.
type ChatReply struct {
	Suppress bool `json:"suppress"`
}

// GameState is the sub-state of an active room.
type GameState string

const (
	GameStopped GameState = "stopped"
	GameRunning GameState = "running"
	GamePaused  GameState = "paused"
)

// Snapshot is the full room state the bridge pushes after changes.
type Snapshot struct {
	Players     []models.Player               `json:"players"`
	Scores      *models.Scores                `json:"scores"`
	Discs       []models.DiscProperties       `json:"discs"`
	PlayerDiscs map[int]models.DiscProperties `json:"playerDiscs"`
	Inputs      map[int]models.Input          `json:"inputs"`
	Game        GameState                     `json:"game"`
}

// Event builds an event frame; used by bridges and tests.
func Event(ev events.Event, seq uint64) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: FrameEvent, Seq: seq, Name: string(ev.Kind()), Data: data}, nil
}
