package room

import (
	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

// State is the lifecycle of a Room.
type State int

const (
	StateConnecting State = iota
	StateLinked
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLinked:
		return "linked"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// mirror is the most recently known room state. Accessors read it; frames
// from the bridge write it. Guarded by Room.mu.
type mirror struct {
	players     []models.Player
	scores      *models.Scores
	discs       []models.DiscProperties
	playerDiscs map[int]models.DiscProperties
	inputs      map[int]models.Input
	game        GameState
}

func newMirror() mirror {
	return mirror{
		playerDiscs: make(map[int]models.DiscProperties),
		inputs:      make(map[int]models.Input),
		game:        GameStopped,
	}
}

func (m *mirror) replace(s Snapshot) {
	m.players = append([]models.Player(nil), s.Players...)
	m.scores = s.Scores
	m.discs = append([]models.DiscProperties(nil), s.Discs...)
	m.playerDiscs = make(map[int]models.DiscProperties, len(s.PlayerDiscs))
	for id, d := range s.PlayerDiscs {
		m.playerDiscs[id] = d
	}
	m.inputs = make(map[int]models.Input, len(s.Inputs))
	for id, in := range s.Inputs {
		m.inputs[id] = in
	}
	if s.Game != "" {
		m.game = s.Game
	}
}

func (m *mirror) playerIndex(id int) int {
	for i, p := range m.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// upsert stores p, keeping identity fields the host only sends on join.
func (m *mirror) upsert(p models.Player) {
	i := m.playerIndex(p.ID)
	if i < 0 {
		m.players = append(m.players, p)
		return
	}
	old := m.players[i]
	if p.Auth == "" {
		p.Auth = old.Auth
	}
	if p.Conn == "" {
		p.Conn = old.Conn
	}
	m.players[i] = p
}

func (m *mirror) remove(id int) {
	if i := m.playerIndex(id); i >= 0 {
		m.players = append(m.players[:i:i], m.players[i+1:]...)
	}
	delete(m.playerDiscs, id)
	delete(m.inputs, id)
}

// apply patches the mirror for events that carry state.
func (m *mirror) apply(ev events.Event) {
	switch e := ev.(type) {
	case events.PlayerJoin:
		m.upsert(e.Player)
	case events.PlayerLeave:
		m.remove(e.Player.ID)
	case events.PlayerAdminChange:
		m.upsert(e.ChangedPlayer)
	case events.PlayerTeamChange:
		m.upsert(e.ChangedPlayer)
		if e.ChangedPlayer.Team == models.Spectators {
			delete(m.playerDiscs, e.ChangedPlayer.ID)
		}
	case events.PlayerInput:
		m.inputs[e.Player.ID] = e.Input
	case events.GameStart:
		m.game = GameRunning
	case events.GameStop:
		m.game = GameStopped
		m.scores = nil
	case events.GamePause:
		m.game = GamePaused
	case events.GameUnpause:
		m.game = GameRunning
	case events.TeamVictory:
		scores := e.Scores
		m.scores = &scores
	}
}
