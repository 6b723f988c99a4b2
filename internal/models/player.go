package models

import "fmt"

// Team identifies which side a player is on. The numeric values are the ones
// the headless host uses on the wire.
type Team int

const (
	Spectators Team = 0
	Red        Team = 1
	Blue       Team = 2
)

func (t Team) String() string {
	switch t {
	case Spectators:
		return "spectators"
	case Red:
		return "red"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("team(%d)", int(t))
	}
}

// Valid reports whether t is one of the three known teams.
func (t Team) Valid() bool {
	return t == Spectators || t == Red || t == Blue
}

// ParseTeam accepts the team names used in stadium files and the API.
func ParseTeam(s string) (Team, error) {
	switch s {
	case "spectators", "spec", "0":
		return Spectators, nil
	case "red", "1":
		return Red, nil
	case "blue", "2":
		return Blue, nil
	}
	return Spectators, fmt.Errorf("unknown team %q", s)
}

// Position is a point in stadium coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Player is a snapshot of a connected participant as last reported by the host.
// IDs are unique among connected players only; the host may hand a departed
// player's ID to someone else later.
type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Team  Team   `json:"team"`
	Admin bool   `json:"admin"`

	// Position is nil while the player has no disc in play.
	Position *Position `json:"position"`

	// Auth is the player's public identity token, Conn the connection fingerprint.
	// The host only populates them in the join event.
	Auth string `json:"auth,omitempty"`
	Conn string `json:"conn,omitempty"`
}

// Clone returns a deep copy so callers never share the mirror's position pointer.
func (p Player) Clone() Player {
	if p.Position != nil {
		pos := *p.Position
		p.Position = &pos
	}
	return p
}

// Geo is the geographic hint shown in the public room list.
type Geo struct {
	Code string  `json:"code" yaml:"code"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}
