// Package events defines the notifications a headless room emits and a
// registry that fans them out to subscribers in registration order.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/hbroom/internal/models"
)

// Kind is the wire name of an event.
type Kind string

const (
	KindRoomLink          Kind = "roomLink"
	KindPlayerJoin        Kind = "playerJoin"
	KindPlayerLeave       Kind = "playerLeave"
	KindTeamVictory       Kind = "teamVictory"
	KindPlayerChat        Kind = "playerChat"
	KindPlayerBallKick    Kind = "playerBallKick"
	KindTeamGoal          Kind = "teamGoal"
	KindGameStart         Kind = "gameStart"
	KindGameStop          Kind = "gameStop"
	KindPlayerAdminChange Kind = "playerAdminChange"
	KindPlayerTeamChange  Kind = "playerTeamChange"
	KindPlayerKicked      Kind = "playerKicked"
	KindGameTick          Kind = "gameTick"
	KindGamePause         Kind = "gamePause"
	KindGameUnpause       Kind = "gameUnpause"
	KindPositionsReset    Kind = "positionsReset"
	KindPlayerActivity    Kind = "playerActivity"
	KindStadiumChange     Kind = "stadiumChange"
	KindKickRateLimitSet  Kind = "kickRateLimitSet"
	KindTeamsLockChange   Kind = "teamsLockChange"
	KindPlayerInput       Kind = "playerInput"
)

// Kinds lists every event kind in a stable order.
var Kinds = []Kind{
	KindRoomLink, KindPlayerJoin, KindPlayerLeave, KindTeamVictory, KindPlayerChat,
	KindPlayerBallKick, KindTeamGoal, KindGameStart, KindGameStop, KindPlayerAdminChange,
	KindPlayerTeamChange, KindPlayerKicked, KindGameTick, KindGamePause, KindGameUnpause,
	KindPositionsReset, KindPlayerActivity, KindStadiumChange, KindKickRateLimitSet,
	KindTeamsLockChange, KindPlayerInput,
}

// Event is implemented by every payload type below.
type Event interface {
	Kind() Kind
}

// ByPlayer fields are nil when the host itself caused the change.

type RoomLink struct {
	URL string `json:"url"`
}

type PlayerJoin struct {
	Player models.Player `json:"player"`
}

type PlayerLeave struct {
	Player models.Player `json:"player"`
}

type TeamVictory struct {
	Scores models.Scores `json:"scores"`
}

type PlayerChat struct {
	Player  models.Player `json:"player"`
	Message string        `json:"message"`
}

type PlayerBallKick struct {
	Player models.Player `json:"player"`
}

type TeamGoal struct {
	Team models.Team `json:"team"`
}

type GameStart struct {
	ByPlayer *models.Player `json:"byPlayer"`
}

type GameStop struct {
	ByPlayer *models.Player `json:"byPlayer"`
}

type PlayerAdminChange struct {
	ChangedPlayer models.Player  `json:"changedPlayer"`
	ByPlayer      *models.Player `json:"byPlayer"`
}

type PlayerTeamChange struct {
	ChangedPlayer models.Player  `json:"changedPlayer"`
	ByPlayer      *models.Player `json:"byPlayer"`
}

type PlayerKicked struct {
	KickedPlayer models.Player  `json:"kickedPlayer"`
	Reason       string         `json:"reason"`
	Ban          bool           `json:"ban"`
	ByPlayer     *models.Player `json:"byPlayer"`
}

type GameTick struct{}

type GamePause struct {
	ByPlayer *models.Player `json:"byPlayer"`
}

type GameUnpause struct {
	ByPlayer *models.Player `json:"byPlayer"`
}

type PositionsReset struct{}

type PlayerActivity struct {
	Player models.Player `json:"player"`
}

type StadiumChange struct {
	NewStadiumName string         `json:"newStadiumName"`
	ByPlayer       *models.Player `json:"byPlayer"`
}

type KickRateLimitSet struct {
	Min      int            `json:"min"`
	Rate     int            `json:"rate"`
	Burst    int            `json:"burst"`
	ByPlayer *models.Player `json:"byPlayer"`
}

type TeamsLockChange struct {
	Locked   bool           `json:"locked"`
	ByPlayer *models.Player `json:"byPlayer"`
}

type PlayerInput struct {
	Player models.Player `json:"player"`
	Input  models.Input  `json:"input"`
}

func (RoomLink) Kind() Kind          { return KindRoomLink }
func (PlayerJoin) Kind() Kind        { return KindPlayerJoin }
func (PlayerLeave) Kind() Kind       { return KindPlayerLeave }
func (TeamVictory) Kind() Kind       { return KindTeamVictory }
func (PlayerChat) Kind() Kind        { return KindPlayerChat }
func (PlayerBallKick) Kind() Kind    { return KindPlayerBallKick }
func (TeamGoal) Kind() Kind          { return KindTeamGoal }
func (GameStart) Kind() Kind         { return KindGameStart }
func (GameStop) Kind() Kind          { return KindGameStop }
func (PlayerAdminChange) Kind() Kind { return KindPlayerAdminChange }
func (PlayerTeamChange) Kind() Kind  { return KindPlayerTeamChange }
func (PlayerKicked) Kind() Kind      { return KindPlayerKicked }
func (GameTick) Kind() Kind          { return KindGameTick }
func (GamePause) Kind() Kind         { return KindGamePause }
func (GameUnpause) Kind() Kind       { return KindGameUnpause }
func (PositionsReset) Kind() Kind    { return KindPositionsReset }
func (PlayerActivity) Kind() Kind    { return KindPlayerActivity }
func (StadiumChange) Kind() Kind     { return KindStadiumChange }
func (KickRateLimitSet) Kind() Kind  { return KindKickRateLimitSet }
func (TeamsLockChange) Kind() Kind   { return KindTeamsLockChange }
func (PlayerInput) Kind() Kind       { return KindPlayerInput }

// Decode turns a wire payload into its typed event.
func Decode(kind Kind, data json.RawMessage) (Event, error) {
	var (
		ev  Event
		err error
	)
	switch kind {
	case KindRoomLink:
		ev, err = decode[RoomLink](data)
	case KindPlayerJoin:
		ev, err = decode[PlayerJoin](data)
	case KindPlayerLeave:
		ev, err = decode[PlayerLeave](data)
	case KindTeamVictory:
		ev, err = decode[TeamVictory](data)
	case KindPlayerChat:
		ev, err = decode[PlayerChat](data)
	case KindPlayerBallKick:
		ev, err = decode[PlayerBallKick](data)
	case KindTeamGoal:
		ev, err = decode[TeamGoal](data)
	case KindGameStart:
		ev, err = decode[GameStart](data)
	case KindGameStop:
		ev, err = decode[GameStop](data)
	case KindPlayerAdminChange:
		ev, err = decode[PlayerAdminChange](data)
	case KindPlayerTeamChange:
		ev, err = decode[PlayerTeamChange](data)
	case KindPlayerKicked:
		ev, err = decode[PlayerKicked](data)
	case KindGameTick:
		ev, err = decode[GameTick](data)
	case KindGamePause:
		ev, err = decode[GamePause](data)
	case KindGameUnpause:
		ev, err = decode[GameUnpause](data)
	case KindPositionsReset:
		ev, err = decode[PositionsReset](data)
	case KindPlayerActivity:
		ev, err = decode[PlayerActivity](data)
	case KindStadiumChange:
		ev, err = decode[StadiumChange](data)
	case KindKickRateLimitSet:
		ev, err = decode[KickRateLimitSet](data)
	case KindTeamsLockChange:
		ev, err = decode[TeamsLockChange](data)
	case KindPlayerInput:
		ev, err = decode[PlayerInput](data)
	default:
		return nil, fmt.Errorf("events: unknown kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("events: decode %s: %w", kind, err)
	}
	return ev, nil
}

func decode[T Event](data json.RawMessage) (Event, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}
