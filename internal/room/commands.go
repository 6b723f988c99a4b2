package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

// Mutators are one-way: a nil error only means the command was queued for
// the bridge. Their effect shows up later through events or accessors.

// SendChat speaks as the host player. A nil target sends to everyone.
func (r *Room) SendChat(message string, target *int) error {
	return r.command("sendChat", message, optional(target))
}

func (r *Room) SetPlayerAdmin(playerID int, admin bool) error {
	return r.command("setPlayerAdmin", playerID, admin)
}

func (r *Room) SetPlayerTeam(playerID int, team models.Team) error {
	return r.command("setPlayerTeam", playerID, int(team))
}

func (r *Room) KickPlayer(playerID int, reason string, ban bool) error {
	return r.command("kickPlayer", playerID, reason, ban)
}

func (r *Room) ClearBan(playerID int) error {
	return r.command("clearBan", playerID)
}

func (r *Room) ClearBans() error {
	return r.command("clearBans")
}

// SetScoreLimit takes effect for the next game; 0 means unlimited.
func (r *Room) SetScoreLimit(limit int) error {
	return r.command("setScoreLimit", limit)
}

// SetTimeLimit is in minutes; 0 means unlimited.
func (r *Room) SetTimeLimit(minutes int) error {
	return r.command("setTimeLimit", minutes)
}

// SetCustomStadium sends the serialized stadium. The host validates it; run
// stadium.Validate first to catch structural mistakes locally.
func (r *Room) SetCustomStadium(s *stadium.Stadium) error {
	data, err := stadium.Encode(s)
	if err != nil {
		return err
	}
	return r.command("setCustomStadium", string(data))
}

func (r *Room) SetDefaultStadium(name string) error {
	return r.command("setDefaultStadium", name)
}

func (r *Room) SetTeamsLock(locked bool) error {
	return r.command("setTeamsLock", locked)
}

// SetTeamColors sets the stripes of a team's uniform. angle is in degrees,
// colours are 0xRRGGBB and up to three stripes are used.
func (r *Room) SetTeamColors(team models.Team, angle int, textColor int, colors []int) error {
	if colors == nil {
		colors = []int{}
	}
	return r.command("setTeamColors", int(team), angle, textColor, colors)
}

func (r *Room) StartGame() error {
	return r.command("startGame")
}

func (r *Room) StopGame() error {
	return r.command("stopGame")
}

// PauseGame pauses when paused is true and resumes otherwise.
func (r *Room) PauseGame(paused bool) error {
	return r.command("pauseGame", paused)
}

// SetPassword with an empty string removes the password.
func (r *Room) SetPassword(password string) error {
	return r.command("setPassword", optionalString(password))
}

func (r *Room) SetRequireRecaptcha(required bool) error {
	return r.command("setRequireRecaptcha", required)
}

// ReorderPlayers moves the given players to the top (or bottom) of the list,
// keeping their relative order.
func (r *Room) ReorderPlayers(playerIDs []int, moveToTop bool) error {
	if playerIDs == nil {
		playerIDs = []int{}
	}
	return r.command("reorderPlayers", playerIDs, moveToTop)
}

func (r *Room) SendAnnouncement(a Announcement) error {
	var style any
	if a.Style != "" {
		style = string(a.Style)
	}
	return r.command("sendAnnouncement", a.Message, optional(a.Target), optional(a.Color), style, optional(a.Sound))
}

// SetKickRateLimit configures kick spam limits: min is the number of kicks
// always allowed, rate is kicks per minute, burst is how many may be
// accumulated.
func (r *Room) SetKickRateLimit(min, rate, burst int) error {
	return r.command("setKickRateLimit", min, rate, burst)
}

// SetPlayerAvatar overrides a player's avatar; empty clears the override.
func (r *Room) SetPlayerAvatar(playerID int, avatar string) error {
	return r.command("setPlayerAvatar", playerID, optionalString(avatar))
}

// SetDiscProperties changes only the fields set in u.
func (r *Room) SetDiscProperties(discIndex int, u models.DiscPropertiesUpdate) error {
	return r.command("setDiscProperties", discIndex, u)
}

// SetPlayerDiscProperties is SetDiscProperties for a player's disc.
func (r *Room) SetPlayerDiscProperties(playerID int, u models.DiscPropertiesUpdate) error {
	return r.command("setPlayerDiscProperties", playerID, u)
}

func (r *Room) ResetPositions() error {
	return r.command("resetPositions")
}

// StartRecording begins capturing the session. Recording is a single toggle:
// starting twice does not nest.
func (r *Room) StartRecording() error {
	return r.command("startRecording")
}

// StopRecording returns the recorded session, or nil when nothing was being
// recorded.
func (r *Room) StopRecording(ctx context.Context) ([]byte, error) {
	data, err := r.call(ctx, "stopRecording")
	if err != nil {
		return nil, err
	}
	var blob []byte
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("room: decode recording: %w", err)
	}
	return blob, nil
}

func optional(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
