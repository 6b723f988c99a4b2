package room

import (
	"context"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

// Handle is the room-control surface. Packages that drive a room accept a
// Handle; *Room is the implementation.
type Handle interface {
	SendChat(message string, target *int) error
	SetPlayerAdmin(playerID int, admin bool) error
	SetPlayerTeam(playerID int, team models.Team) error
	KickPlayer(playerID int, reason string, ban bool) error
	ClearBan(playerID int) error
	ClearBans() error
	SetScoreLimit(limit int) error
	SetTimeLimit(minutes int) error
	SetCustomStadium(s *stadium.Stadium) error
	SetDefaultStadium(name string) error
	SetTeamsLock(locked bool) error
	SetTeamColors(team models.Team, angle int, textColor int, colors []int) error
	StartGame() error
	StopGame() error
	PauseGame(paused bool) error
	SetPassword(password string) error
	SetRequireRecaptcha(required bool) error
	ReorderPlayers(playerIDs []int, moveToTop bool) error
	SendAnnouncement(a Announcement) error
	SetKickRateLimit(min, rate, burst int) error
	SetPlayerAvatar(playerID int, avatar string) error
	SetDiscProperties(discIndex int, u models.DiscPropertiesUpdate) error
	SetPlayerDiscProperties(playerID int, u models.DiscPropertiesUpdate) error
	ResetPositions() error

	GetPlayer(playerID int) *models.Player
	GetPlayerList() []models.Player
	GetScores() *models.Scores
	GetBallPosition() *models.Position
	GetDiscProperties(discIndex int) *models.DiscProperties
	GetPlayerDiscProperties(playerID int) *models.DiscProperties
	GetDiscCount() int
	GetPlayerInput(playerID int) (models.Input, bool)

	StartRecording() error
	StopRecording(ctx context.Context) ([]byte, error)

	Events() *events.Registry
	CollisionFlags() models.CollisionFlags
	State() State
	GameState() GameState
	Link() string
	Linked() <-chan struct{}
	Done() <-chan struct{}
	Err() error
	Close() error
}

var _ Handle = (*Room)(nil)
