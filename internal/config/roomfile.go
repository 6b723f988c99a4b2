package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

// RoomFile describes a room and what to apply to it once it is active.
//
//	room:
//	  roomName: "3v3 futsal"
//	  maxPlayers: 12
//	stadium: futsal.hbs
//	scoreLimit: 3
//	timeLimit: 5
//	teamsLock: true
//	teamColors:
//	  - team: red
//	    angle: 60
//	    text: FFFFFF
//	    colors: [E56E56, C9584A]
type RoomFile struct {
	Room room.RoomConfig `yaml:"room"`

	// Stadium is a .hbs/.json/.yaml path, relative to the room file.
	Stadium        string `yaml:"stadium"`
	DefaultStadium string `yaml:"defaultStadium"`

	ScoreLimit *int         `yaml:"scoreLimit"`
	TimeLimit  *int         `yaml:"timeLimit"`
	TeamsLock  *bool        `yaml:"teamsLock"`
	TeamColors []TeamColors `yaml:"teamColors"`

	// AdminPasswordHash is an argon2id hash checked by the !admin command.
	AdminPasswordHash string `yaml:"adminPasswordHash"`
	AutoRecord        bool   `yaml:"autoRecord"`

	dir string
}

// TeamColors is one setTeamColors call. Colours are RRGGBB hex.
type TeamColors struct {
	Team   string   `yaml:"team"`
	Angle  int      `yaml:"angle"`
	Text   string   `yaml:"text"`
	Colors []string `yaml:"colors"`
}

// LoadRoomFile reads and decodes a room file.
func LoadRoomFile(path string) (RoomFile, error) {
	var f RoomFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("failed to read room file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to parse room file %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	for i, tc := range f.TeamColors {
		if _, _, _, err := tc.parse(); err != nil {
			return f, fmt.Errorf("room file %s: teamColors[%d]: %w", path, i, err)
		}
	}
	return f, nil
}

// LoadStadium loads the custom stadium, or returns nil when none is set.
func (f RoomFile) LoadStadium() (*stadium.Stadium, error) {
	if f.Stadium == "" {
		return nil, nil
	}
	path := f.Stadium
	if !filepath.IsAbs(path) && f.dir != "" {
		path = filepath.Join(f.dir, path)
	}
	return stadium.Load(path)
}

func (tc TeamColors) parse() (team models.Team, text int, colors []int, err error) {
	if team, err = models.ParseTeam(strings.ToLower(tc.Team)); err != nil {
		return
	}
	if team == models.Spectators {
		err = fmt.Errorf("spectators have no uniform")
		return
	}
	if text, err = parseHex(tc.Text); err != nil {
		return
	}
	if len(tc.Colors) > 3 {
		err = fmt.Errorf("at most 3 stripe colours, got %d", len(tc.Colors))
		return
	}
	for _, c := range tc.Colors {
		v, perr := parseHex(c)
		if perr != nil {
			err = perr
			return
		}
		colors = append(colors, v)
	}
	return
}

func parseHex(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return 0, fmt.Errorf("bad colour %q", s)
	}
	return int(v), nil
}

// Bootstrap applies the room file to h. A custom stadium takes precedence over
// DefaultStadium. It stops at the first command that cannot be queued.
func (f RoomFile) Bootstrap(h room.Handle) error {
	st, err := f.LoadStadium()
	if err != nil {
		return err
	}
	if st != nil {
		if err := stadium.Validate(st, h.CollisionFlags()); err != nil {
			return fmt.Errorf("stadium %s: %w", f.Stadium, err)
		}
		if err := h.SetCustomStadium(st); err != nil {
			return err
		}
	} else if f.DefaultStadium != "" {
		if !stadium.IsDefault(f.DefaultStadium) {
			return fmt.Errorf("unknown default stadium %q", f.DefaultStadium)
		}
		if err := h.SetDefaultStadium(f.DefaultStadium); err != nil {
			return err
		}
	}
	if f.ScoreLimit != nil {
		if err := h.SetScoreLimit(*f.ScoreLimit); err != nil {
			return err
		}
	}
	if f.TimeLimit != nil {
		if err := h.SetTimeLimit(*f.TimeLimit); err != nil {
			return err
		}
	}
	if f.TeamsLock != nil {
		if err := h.SetTeamsLock(*f.TeamsLock); err != nil {
			return err
		}
	}
	for _, tc := range f.TeamColors {
		team, text, colors, err := tc.parse()
		if err != nil {
			return err
		}
		if err := h.SetTeamColors(team, tc.Angle, text, colors); err != nil {
			return err
		}
	}
	return nil
}
