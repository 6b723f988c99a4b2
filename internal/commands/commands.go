// Package commands answers "!" chat commands in a room. Command lines are
// always suppressed so passwords never reach the other players.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/auth"
	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/rating"
	"github.com/jason-s-yu/hbroom/internal/room"
)

// Prefix marks a chat line as a command.
const Prefix = "!"

const (
	colorInfo  = 0x8FD3FE
	colorError = 0xFF7F7F
)

type command struct {
	usage string
	run   func(p models.Player, args []string)
}

// RatingLookup finds the rating of a connected player.
type RatingLookup interface {
	Lookup(ctx context.Context, playerID int) (*rating.Rating, error)
}

// Set is the command table bound to one room.
type Set struct {
	h         room.Handle
	log       logrus.FieldLogger
	adminHash string
	commands  map[string]command
}

// New builds the default commands. An empty adminHash disables !admin.
func New(h room.Handle, adminHash string, log logrus.FieldLogger) *Set {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Set{
		h:         h,
		log:       log.WithField("component", "commands"),
		adminHash: adminHash,
	}
	s.commands = map[string]command{
		"admin": {usage: "!admin <password>  claim room admin", run: s.admin},
		"link":  {usage: "!link  show the room link", run: s.link},
		"help":  {usage: "!help  list commands", run: s.help},
	}
	return s
}

// WithRatings adds !rating backed by lookup.
func (s *Set) WithRatings(lookup RatingLookup) *Set {
	s.commands["rating"] = command{
		usage: "!rating  show your rating",
		run: func(p models.Player, _ []string) {
			go s.rating(lookup, p)
		},
	}
	return s
}

// Attach starts handling chat in reg.
func (s *Set) Attach(reg *events.Registry) (detach func()) {
	return events.OnPlayerChat(reg, s.Handle)
}

// Handle runs the command in ev, if any, and reports whether the line should
// be hidden from the room.
func (s *Set) Handle(ev events.PlayerChat) (suppress bool) {
	line := strings.TrimSpace(ev.Message)
	if !strings.HasPrefix(line, Prefix) {
		return false
	}
	fields := strings.Fields(strings.TrimPrefix(line, Prefix))
	if len(fields) == 0 {
		return false
	}
	name := strings.ToLower(fields[0])
	cmd, ok := s.commands[name]
	if !ok {
		s.reply(ev.Player, colorError, fmt.Sprintf("unknown command %q, try !help", name))
		return true
	}
	s.log.WithFields(logrus.Fields{"player": ev.Player.Name, "command": name}).Debug("chat command")
	cmd.run(ev.Player, fields[1:])
	return true
}

func (s *Set) reply(p models.Player, color int, msg string) {
	target := p.ID
	err := s.h.SendAnnouncement(room.Announcement{
		Message: msg,
		Target:  &target,
		Color:   &color,
		Style:   room.StyleSmall,
	})
	if err != nil {
		s.log.WithError(err).Warn("could not answer command")
	}
}

// admin checks the password off the dispatch goroutine.
func (s *Set) admin(p models.Player, args []string) {
	if s.adminHash == "" {
		s.reply(p, colorError, "admin login is disabled in this room")
		return
	}
	if len(args) != 1 {
		s.reply(p, colorError, "usage: !admin <password>")
		return
	}
	go func() {
		ok, err := auth.VerifyPassword(args[0], s.adminHash)
		switch {
		case err != nil:
			s.log.WithError(err).Error("admin password hash is unusable")
			s.reply(p, colorError, "admin login is unavailable")
		case !ok:
			s.log.WithFields(logrus.Fields{"player": p.Name, "auth": p.Auth}).Warn("failed admin login")
			s.reply(p, colorError, "wrong password")
		default:
			if err := s.h.SetPlayerAdmin(p.ID, true); err != nil {
				s.log.WithError(err).Warn("could not grant admin")
				return
			}
			s.log.WithField("player", p.Name).Info("admin granted")
			s.reply(p, colorInfo, "you are now an admin")
		}
	}()
}

func (s *Set) link(p models.Player, _ []string) {
	if url := s.h.Link(); url != "" {
		s.reply(p, colorInfo, url)
		return
	}
	s.reply(p, colorError, "the room has no link yet")
}

func (s *Set) help(p models.Player, _ []string) {
	lines := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		lines = append(lines, c.usage)
	}
	sort.Strings(lines)
	s.reply(p, colorInfo, strings.Join(lines, "\n"))
}

func (s *Set) rating(lookup RatingLookup, p models.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := lookup.Lookup(ctx, p.ID)
	switch {
	case err != nil:
		s.log.WithError(err).Warn("rating lookup failed")
		s.reply(p, colorError, "ratings are unavailable")
	case r == nil:
		s.reply(p, colorInfo, "you are not rated yet")
	default:
		s.reply(p, colorInfo, fmt.Sprintf("rating %.0f (±%.0f), %d wins in %d games", r.Rating, 2*r.RD, r.Wins, r.Games))
	}
}
