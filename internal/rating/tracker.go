package rating

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
)

type seat struct {
	auth string
	name string
	team models.Team
}

// Tracker follows who plays for which team and rates every decided match.
// Players without an auth key are not rated.
type Tracker struct {
	store   Store
	log     logrus.FieldLogger
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	players map[int]seat
	running bool
	lineup  map[string]seat

	// rated receives every saved batch, for tests.
	rated chan<- []Rating
}

func NewTracker(store Store, log logrus.FieldLogger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		store:   store,
		log:     log.WithField("component", "rating"),
		timeout: 10 * time.Second,
		now:     time.Now,
		players: make(map[int]seat),
	}
}

// Attach subscribes to the events the tracker needs. It must be attached
// before players join, since auth keys only arrive with playerJoin.
func (t *Tracker) Attach(reg *events.Registry) (detach func()) {
	unsubs := []func(){
		events.On(reg, func(ev events.PlayerJoin) {
			t.mu.Lock()
			t.players[ev.Player.ID] = seat{auth: ev.Player.Auth, name: ev.Player.Name, team: ev.Player.Team}
			t.mu.Unlock()
		}),
		events.On(reg, func(ev events.PlayerLeave) {
			t.mu.Lock()
			delete(t.players, ev.Player.ID)
			t.mu.Unlock()
		}),
		events.On(reg, func(ev events.PlayerTeamChange) {
			t.teamChange(ev.ChangedPlayer)
		}),
		events.On(reg, func(events.GameStart) {
			t.mu.Lock()
			t.running = true
			t.lineup = make(map[string]seat)
			for _, s := range t.players {
				t.seat(s)
			}
			t.mu.Unlock()
		}),
		events.On(reg, func(events.GameStop) {
			t.mu.Lock()
			t.running = false
			t.lineup = nil
			t.mu.Unlock()
		}),
		events.On(reg, func(ev events.TeamVictory) {
			t.victory(ev.Scores)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Lookup returns the rating of a connected player, nil if the player is
// unknown, has no auth key or has never been rated.
func (t *Tracker) Lookup(ctx context.Context, playerID int) (*Rating, error) {
	t.mu.Lock()
	s, ok := t.players[playerID]
	t.mu.Unlock()
	if !ok || s.auth == "" {
		return nil, nil
	}
	return t.store.Get(ctx, s.auth)
}

func (t *Tracker) teamChange(p models.Player) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.players[p.ID]
	if !ok {
		return
	}
	s.team = p.Team
	t.players[p.ID] = s
	if t.running {
		t.seat(s)
	}
}

// seat records s in the lineup. Moving to spectators keeps the last team.
// t.mu must be held.
func (t *Tracker) seat(s seat) {
	if s.auth == "" || s.team == models.Spectators {
		return
	}
	t.lineup[s.auth] = s
}

func (t *Tracker) victory(sc models.Scores) {
	t.mu.Lock()
	lineup := t.lineup
	t.lineup = make(map[string]seat)
	t.mu.Unlock()

	if len(lineup) == 0 {
		return
	}
	redScore := 0.5
	switch {
	case sc.Red > sc.Blue:
		redScore = 1
	case sc.Blue > sc.Red:
		redScore = 0
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.rate(ctx, lineup, redScore); err != nil {
			t.log.WithError(err).Warn("could not update ratings")
		}
	}()
}

func (t *Tracker) rate(ctx context.Context, lineup map[string]seat, redScore float64) error {
	var red, blue []Rating
	for _, s := range lineup {
		r, err := t.store.Get(ctx, s.auth)
		if err != nil {
			return err
		}
		cur := New(s.auth, s.name)
		if r != nil {
			cur = *r
			cur.Name = s.name
		}
		if s.team == models.Red {
			red = append(red, cur)
		} else {
			blue = append(blue, cur)
		}
	}
	if len(red) == 0 || len(blue) == 0 {
		t.log.Debug("one-sided match, not rated")
		return nil
	}

	red, blue = UpdateTeams(red, blue, redScore, t.now())
	all := append(red, blue...)
	if err := t.store.Save(ctx, all); err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"red": len(red), "blue": len(blue), "redScore": redScore}).Info("ratings updated")
	if t.rated != nil {
		t.rated <- all
	}
	return nil
}
