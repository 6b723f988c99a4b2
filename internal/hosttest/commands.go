package hosttest

import (
	"encoding/json"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
	"github.com/jason-s-yu/hbroom/internal/stadium"
)

// Ball is the ball disc every game starts with.
var Ball = models.DiscProperties{
	Radius:  10,
	BCoef:   0.5,
	InvMass: 1,
	Damping: 0.99,
	Color:   0xFFFFFF,
	CMask:   63,
	CGroup:  193,
}

func playerDisc(team models.Team) models.DiscProperties {
	d := models.DiscProperties{
		Radius:  15,
		BCoef:   0.5,
		InvMass: 0.5,
		Damping: 0.96,
		Color:   -1,
		CMask:   39,
	}
	switch team {
	case models.Red:
		d.X, d.CGroup = -200, 2
	case models.Blue:
		d.X, d.CGroup = 200, 4
	}
	return d
}

// RecordingHeader prefixes every blob StopRecording returns.
const RecordingHeader = "HBR2"

func (s *Server) receive(f frame) {
	switch f.Type {
	case room.FrameReply:
		var reply room.ChatReply
		_ = json.Unmarshal(f.Data, &reply)
		s.mu.Lock()
		ch, ok := s.replies[f.Seq]
		delete(s.replies, f.Seq)
		s.mu.Unlock()
		if ok {
			ch <- reply
		}
	case room.FrameCommand:
		cmd := Command{Name: f.Name, Args: f.Args}
		s.record(cmd)
		s.apply(cmd)
	case room.FrameCall:
		cmd := Command{Name: f.Name, Args: f.Args}
		s.record(cmd)
		s.answer(f.Seq, cmd)
	}
}

func (s *Server) record(cmd Command) {
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
}

func (s *Server) answer(seq uint64, cmd Command) {
	switch cmd.Name {
	case "stopRecording":
		s.mu.Lock()
		active := s.recording
		s.recording = false
		name := s.stadiumName
		s.mu.Unlock()

		data := json.RawMessage("null")
		if active {
			data, _ = json.Marshal([]byte(RecordingHeader + ":" + name))
		}
		s.send(frame{Type: room.FrameResult, Seq: seq, Data: data})
	default:
		s.send(frame{Type: room.FrameResult, Seq: seq, Error: &room.HostError{Code: "unknown_call", Message: errUnknownCall.Error() + ": " + cmd.Name}})
	}
}

// apply simulates the host reacting to a command. Malformed arguments are
// ignored, as the real host does.
func (s *Server) apply(cmd Command) {
	switch cmd.Name {
	case "setPlayerAdmin":
		var id int
		var admin bool
		if cmd.Arg(0, &id) != nil || cmd.Arg(1, &admin) != nil {
			return
		}
		if p, ok := s.updatePlayer(id, func(p *models.Player) { p.Admin = admin }); ok {
			s.emit(events.PlayerAdminChange{ChangedPlayer: p})
			s.pushState()
		}

	case "setPlayerTeam":
		var id, team int
		if cmd.Arg(0, &id) != nil || cmd.Arg(1, &team) != nil || !models.Team(team).Valid() {
			return
		}
		p, ok := s.updatePlayer(id, func(p *models.Player) { p.Team = models.Team(team) })
		if !ok {
			return
		}
		s.mu.Lock()
		if p.Team == models.Spectators {
			delete(s.playerDiscs, id)
		} else if s.game != room.GameStopped {
			s.playerDiscs[id] = playerDisc(p.Team)
		}
		s.mu.Unlock()
		s.emit(events.PlayerTeamChange{ChangedPlayer: p})
		s.pushState()

	case "kickPlayer":
		var id int
		var reason string
		var ban bool
		if cmd.Arg(0, &id) != nil {
			return
		}
		_ = cmd.Arg(1, &reason)
		_ = cmd.Arg(2, &ban)
		p, ok := s.removePlayer(id)
		if !ok {
			return
		}
		s.emit(events.PlayerKicked{KickedPlayer: p, Reason: reason, Ban: ban})
		s.emit(events.PlayerLeave{Player: p})
		s.pushState()

	case "setScoreLimit", "setTimeLimit":
		var n int
		if cmd.Arg(0, &n) != nil {
			return
		}
		s.mu.Lock()
		if cmd.Name == "setScoreLimit" {
			s.scoreLimit = n
		} else {
			s.timeLimit = n
		}
		s.mu.Unlock()

	case "startGame":
		s.mu.Lock()
		if s.game != room.GameStopped {
			s.mu.Unlock()
			return
		}
		s.game = room.GameRunning
		s.scores = &models.Scores{ScoreLimit: s.scoreLimit, TimeLimit: float64(s.timeLimit * 60)}
		s.discs = []models.DiscProperties{Ball}
		for _, p := range s.players {
			if p.Team != models.Spectators {
				s.playerDiscs[p.ID] = playerDisc(p.Team)
			}
		}
		s.mu.Unlock()
		s.emit(events.GameStart{})
		s.pushState()

	case "stopGame":
		s.mu.Lock()
		if s.game == room.GameStopped {
			s.mu.Unlock()
			return
		}
		s.game = room.GameStopped
		s.scores = nil
		s.discs = nil
		s.playerDiscs = make(map[int]models.DiscProperties)
		s.mu.Unlock()
		s.emit(events.GameStop{})
		s.pushState()

	case "pauseGame":
		var paused bool
		if cmd.Arg(0, &paused) != nil {
			return
		}
		s.mu.Lock()
		var ev events.Event
		switch {
		case paused && s.game == room.GameRunning:
			s.game = room.GamePaused
			ev = events.GamePause{}
		case !paused && s.game == room.GamePaused:
			s.game = room.GameRunning
			ev = events.GameUnpause{}
		}
		s.mu.Unlock()
		if ev != nil {
			s.emit(ev)
			s.pushState()
		}

	case "setDiscProperties":
		var idx int
		var u models.DiscPropertiesUpdate
		if cmd.Arg(0, &idx) != nil || cmd.Arg(1, &u) != nil {
			return
		}
		s.mu.Lock()
		ok := idx >= 0 && idx < len(s.discs)
		if ok {
			s.discs[idx] = s.discs[idx].Apply(u)
		}
		s.mu.Unlock()
		if ok {
			s.pushState()
		}

	case "setPlayerDiscProperties":
		var id int
		var u models.DiscPropertiesUpdate
		if cmd.Arg(0, &id) != nil || cmd.Arg(1, &u) != nil {
			return
		}
		s.mu.Lock()
		d, ok := s.playerDiscs[id]
		if ok {
			s.playerDiscs[id] = d.Apply(u)
		}
		s.mu.Unlock()
		if ok {
			s.pushState()
		}

	case "resetPositions":
		s.mu.Lock()
		running := s.game != room.GameStopped
		if running {
			s.discs[0] = Ball
			for id := range s.playerDiscs {
				for _, p := range s.players {
					if p.ID == id {
						s.playerDiscs[id] = playerDisc(p.Team)
					}
				}
			}
		}
		s.mu.Unlock()
		if running {
			s.emit(events.PositionsReset{})
			s.pushState()
		}

	case "setDefaultStadium":
		var name string
		if cmd.Arg(0, &name) != nil || !stadium.IsDefault(name) {
			return
		}
		s.changeStadium(name)

	case "setCustomStadium":
		var text string
		if cmd.Arg(0, &text) != nil {
			return
		}
		st, err := stadium.Parse([]byte(text))
		if err != nil {
			s.send(frame{Type: room.FrameError, Error: &room.HostError{Code: "invalid_stadium", Message: err.Error()}})
			return
		}
		s.changeStadium(st.Name)

	case "setTeamsLock":
		var locked bool
		if cmd.Arg(0, &locked) == nil {
			s.emit(events.TeamsLockChange{Locked: locked})
		}

	case "setKickRateLimit":
		var ev events.KickRateLimitSet
		if cmd.Arg(0, &ev.Min) == nil && cmd.Arg(1, &ev.Rate) == nil && cmd.Arg(2, &ev.Burst) == nil {
			s.emit(ev)
		}

	case "startRecording":
		s.mu.Lock()
		s.recording = true
		s.mu.Unlock()
	}
}

func (s *Server) changeStadium(name string) {
	s.mu.Lock()
	if s.game != room.GameStopped {
		s.mu.Unlock()
		s.send(frame{Type: room.FrameError, Error: &room.HostError{Code: "game_running", Message: "cannot change stadium while a game is in progress"}})
		return
	}
	s.stadiumName = name
	s.mu.Unlock()
	s.emit(events.StadiumChange{NewStadiumName: name})
}
