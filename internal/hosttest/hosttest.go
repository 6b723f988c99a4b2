// Package hosttest runs an in-process stand-in for the headless bridge. It
// speaks the same frames as the real bridge and keeps just enough room state
// (players, discs, scores, recording) to exercise clients end to end.
package hosttest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/models"
	"github.com/jason-s-yu/hbroom/internal/room"
)

// LinkPrefix starts every room link the fake host hands out.
const LinkPrefix = "https://www.haxball.com/play?c="

// Command is a command or call frame received from the client.
type Command struct {
	Name string
	Args []json.RawMessage
}

// Arg decodes argument i into v.
func (c Command) Arg(i int, v any) error {
	if i >= len(c.Args) {
		return fmt.Errorf("%s: missing argument %d", c.Name, i)
	}
	return json.Unmarshal(c.Args[i], v)
}

type frame struct {
	Type  string            `json:"type"`
	Seq   uint64            `json:"seq,omitempty"`
	Name  string            `json:"name,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
	Data  json.RawMessage   `json:"data,omitempty"`
	Error *room.HostError   `json:"error,omitempty"`
}

// Server is a fake bridge. Configure the exported fields before the client
// connects.
type Server struct {
	URL string

	// AcceptToken decides whether init succeeds. The default accepts tokens
	// that look like headless tokens ("thr1." prefix).
	AcceptToken func(token string) bool

	// SkipLink accepts the room but never sends roomLink, like a host that
	// silently drops a bad token.
	SkipLink bool

	Flags models.CollisionFlags
	Log   logrus.FieldLogger

	srv *httptest.Server

	writeMu sync.Mutex

	mu          sync.Mutex
	conn        *websocket.Conn
	connected   chan struct{}
	connOnce    sync.Once
	config      room.RoomConfig
	env         room.Env
	nextID      int
	players     []models.Player
	discs       []models.DiscProperties
	playerDiscs map[int]models.DiscProperties
	inputs      map[int]models.Input
	scores      *models.Scores
	game        room.GameState
	stadiumName string
	recording   bool
	scoreLimit  int
	timeLimit   int
	commands    []Command
	seq         uint64
	replies     map[uint64]chan room.ChatReply
}

// New starts a fake bridge. It is shut down by tb.Cleanup.
func New(tb testing.TB) *Server {
	s := &Server{
		AcceptToken: func(token string) bool { return strings.HasPrefix(token, "thr1.") },
		Flags:       models.DefaultCollisionFlags,
		Log:         logrus.StandardLogger(),
		connected:   make(chan struct{}),
		nextID:      1,
		playerDiscs: make(map[int]models.DiscProperties),
		inputs:      make(map[int]models.Input),
		game:        room.GameStopped,
		stadiumName: "Classic",
		scoreLimit:  3,
		timeLimit:   3,
		replies:     make(map[uint64]chan room.ChatReply),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	s.URL = "ws" + strings.TrimPrefix(s.srv.URL, "http")
	tb.Cleanup(s.Close)
	return s
}

// Close drops the client and stops the server.
func (s *Server) Close() {
	s.Disconnect()
	s.srv.Close()
}

// Disconnect closes the client connection abnormally, as if the host died.
func (s *Server) Disconnect() {
	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.mu.Unlock()
	if c != nil {
		c.CloseNow()
	}
}

// Connected is closed once a client passes init.
func (s *Server) Connected() <-chan struct{} { return s.connected }

// Config is the RoomConfig the client sent.
func (s *Server) Config() room.RoomConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Env is the environment override block the client sent.
func (s *Server) Env() room.Env {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.env
}

func (s *Server) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

func (s *Server) StadiumName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stadiumName
}

// Commands returns every command and call received so far, in order.
func (s *Server) Commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.commands...)
}

// WaitCommand blocks until a command called name has arrived and returns the
// latest one.
func (s *Server) WaitCommand(ctx context.Context, name string) (Command, error) {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for {
		cmds := s.Commands()
		for i := len(cmds) - 1; i >= 0; i-- {
			if cmds[i].Name == name {
				return cmds[i], nil
			}
		}
		select {
		case <-ctx.Done():
			return Command{}, fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-tick.C:
		}
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{room.Subprotocol},
	})
	if err != nil {
		s.Log.WithError(err).Warn("hosttest: accept failed")
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(32 << 20)
	ctx := r.Context()

	var init frame
	if err := wsjson.Read(ctx, c, &init); err != nil || init.Type != room.FrameInit {
		c.Close(websocket.StatusProtocolError, "expected init")
		return
	}
	var payload room.InitPayload
	if err := json.Unmarshal(init.Data, &payload); err != nil {
		s.refuse(ctx, c, room.CodeInvalidConfig, err.Error())
		return
	}
	if !s.AcceptToken(payload.Config.Token) {
		s.refuse(ctx, c, room.CodeUnauthorized, "invalid or expired token")
		return
	}
	if strings.TrimSpace(payload.Config.RoomName) == "" {
		s.refuse(ctx, c, room.CodeInvalidConfig, "roomName is required")
		return
	}

	s.mu.Lock()
	s.conn = c
	s.config = payload.Config
	s.env = payload.Env
	s.mu.Unlock()

	ready, _ := json.Marshal(room.ReadyPayload{CollisionFlags: s.Flags})
	if err := s.write(c, frame{Type: room.FrameReady, Data: ready}); err != nil {
		return
	}
	s.connOnce.Do(func() { close(s.connected) })

	if !s.SkipLink {
		code := strings.ReplaceAll(uuid.NewString(), "-", "")[:11]
		s.emit(events.RoomLink{URL: LinkPrefix + code})
		s.pushState()
	}

	for {
		var f frame
		if err := wsjson.Read(ctx, c, &f); err != nil {
			return
		}
		s.receive(f)
	}
}

func (s *Server) refuse(ctx context.Context, c *websocket.Conn, code, msg string) {
	_ = wsjson.Write(ctx, c, frame{Type: room.FrameError, Error: &room.HostError{Code: code, Message: msg}})
	c.Close(websocket.StatusNormalClosure, code)
}

func (s *Server) write(c *websocket.Conn, f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c, f)
}

func (s *Server) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Server) send(f frame) {
	c := s.current()
	if c == nil {
		return
	}
	if err := s.write(c, f); err != nil {
		s.Log.WithError(err).Debug("hosttest: write failed")
	}
}

func (s *Server) emitSeq(ev events.Event, seq uint64) {
	env, err := room.Event(ev, seq)
	if err != nil {
		s.Log.WithError(err).Error("hosttest: encode event")
		return
	}
	s.send(frame{Type: env.Type, Seq: env.Seq, Name: env.Name, Data: env.Data})
}

func (s *Server) emit(ev events.Event) { s.emitSeq(ev, 0) }

// Emit sends an arbitrary event, for notifications the fake host does not
// generate on its own (goals, kicks, ticks).
func (s *Server) Emit(ev events.Event) { s.emit(ev) }

func (s *Server) snapshot() room.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := room.Snapshot{
		Players:     append([]models.Player(nil), s.players...),
		Discs:       append([]models.DiscProperties(nil), s.discs...),
		PlayerDiscs: make(map[int]models.DiscProperties, len(s.playerDiscs)),
		Inputs:      make(map[int]models.Input, len(s.inputs)),
		Game:        s.game,
	}
	for id, d := range s.playerDiscs {
		snap.PlayerDiscs[id] = d
	}
	for i, p := range snap.Players {
		if d, ok := s.playerDiscs[p.ID]; ok {
			pos := d.Position()
			snap.Players[i].Position = &pos
		}
	}
	for id, in := range s.inputs {
		snap.Inputs[id] = in
	}
	if s.scores != nil {
		sc := *s.scores
		snap.Scores = &sc
	}
	return snap
}

func (s *Server) pushState() {
	data, err := json.Marshal(s.snapshot())
	if err != nil {
		s.Log.WithError(err).Error("hosttest: encode state")
		return
	}
	s.send(frame{Type: room.FrameState, Data: data})
}

// Join adds a player and announces it.
func (s *Server) Join(name string) models.Player {
	s.mu.Lock()
	p := models.Player{
		ID:   s.nextID,
		Name: name,
		Team: models.Spectators,
		Auth: "auth-" + name,
		Conn: fmt.Sprintf("%X", s.nextID*7919),
	}
	s.nextID++
	s.players = append(s.players, p)
	s.mu.Unlock()

	s.emit(events.PlayerJoin{Player: p})
	s.pushState()
	return p
}

// Leave removes a player and announces it.
func (s *Server) Leave(playerID int) {
	p, ok := s.removePlayer(playerID)
	if !ok {
		return
	}
	s.emit(events.PlayerLeave{Player: p})
	s.pushState()
}

// Input reports a player's keys.
func (s *Server) Input(playerID int, in models.Input) {
	s.mu.Lock()
	p, ok := s.player(playerID)
	if ok {
		s.inputs[playerID] = in
	}
	s.mu.Unlock()
	if ok {
		s.emit(events.PlayerInput{Player: p, Input: in})
	}
}

// Chat delivers a chat line and waits for the client's suppression verdict.
func (s *Server) Chat(ctx context.Context, playerID int, message string) (suppressed bool, err error) {
	s.mu.Lock()
	p, ok := s.player(playerID)
	if !ok {
		s.mu.Unlock()
		return false, fmt.Errorf("no player %d", playerID)
	}
	s.seq++
	seq := s.seq
	ch := make(chan room.ChatReply, 1)
	s.replies[seq] = ch
	s.mu.Unlock()

	s.emitSeq(events.PlayerChat{Player: p, Message: message}, seq)

	select {
	case reply := <-ch:
		return reply.Suppress, nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.replies, seq)
		s.mu.Unlock()
		return false, ctx.Err()
	}
}

// player looks up a player; s.mu must be held.
func (s *Server) player(id int) (models.Player, bool) {
	for _, p := range s.players {
		if p.ID == id {
			return p, true
		}
	}
	return models.Player{}, false
}

func (s *Server) updatePlayer(id int, fn func(p *models.Player)) (models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.players {
		if s.players[i].ID == id {
			fn(&s.players[i])
			return s.players[i], true
		}
	}
	return models.Player{}, false
}

func (s *Server) removePlayer(id int) (models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.players {
		if p.ID == id {
			s.players = append(s.players[:i], s.players[i+1:]...)
			delete(s.playerDiscs, id)
			delete(s.inputs, id)
			return p, true
		}
	}
	return models.Player{}, false
}

var errUnknownCall = errors.New("unknown call")
