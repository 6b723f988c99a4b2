// Package room is a typed client for a HaxBall headless host reached through a
// websocket bridge. Init negotiates a room; the returned Room forwards
// commands, mirrors the host's state for synchronous reads and delivers
// events to a registry on a single goroutine.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/middleware"
	"github.com/jason-s-yu/hbroom/internal/models"
)

// Room is a live handle on a headless room. It is meant for a single owner;
// its methods are safe to call from event handlers.
type Room struct {
	ID uuid.UUID

	conn   *websocket.Conn
	opts   Options
	log    logrus.FieldLogger
	events *events.Registry
	flags  models.CollisionFlags

	out chan Envelope
	seq atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan Envelope

	mu     sync.RWMutex
	state  State
	link   string
	mirror mirror

	linked    chan struct{}
	linkOnce  sync.Once
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	cancel    context.CancelFunc
}

// Init connects to the bridge, hands it cfg and waits until the host accepts
// or refuses the room. It does not wait for the room link; watch Linked() or
// subscribe to roomLink for that. ctx bounds the dial and handshake only.
func Init(ctx context.Context, cfg RoomConfig, opts Options) (*Room, error) {
	opts = opts.withDefaults()
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	log := opts.Logger.WithFields(logrus.Fields{"room": id, "roomName": cfg.RoomName})

	conn, _, err := websocket.Dial(ctx, opts.BridgeURL, &websocket.DialOptions{
		HTTPClient:   opts.HTTPClient,
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrUnreachable, opts.BridgeURL, err)
	}
	conn.SetReadLimit(opts.ReadLimit)
	middleware.LogBridgeConnect(log, opts.BridgeURL)

	payload, err := json.Marshal(InitPayload{Config: cfg, Env: opts.Env})
	if err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("room: encode init: %w", err)
	}
	if err := wsjson.Write(ctx, conn, Envelope{Type: FrameInit, Data: payload}); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("%w: send init: %w", ErrUnreachable, err)
	}

	var reply Envelope
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		conn.CloseNow()
		return nil, fmt.Errorf("%w: await ready: %w", ErrUnreachable, err)
	}

	var ready ReadyPayload
	switch reply.Type {
	case FrameReady:
		if len(reply.Data) > 0 {
			if err := json.Unmarshal(reply.Data, &ready); err != nil {
				conn.CloseNow()
				return nil, fmt.Errorf("room: decode ready: %w", err)
			}
		}
	case FrameError:
		conn.Close(websocket.StatusNormalClosure, "init rejected")
		if reply.Error == nil {
			return nil, ErrRejected
		}
		log.WithField("code", reply.Error.Code).Warn("host refused room")
		return nil, reply.Error
	default:
		conn.CloseNow()
		return nil, fmt.Errorf("%w: unexpected %q frame during handshake", ErrRejected, reply.Type)
	}

	if ready.CollisionFlags.IsZero() {
		ready.CollisionFlags = models.DefaultCollisionFlags
	}
	opts.Events.SetLogger(log)

	loopCtx, cancel := context.WithCancel(context.Background())
	r := &Room{
		ID:      id,
		conn:    conn,
		opts:    opts,
		log:     log,
		events:  opts.Events,
		flags:   ready.CollisionFlags,
		out:     make(chan Envelope, opts.QueueSize),
		pending: make(map[uint64]chan Envelope),
		state:   StateConnecting,
		mirror:  newMirror(),
		linked:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go r.writeLoop(loopCtx)
	go r.readLoop(loopCtx)
	log.Info("room initialized, waiting for link")
	return r, nil
}

// Events is the registry notifications are delivered to.
func (r *Room) Events() *events.Registry { return r.events }

// CollisionFlags is the bitmask table the host supplied at creation.
func (r *Room) CollisionFlags() models.CollisionFlags { return r.flags }

// Done is closed once the room reaches StateClosed.
func (r *Room) Done() <-chan struct{} { return r.done }

// Linked is closed when the first room link arrives.
func (r *Room) Linked() <-chan struct{} { return r.linked }

// Err reports why the room closed, or nil while it is open or after Close.
func (r *Room) Err() error {
	select {
	case <-r.done:
		return r.closeErr
	default:
		return nil
	}
}

func (r *Room) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Link is the room URL, empty until roomLink fires.
func (r *Room) Link() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.link
}

// GameState is only meaningful while the room is active.
func (r *Room) GameState() GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mirror.game
}

// Close ends the room. It is safe to call more than once.
func (r *Room) Close() error {
	r.shutdown(nil, true)
	return nil
}

func (r *Room) shutdown(cause error, graceful bool) {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.state = StateClosed
		r.mirror = newMirror()
		r.closeErr = cause
		r.mu.Unlock()
		close(r.done)

		if graceful {
			r.conn.Close(websocket.StatusNormalClosure, "room closed")
		} else {
			r.conn.CloseNow()
		}
		r.cancel()

		r.pendingMu.Lock()
		for seq, ch := range r.pending {
			close(ch)
			delete(r.pending, seq)
		}
		r.pendingMu.Unlock()

		middleware.LogBridgeDisconnect(r.log, r.opts.BridgeURL, cause)
	})
}

func (r *Room) writeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.out:
			wctx, cancel := context.WithTimeout(ctx, r.opts.WriteTimeout)
			err := wsjson.Write(wctx, r.conn, env)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					r.log.WithError(err).WithField("frame", env.Name).Error("bridge write failed")
					r.shutdown(fmt.Errorf("%w: write: %w", ErrUnreachable, err), false)
				}
				return
			}
		}
	}
}

func (r *Room) readLoop(ctx context.Context) {
	for {
		var env Envelope
		if err := wsjson.Read(ctx, r.conn, &env); err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				r.shutdown(nil, false)
			} else {
				r.shutdown(fmt.Errorf("%w: read: %w", ErrUnreachable, err), false)
			}
			return
		}
		r.handleFrame(env)
	}
}

func (r *Room) handleFrame(env Envelope) {
	switch env.Type {
	case FrameEvent:
		ev, err := events.Decode(events.Kind(env.Name), env.Data)
		if err != nil {
			r.log.WithError(err).Warn("dropping undecodable event")
			return
		}
		if !r.applyEvent(ev) {
			return
		}
		suppressed := r.events.Dispatch(ev)
		if env.Seq != 0 && ev.Kind() == events.KindPlayerChat {
			data, _ := json.Marshal(ChatReply{Suppress: suppressed})
			if err := r.enqueue(Envelope{Type: FrameReply, Seq: env.Seq, Data: data}); err != nil {
				r.log.WithError(err).Warn("could not answer chat")
			}
		}

	case FrameState:
		var snap Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			r.log.WithError(err).Warn("dropping undecodable state")
			return
		}
		r.mu.Lock()
		if r.state == StateClosed {
			r.mu.Unlock()
			return
		}
		r.mirror.replace(snap)
		if r.state == StateLinked {
			r.state = StateActive
			r.log.Info("room active")
		}
		r.mu.Unlock()

	case FrameResult:
		r.pendingMu.Lock()
		ch, ok := r.pending[env.Seq]
		delete(r.pending, env.Seq)
		r.pendingMu.Unlock()
		if ok {
			ch <- env
		}

	case FrameError:
		if env.Error != nil {
			r.log.WithFields(logrus.Fields{"code": env.Error.Code, "message": env.Error.Message}).Warn("host reported error")
		}

	default:
		r.log.WithField("frame", env.Type).Debug("ignoring unknown frame")
	}
}

// applyEvent updates the mirror and reports whether the event should still
// be dispatched.
func (r *Room) applyEvent(ev events.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateClosed {
		return false
	}
	if link, ok := ev.(events.RoomLink); ok {
		r.link = link.URL
		if r.state == StateConnecting {
			r.state = StateLinked
		}
		r.linkOnce.Do(func() { close(r.linked) })
		r.log.WithField("url", link.URL).Info("room linked")
		return true
	}
	r.mirror.apply(ev)
	return true
}

// enqueue hands a frame to the writer without blocking.
func (r *Room) enqueue(env Envelope) error {
	select {
	case <-r.done:
		return ErrClosed
	default:
	}
	select {
	case r.out <- env:
		return nil
	case <-r.done:
		return ErrClosed
	default:
		r.log.WithField("frame", env.Name).Warn("command queue full, dropping")
		return ErrBackpressure
	}
}

func (r *Room) command(name string, args ...any) error {
	return r.enqueue(Envelope{Type: FrameCommand, Name: name, Args: args})
}

// call sends a request that the bridge answers with a result frame.
func (r *Room) call(ctx context.Context, name string, args ...any) (json.RawMessage, error) {
	seq := r.seq.Add(1)
	ch := make(chan Envelope, 1)

	r.pendingMu.Lock()
	r.pending[seq] = ch
	r.pendingMu.Unlock()

	forget := func() {
		r.pendingMu.Lock()
		delete(r.pending, seq)
		r.pendingMu.Unlock()
	}

	if err := r.enqueue(Envelope{Type: FrameCall, Seq: seq, Name: name, Args: args}); err != nil {
		forget()
		return nil, err
	}

	select {
	case env, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if env.Error != nil {
			return nil, env.Error
		}
		return env.Data, nil
	case <-r.done:
		forget()
		return nil, ErrClosed
	case <-ctx.Done():
		forget()
		return nil, ctx.Err()
	}
}

