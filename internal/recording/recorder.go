package recording

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/hbroom/internal/events"
	"github.com/jason-s-yu/hbroom/internal/room"
)

// Recorder drives the room's single recording toggle and saves what comes
// out of it.
type Recorder struct {
	h        room.Handle
	store    Store
	log      logrus.FieldLogger
	roomName string
	timeout  time.Duration

	mu        sync.Mutex
	active    bool
	startedAt time.Time
	stadium   string

	// saved receives every persisted recording; nil unless set by tests.
	saved chan<- *Recording
}

func NewRecorder(h room.Handle, store Store, roomName string, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{
		h:        h,
		store:    store,
		log:      log.WithField("component", "recorder"),
		roomName: roomName,
		timeout:  10 * time.Second,
	}
}

// Active reports whether a recording is in progress.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start begins a recording. Starting while active is a no-op.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return nil
	}
	if err := r.h.StartRecording(); err != nil {
		return err
	}
	r.active = true
	r.startedAt = time.Now().UTC()
	return nil
}

// Stop ends the recording and saves it. It returns nil, nil when the host had
// nothing recorded. Do not call it from an event handler: the answer arrives
// on the goroutine that runs handlers.
func (r *Recorder) Stop(ctx context.Context) (*Recording, error) {
	r.mu.Lock()
	started, stadium := r.startedAt, r.stadium
	r.active = false
	r.mu.Unlock()

	blob, err := r.h.StopRecording(ctx)

	if err != nil || blob == nil {
		return nil, err
	}
	if started.IsZero() {
		started = time.Now().UTC()
	}
	rec := &Recording{
		RoomName:  r.roomName,
		Stadium:   stadium,
		StartedAt: started,
		StoppedAt: time.Now().UTC(),
		Data:      blob,
	}
	if err := r.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"recording": rec.ID, "size": rec.Size}).Info("recording saved")
	if r.saved != nil {
		r.saved <- rec
	}
	return rec, nil
}

// Attach records every game: start on gameStart, stop and save on gameStop.
// Both run in event order on a worker goroutine, so a stop still waiting for
// its blob never swallows the start of the next game.
func (r *Recorder) Attach(reg *events.Registry) (detach func()) {
	ops := make(chan bool, 16)
	quit := make(chan struct{})
	go r.follow(ops, quit)

	queue := func(start bool) {
		select {
		case ops <- start:
		default:
			r.log.WithField("start", start).Warn("recorder is behind, dropping game event")
		}
	}
	unsubs := []func(){
		events.On(reg, func(events.GameStart) { queue(true) }),
		events.On(reg, func(events.GameStop) { queue(false) }),
		events.On(reg, func(ev events.StadiumChange) {
			r.mu.Lock()
			r.stadium = ev.NewStadiumName
			r.mu.Unlock()
		}),
	}
	var once sync.Once
	return func() {
		for _, u := range unsubs {
			u()
		}
		once.Do(func() { close(quit) })
	}
}

func (r *Recorder) follow(ops <-chan bool, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-r.h.Done():
			return
		case start := <-ops:
			if start {
				if err := r.Start(); err != nil {
					r.log.WithError(err).Warn("could not start recording")
				}
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			if _, err := r.Stop(ctx); err != nil {
				r.log.WithError(err).Warn("could not save recording")
			}
			cancel()
		}
	}
}
