package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler receives an event. The return value only matters for playerChat,
// where true asks the host not to broadcast the message.
type Handler func(ev Event) (suppress bool)

type entry struct {
	id uint64
	fn Handler
}

// Registry maps each event kind to an ordered list of handlers. It is safe to
// subscribe and unsubscribe from any goroutine, including from inside a
// handler; a dispatch in progress keeps the list it started with.
type Registry struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[Kind][]entry
	log      logrus.FieldLogger
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Kind][]entry),
	}
}

// SetLogger sets where handler panics are reported.
func (r *Registry) SetLogger(log logrus.FieldLogger) {
	r.mu.Lock()
	r.log = log
	r.mu.Unlock()
}

// Subscribe appends fn to the handlers for kind. The returned function removes
// it again and may be called more than once.
func (r *Registry) Subscribe(kind Kind, fn Handler) (unsubscribe func()) {
	r.mu.Lock()
	if r.handlers == nil {
		r.handlers = make(map[Kind][]entry)
	}
	r.nextID++
	id := r.nextID
	r.handlers[kind] = append(r.handlers[kind], entry{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(kind, id) })
	}
}

func (r *Registry) remove(kind Kind, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.handlers[kind]
	for i, e := range list {
		if e.id == id {
			// copy so an in-flight dispatch over the old slice is unaffected
			next := make([]entry, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			r.handlers[kind] = next
			return
		}
	}
}

// SubscribeAll registers fn for every kind and returns one unsubscribe for all.
func (r *Registry) SubscribeAll(fn Handler, except ...Kind) (unsubscribe func()) {
	skip := make(map[Kind]bool, len(except))
	for _, k := range except {
		skip[k] = true
	}
	var unsubs []func()
	for _, k := range Kinds {
		if skip[k] {
			continue
		}
		unsubs = append(unsubs, r.Subscribe(k, fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Count returns how many handlers are registered for kind.
func (r *Registry) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[kind])
}

// Dispatch calls every handler for ev.Kind() in registration order and reports
// whether any of them asked for suppression. A panicking handler is logged and
// skipped.
func (r *Registry) Dispatch(ev Event) (suppressed bool) {
	r.mu.Lock()
	list := r.handlers[ev.Kind()]
	r.mu.Unlock()

	for _, e := range list {
		if r.call(e, ev) {
			suppressed = true
		}
	}
	return suppressed
}

func (r *Registry) call(e entry, ev Event) (suppress bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().WithFields(logrus.Fields{
				"event":   ev.Kind(),
				"handler": e.id,
				"panic":   rec,
			}).Error("event handler panicked")
			suppress = false
		}
	}()
	return e.fn(ev)
}

func (r *Registry) logger() logrus.FieldLogger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.log != nil {
		return r.log
	}
	return logrus.StandardLogger()
}

// On subscribes a handler typed to a single event payload.
//
//	events.On(reg, func(ev events.PlayerJoin) { ... })
func On[T Event](r *Registry, fn func(T)) (unsubscribe func()) {
	var zero T
	return r.Subscribe(zero.Kind(), func(ev Event) bool {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
		return false
	})
}

// OnPlayerChat subscribes a chat handler; returning true suppresses the
// message from broadcast.
func OnPlayerChat(r *Registry, fn func(PlayerChat) (suppress bool)) (unsubscribe func()) {
	return r.Subscribe(KindPlayerChat, func(ev Event) bool {
		chat, ok := ev.(PlayerChat)
		return ok && fn(chat)
	})
}
