package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Handler processes one event inside the dispatcher loop.
type Handler func(Event)

// Dispatcher is the single serialization point of the orchestrator. Every
// asynchronous input is published onto one queue and handled by a single
// goroutine in strict arrival order, so no handler ever races another.
type Dispatcher struct {
	queue    chan Event
	handlers map[EventKind][]Handler
	log      *zerolog.Logger
}

// NewDispatcher builds a dispatcher with a buffered queue.
func NewDispatcher(logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:    make(chan Event, 256),
		handlers: make(map[EventKind][]Handler),
		log:      logger,
	}
}

// Subscribe registers a handler for an event kind. Registration must finish
// before Run starts; the registry is not guarded.
func (d *Dispatcher) Subscribe(kind EventKind, h Handler) {
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Publish enqueues an event. Safe to call from any goroutine, including from
// inside a running handler.
func (d *Dispatcher) Publish(ev Event) {
	d.queue <- ev
}

// Run drains the queue until the context is canceled. Handlers run to
// completion one at a time; a panicking handler is logged and dropped, never
// propagated past the dispatcher boundary.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.queue:
			d.dispatch(ev)
		}
	}
}

func (d *Dispatcher) dispatch(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int("kind", int(ev.Kind)).Msg("event handler panicked")
		}
	}()

	for _, h := range d.handlers[ev.Kind] {
		h(ev)
	}
}
