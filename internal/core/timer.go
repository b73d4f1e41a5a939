package core

import (
	"sync"
	"time"
)

// Timer keys used by the orchestrator.
const (
	TimerRingScreen = "ring-screen"
	TimerDoorScreen = "door-screen"
	TimerCallScreen = "call-screen"
	TimerDoorOpener = "door-opener"
)

// TimerManager owns named, cancelable, single-instance-per-key delayed
// events. A fired timer never mutates state directly: it enqueues
// EventTimerElapsed on the dispatcher, serialized like any other input.
type TimerManager struct {
	d *Dispatcher

	// The map is touched from the dispatcher loop and from time.AfterFunc
	// goroutines, hence the lock. Generations make replace-on-same-key
	// atomic: a canceled or replaced timer's callback sees a stale
	// generation and delivers nothing.
	mu      sync.Mutex
	gen     uint64
	pending map[string]*pendingTimer
}

type pendingTimer struct {
	gen   uint64
	timer *time.Timer
}

// NewTimerManager builds a manager delivering into the dispatcher.
func NewTimerManager(d *Dispatcher) *TimerManager {
	return &TimerManager{
		d:       d,
		pending: make(map[string]*pendingTimer),
	}
}

// Schedule cancels any existing timer under key, then arms a new one.
func (m *TimerManager) Schedule(key string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[key]; ok {
		p.timer.Stop()
	}

	m.gen++
	gen := m.gen
	m.pending[key] = &pendingTimer{
		gen:   gen,
		timer: time.AfterFunc(d, func() { m.fire(key, gen) }),
	}
}

// Cancel stops the timer under key if present; no-op otherwise.
func (m *TimerManager) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.pending[key]; ok {
		p.timer.Stop()
		delete(m.pending, key)
	}
}

// Pending reports whether a timer is armed under key.
func (m *TimerManager) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

func (m *TimerManager) fire(key string, gen uint64) {
	m.mu.Lock()
	p, ok := m.pending[key]
	if !ok || p.gen != gen {
		// Canceled or replaced between firing and delivery.
		m.mu.Unlock()
		return
	}
	delete(m.pending, key)
	m.mu.Unlock()

	m.d.Publish(Event{Kind: EventTimerElapsed, TimerKey: key})
}
