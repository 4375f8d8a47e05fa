// Package tooltip implements the hover state machine behind the "no Twitter"
// tooltip.
//
// A Machine owns two values: the hover boolean, toggled by pointer enter and
// leave on the Twitter affordance, and the animated tooltip state
// (hidden, entering, shown, exiting). Enter and leave start a timed
// transition through a Clock; a newer transition cancels the one in flight.
package tooltip

import (
	"sync"
	"time"

	"heropage/internal/domain"
)

// DefaultDuration is the enter/exit transition time
const DefaultDuration = 2000 * time.Millisecond

// Change describes one state change of a Machine. Version increases by one
// with every change, in the order the changes were made.
type Change struct {
	From    domain.TooltipState `json:"from"`
	To      domain.TooltipState `json:"to"`
	Hover   domain.HoverState   `json:"hover"`
	Version uint64              `json:"version"`
}

// Snapshot is the current value of a Machine. Version is that of the last
// change, 0 before any.
type Snapshot struct {
	Hover   domain.HoverState   `json:"hover"`
	State   domain.TooltipState `json:"state"`
	Version uint64              `json:"version"`
}

// Option configures a Machine
type Option func(*Machine)

// WithClock sets the clock used to schedule transitions
func WithClock(c Clock) Option {
	return func(m *Machine) {
		m.clock = c
	}
}

// WithDuration sets the transition duration
func WithDuration(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.duration = d
		}
	}
}

// OnChange registers a callback for every state change. The callback runs
// outside the machine's lock and sees changes in version order, one at a
// time. A callback that calls back into the machine has its own change
// delivered after it returns.
func OnChange(f func(Change)) Option {
	return func(m *Machine) {
		m.onChange = f
	}
}

// Machine is the tooltip state machine of one mounted Hero
type Machine struct {
	mu       sync.Mutex
	clock    Clock
	duration time.Duration
	onChange func(Change)

	hover   domain.HoverState
	state   domain.TooltipState
	timer   Timer
	gen     uint64
	version uint64
	closed  bool

	pending  []Change
	draining bool
}

// New creates a machine in the hidden state
func New(opts ...Option) *Machine {
	m := &Machine{
		clock:    RealClock{},
		duration: DefaultDuration,
		hover:    domain.HoverHidden,
		state:    domain.TooltipHidden,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enter handles pointer-enter. It is a no-op when the hover is already shown.
// Reports whether the state changed.
func (m *Machine) Enter() bool {
	m.mu.Lock()
	if m.closed || m.hover == domain.HoverShown {
		m.mu.Unlock()
		return false
	}
	m.hover = domain.HoverShown
	deliver := m.queueLocked(m.beginLocked(domain.TooltipEntering, domain.TooltipShown))
	m.mu.Unlock()

	if deliver {
		m.drain()
	}
	return true
}

// Leave handles pointer-leave. It is a no-op when the hover is already hidden.
// Reports whether the state changed.
func (m *Machine) Leave() bool {
	m.mu.Lock()
	if m.closed || m.hover == domain.HoverHidden {
		m.mu.Unlock()
		return false
	}
	m.hover = domain.HoverHidden
	deliver := m.queueLocked(m.beginLocked(domain.TooltipExiting, domain.TooltipHidden))
	m.mu.Unlock()

	if deliver {
		m.drain()
	}
	return true
}

// Dispatch routes a pointer event to Enter or Leave
func (m *Machine) Dispatch(ev domain.PointerEvent) (bool, error) {
	ev, err := domain.ParsePointerEvent(string(ev))
	if err != nil {
		return false, err
	}
	if ev == domain.PointerEnter {
		return m.Enter(), nil
	}
	return m.Leave(), nil
}

// beginLocked moves into a transitional state and schedules the settle.
// Any transition in flight is superseded.
func (m *Machine) beginLocked(to, settle domain.TooltipState) Change {
	from := m.state
	m.state = to

	if m.timer != nil {
		m.timer.Stop()
	}
	m.gen++
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.duration, func() {
		m.settle(gen, to, settle)
	})

	m.version++
	return Change{From: from, To: to, Hover: m.hover, Version: m.version}
}

func (m *Machine) settle(gen uint64, expect, to domain.TooltipState) {
	m.mu.Lock()
	// a stale timer whose Stop lost the race
	if m.closed || gen != m.gen || m.state != expect {
		m.mu.Unlock()
		return
	}
	m.version++
	change := Change{From: m.state, To: to, Hover: m.hover, Version: m.version}
	m.state = to
	m.timer = nil
	deliver := m.queueLocked(change)
	m.mu.Unlock()

	if deliver {
		m.drain()
	}
}

// queueLocked adds c to the delivery queue. It reports whether the caller
// has to drain the queue; false means another goroutine is draining and
// will deliver c after the changes before it.
func (m *Machine) queueLocked(c Change) bool {
	if m.onChange == nil {
		return false
	}
	m.pending = append(m.pending, c)
	if m.draining {
		return false
	}
	m.draining = true
	return true
}

func (m *Machine) drain() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.draining = false
			m.mu.Unlock()
			return
		}
		c := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		m.onChange(c)
	}
}

// State returns the animated tooltip state
func (m *Machine) State() domain.TooltipState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Hover returns the hover boolean
func (m *Machine) Hover() domain.HoverState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hover
}

// Snapshot returns hover and state together
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Hover: m.hover, State: m.state, Version: m.version}
}

// Duration returns the configured transition duration
func (m *Machine) Duration() time.Duration {
	return m.duration
}

// Close cancels any pending transition. Events after Close are ignored.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
