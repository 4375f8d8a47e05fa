package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heropage/internal/domain"
	"heropage/internal/metrics"
	"heropage/internal/tooltip"
)

var (
	// ErrSessionNotFound is returned for an unknown or unmounted session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned by Mount when the session limit is reached
	ErrTooManySessions = errors.New("too many sessions")
)

// TooltipPayload is the payload of a tooltip_state event
type TooltipPayload struct {
	From    domain.TooltipState `json:"from"`
	To      domain.TooltipState `json:"to"`
	Phase   string              `json:"phase"`
	Visible bool                `json:"visible"`
	Hover   domain.HoverState   `json:"hover"`
	Version uint64              `json:"version"`
}

// SessionState is the externally visible state of one session
type SessionState struct {
	Session string              `json:"session"`
	Hover   domain.HoverState   `json:"hover"`
	State   domain.TooltipState `json:"state"`
	Phase   string              `json:"phase"`
	Visible bool                `json:"visible"`
	Version uint64              `json:"version"`
}

func newSessionState(id string, s tooltip.Snapshot) SessionState {
	return SessionState{
		Session: id,
		Hover:   s.Hover,
		State:   s.State,
		Phase:   s.State.Phase(),
		Visible: s.State.Visible(),
		Version: s.Version,
	}
}

type session struct {
	id       string
	machine  *tooltip.Machine
	created  time.Time
	lastSeen time.Time

	// releasing is set by Release and cleared by any later use; releaseGen
	// tells a pending release apart from an older one. Both under the
	// manager's lock.
	releasing  bool
	releaseGen uint64

	// dispatch serializes pointer events so lastSeq and the machine agree
	dispatch sync.Mutex
	lastSeq  uint64
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithSessionClock sets the clock the tooltip machines schedule on
func WithSessionClock(c tooltip.Clock) SessionOption {
	return func(m *SessionManager) {
		m.clock = c
	}
}

// WithTransition sets the tooltip transition duration
func WithTransition(d time.Duration) SessionOption {
	return func(m *SessionManager) {
		if d > 0 {
			m.duration = d
		}
	}
}

// WithMaxSessions caps the number of mounted sessions, 0 means unlimited
func WithMaxSessions(n int) SessionOption {
	return func(m *SessionManager) {
		m.max = n
	}
}

// WithNow sets the wall clock used for idle tracking
func WithNow(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		m.now = now
	}
}

// WithSessionLogger sets the logger
func WithSessionLogger(l *zap.Logger) SessionOption {
	return func(m *SessionManager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithSessionMetrics sets the metrics sink
func WithSessionMetrics(mt *metrics.Metrics) SessionOption {
	return func(m *SessionManager) {
		m.metrics = mt
	}
}

// WithAlive registers a check that keeps a session from being swept, such
// as an open event stream
func WithAlive(alive func(id string) bool) SessionOption {
	return func(m *SessionManager) {
		m.alive = alive
	}
}

// SessionManager owns the mounted Hero instances and their tooltip machines
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session

	bus      *EventBus
	clock    tooltip.Clock
	duration time.Duration
	max      int
	now      func() time.Time
	alive    func(id string) bool
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewSessionManager creates a session manager publishing to bus
func NewSessionManager(bus *EventBus, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*session),
		bus:      bus,
		clock:    tooltip.RealClock{},
		duration: tooltip.DefaultDuration,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount creates a session with a fresh tooltip machine in the hidden state
func (m *SessionManager) Mount() (SessionState, error) {
	id := uuid.NewString()

	machine := tooltip.New(
		tooltip.WithClock(m.clock),
		tooltip.WithDuration(m.duration),
		tooltip.OnChange(func(c tooltip.Change) {
			m.metrics.ObserveTransition(c.To.String())
			m.publish(Event{
				Type:    EventTooltipState,
				Session: id,
				Payload: TooltipPayload{
					From:    c.From,
					To:      c.To,
					Phase:   c.To.Phase(),
					Visible: c.To.Visible(),
					Hover:   c.Hover,
					Version: c.Version,
				},
			})
		}),
	)

	now := m.now()
	m.mu.Lock()
	if m.max > 0 && len(m.sessions) >= m.max {
		m.mu.Unlock()
		machine.Close()
		return SessionState{}, fmt.Errorf("%w: limit %d", ErrTooManySessions, m.max)
	}
	m.sessions[id] = &session{id: id, machine: machine, created: now, lastSeen: now}
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessions(count)
	m.logger.Debug("session mounted", zap.String("session", id), zap.Int("sessions", count))
	m.publish(Event{Type: EventSessionMounted, Session: id})

	return newSessionState(id, machine.Snapshot()), nil
}

// lookup returns the session and marks it as seen
func (m *SessionManager) lookup(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastSeen = m.now()
	if s.releasing {
		s.releasing = false
		s.releaseGen++
	}
	return s, nil
}

// Dispatch applies a pointer event to a session's machine. It reports
// whether the event changed the state.
func (m *SessionManager) Dispatch(id string, ev domain.PointerEvent) (SessionState, bool, error) {
	return m.DispatchSeq(id, ev, 0)
}

// DispatchSeq is Dispatch for clients that number their pointer events.
// An event numbered at or below the last applied one arrived late and is
// dropped without changing the state. Seq 0 is always applied.
func (m *SessionManager) DispatchSeq(id string, ev domain.PointerEvent, seq uint64) (SessionState, bool, error) {
	parsed, err := domain.ParsePointerEvent(string(ev))
	if err != nil {
		return SessionState{}, false, err
	}

	s, err := m.lookup(id)
	if err != nil {
		return SessionState{}, false, err
	}

	s.dispatch.Lock()
	if seq != 0 && seq <= s.lastSeq {
		last := s.lastSeq
		s.dispatch.Unlock()
		m.logger.Debug("dropped late pointer event",
			zap.String("session", id),
			zap.String("event", string(parsed)),
			zap.Uint64("seq", seq),
			zap.Uint64("last_seq", last))
		m.metrics.ObservePointer(string(parsed), false)
		return newSessionState(id, s.machine.Snapshot()), false, nil
	}
	if seq != 0 {
		s.lastSeq = seq
	}
	changed, err := s.machine.Dispatch(parsed)
	s.dispatch.Unlock()
	if err != nil {
		return SessionState{}, false, err
	}
	m.metrics.ObservePointer(string(parsed), changed)

	return newSessionState(id, s.machine.Snapshot()), changed, nil
}

// State returns a session's current state
func (m *SessionManager) State(id string) (SessionState, error) {
	s, err := m.lookup(id)
	if err != nil {
		return SessionState{}, err
	}
	return newSessionState(id, s.machine.Snapshot()), nil
}

// Touch marks a session as active
func (m *SessionManager) Touch(id string) error {
	_, err := m.lookup(id)
	return err
}

// Release unmounts a session once grace has passed, unless the session is
// used again before then (a reconnecting event stream, a pointer event).
// A grace of zero or less unmounts at once.
func (m *SessionManager) Release(id string, grace time.Duration) {
	if grace <= 0 {
		m.Unmount(id)
		return
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	s.releasing = true
	s.releaseGen++
	gen := s.releaseGen
	m.mu.Unlock()

	m.clock.AfterFunc(grace, func() {
		m.mu.Lock()
		cur, ok := m.sessions[id]
		expired := ok && cur == s && s.releasing && s.releaseGen == gen
		m.mu.Unlock()
		if !expired || (m.alive != nil && m.alive(id)) {
			return
		}
		if m.Unmount(id) {
			m.logger.Debug("released session", zap.String("session", id))
		}
	})
}

// Unmount closes a session's machine and forgets it. Reports whether the
// session existed.
func (m *SessionManager) Unmount(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.machine.Close()

	m.metrics.SetSessions(count)
	m.logger.Debug("session unmounted", zap.String("session", id), zap.Int("sessions", count))
	m.publish(Event{Type: EventSessionUnmounted, Session: id})
	return true
}

// Sweep unmounts sessions idle for longer than maxIdle and returns how many
// were removed
func (m *SessionManager) Sweep(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []string
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	removed := 0
	for _, id := range stale {
		if m.alive != nil && m.alive(id) {
			_ = m.Touch(id)
			continue
		}
		if m.Unmount(id) {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("swept idle sessions", zap.Int("removed", removed), zap.Int("sessions", m.Count()))
	}
	return removed
}

// RunSweeper sweeps on every interval until ctx is done
func (m *SessionManager) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}

// Transition returns the tooltip transition duration of new sessions
func (m *SessionManager) Transition() time.Duration {
	return m.duration
}

// Count returns the number of mounted sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close unmounts every session
func (m *SessionManager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Unmount(id)
	}
}

func (m *SessionManager) publish(ev Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}
