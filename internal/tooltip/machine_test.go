package tooltip

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"heropage/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) record(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) states() []domain.TooltipState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TooltipState, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.To)
	}
	return out
}

func newTestMachine() (*Machine, *ManualClock, *recorder) {
	clock := NewManualClock()
	rec := &recorder{}
	m := New(WithClock(clock), WithDuration(2*time.Second), OnChange(rec.record))
	return m, clock, rec
}

func TestMachineInitialState(t *testing.T) {
	m, clock, rec := newTestMachine()

	assert.Equal(t, domain.HoverHidden, m.Hover())
	assert.Equal(t, domain.TooltipHidden, m.State())
	assert.False(t, m.State().Visible())
	assert.Zero(t, clock.Pending())
	assert.Empty(t, rec.states())
}

func TestMachineEnter(t *testing.T) {
	m, clock, rec := newTestMachine()

	require.True(t, m.Enter())
	assert.Equal(t, domain.HoverShown, m.Hover())
	assert.Equal(t, domain.TooltipEntering, m.State())
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, domain.TooltipEntering, m.State(), "settles only after the full duration")

	clock.Advance(time.Millisecond)
	assert.Equal(t, domain.TooltipShown, m.State())
	assert.Equal(t, []domain.TooltipState{domain.TooltipEntering, domain.TooltipShown}, rec.states())
}

func TestMachineRepeatedEnterIsNoop(t *testing.T) {
	m, clock, rec := newTestMachine()

	require.True(t, m.Enter())
	clock.Advance(time.Second)
	assert.False(t, m.Enter(), "second enter must not toggle")
	assert.Equal(t, 1, clock.Pending(), "second enter must not restart the transition")

	clock.Advance(time.Second)
	assert.Equal(t, domain.TooltipShown, m.State())
	assert.Equal(t, []domain.TooltipState{domain.TooltipEntering, domain.TooltipShown}, rec.states())
}

func TestMachineEnterThenLeave(t *testing.T) {
	m, clock, rec := newTestMachine()

	m.Enter()
	clock.Advance(2 * time.Second)
	require.True(t, m.Leave())
	assert.Equal(t, domain.HoverHidden, m.Hover())
	assert.Equal(t, domain.TooltipExiting, m.State())

	clock.Advance(2 * time.Second)
	assert.Equal(t, domain.TooltipHidden, m.State())
	assert.Equal(t, []domain.TooltipState{
		domain.TooltipEntering,
		domain.TooltipShown,
		domain.TooltipExiting,
		domain.TooltipHidden,
	}, rec.states())
}

func TestMachineLeaveWhileHiddenIsNoop(t *testing.T) {
	m, clock, rec := newTestMachine()

	assert.False(t, m.Leave())
	assert.Zero(t, clock.Pending())
	assert.Empty(t, rec.states())
}

func TestMachineRapidToggleSupersedes(t *testing.T) {
	m, clock, rec := newTestMachine()

	m.Enter()
	clock.Advance(500 * time.Millisecond)
	m.Leave()
	clock.Advance(500 * time.Millisecond)
	m.Enter()

	assert.Equal(t, domain.TooltipEntering, m.State())
	assert.Equal(t, 1, clock.Pending(), "superseded timers are cancelled")

	// the first enter's timer would have fired here
	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, domain.TooltipEntering, m.State())

	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, domain.TooltipShown, m.State())
	assert.Equal(t, []domain.TooltipState{
		domain.TooltipEntering,
		domain.TooltipExiting,
		domain.TooltipEntering,
		domain.TooltipShown,
	}, rec.states())
}

func TestMachineHoverFollowsLastEvent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		m, clock, rec := newTestMachine()
		n := rng.Intn(20)
		var last domain.PointerEvent
		toggles := 0
		want := domain.HoverHidden

		for j := 0; j < n; j++ {
			ev := domain.PointerLeave
			if rng.Intn(2) == 0 {
				ev = domain.PointerEnter
			}
			changed, err := m.Dispatch(ev)
			require.NoError(t, err)

			next := ev == domain.PointerEnter
			if domain.HoverState(next) != want {
				toggles++
				assert.True(t, changed)
			} else {
				assert.False(t, changed, "redundant %s must not toggle", ev)
			}
			want = domain.HoverState(next)
			last = ev

			clock.Advance(time.Duration(rng.Intn(3000)) * time.Millisecond)
		}

		wantHover := domain.HoverState(last == domain.PointerEnter)
		assert.Equal(t, wantHover, m.Hover(), "sequence %d", i)

		transitions := 0
		for _, s := range rec.states() {
			if s == domain.TooltipEntering || s == domain.TooltipExiting {
				transitions++
			}
		}
		assert.Equal(t, toggles, transitions, "sequence %d", i)
		m.Close()
	}
}

func TestMachineDispatchInvalid(t *testing.T) {
	m, _, _ := newTestMachine()

	_, err := m.Dispatch(domain.PointerEvent("click"))
	assert.ErrorIs(t, err, domain.ErrInvalidPointerEvent)
	assert.Equal(t, domain.HoverHidden, m.Hover())
}

func TestMachineClose(t *testing.T) {
	m, clock, rec := newTestMachine()

	m.Enter()
	m.Close()
	assert.Zero(t, clock.Pending())

	clock.Advance(5 * time.Second)
	assert.Equal(t, domain.TooltipEntering, m.State(), "closed machine does not settle")
	assert.False(t, m.Leave())
	assert.Len(t, rec.states(), 1)
}

func TestMachineRealClock(t *testing.T) {
	settled := make(chan Change, 4)
	m := New(WithDuration(10*time.Millisecond), OnChange(func(c Change) {
		settled <- c
	}))
	defer m.Close()

	m.Enter()
	require.Equal(t, domain.TooltipEntering, (<-settled).To)

	select {
	case c := <-settled:
		assert.Equal(t, domain.TooltipShown, c.To)
	case <-time.After(time.Second):
		t.Fatal("transition did not settle")
	}
}

func TestMachineConcurrentEvents(t *testing.T) {
	m, clock, _ := newTestMachine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(enter bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if enter {
					m.Enter()
				} else {
					m.Leave()
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()

	m.Leave()
	clock.Advance(2 * time.Second)
	assert.Equal(t, domain.HoverHidden, m.Hover())
	assert.Equal(t, domain.TooltipHidden, m.State())
	m.Close()
}

func TestMachineVersions(t *testing.T) {
	m, clock, rec := newTestMachine()
	assert.Zero(t, m.Snapshot().Version)

	m.Enter()
	clock.Advance(2 * time.Second)
	m.Leave()
	m.Enter()

	rec.mu.Lock()
	var versions []uint64
	for _, c := range rec.changes {
		versions = append(versions, c.Version)
	}
	rec.mu.Unlock()

	assert.Equal(t, []uint64{1, 2, 3, 4}, versions)
	assert.Equal(t, uint64(4), m.Snapshot().Version)
}

func TestMachineDeliversInOrder(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}

	var once sync.Once
	m := New(WithClock(NewManualClock()), OnChange(func(c Change) {
		once.Do(func() {
			close(started)
			<-release
		})
		rec.record(c)
	}))
	defer m.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Enter()
	}()
	<-started

	// the enter notification is still in flight; the leave queues behind it
	require.True(t, m.Leave())
	assert.Empty(t, rec.states())

	close(release)
	<-done

	assert.Equal(t, []domain.TooltipState{domain.TooltipEntering, domain.TooltipExiting}, rec.states())
	rec.mu.Lock()
	assert.Equal(t, uint64(1), rec.changes[0].Version)
	assert.Equal(t, uint64(2), rec.changes[1].Version)
	rec.mu.Unlock()
}

func TestMachineReentrantCallback(t *testing.T) {
	rec := &recorder{}
	var m *Machine
	m = New(WithClock(NewManualClock()), OnChange(func(c Change) {
		rec.record(c)
		if c.To == domain.TooltipEntering {
			m.Leave()
		}
	}))
	defer m.Close()

	m.Enter()
	assert.Equal(t, []domain.TooltipState{domain.TooltipEntering, domain.TooltipExiting}, rec.states())
}
