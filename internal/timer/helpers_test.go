package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"focustimer/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeNow struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeNow) Advance(d time.Duration) time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	return f.now
}

type manualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

type manualTickers struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (m *manualTickers) New(time.Duration) Ticker {
	ticker := &manualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	m.mu.Lock()
	m.tickers = append(m.tickers, ticker)
	m.mu.Unlock()
	return ticker
}

func (m *manualTickers) Latest() *manualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tickers) == 0 {
		return nil
	}
	return m.tickers[len(m.tickers)-1]
}

func (m *manualTickers) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

type staticAuth bool

func (a staticAuth) Authenticated() bool { return bool(a) }

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) CreateSession(ctx context.Context, record model.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(record model.SessionRecord) {
	m.Called(record)
}

type harness struct {
	machine *Machine
	now     *fakeNow
	tickers *manualTickers
}

func newHarness(t *testing.T, cfg model.TimerConfiguration, auth Authenticator, recorder Submitter) *harness {
	t.Helper()
	h := &harness{
		now:     &fakeNow{now: t0},
		tickers: &manualTickers{},
	}
	h.machine = NewMachine(Options{
		Config:   cfg,
		Auth:     auth,
		Recorder: recorder,
		Clock:    NewClock(time.Second, h.tickers.New),
		Now:      h.now.Now,
	})
	t.Cleanup(h.machine.Close)
	return h
}

// fire delivers n ticks to the armed clock, advancing the fake time by one
// second before each tick.
func (h *harness) fire(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ticker := h.tickers.Latest()
		require.NotNil(t, ticker, "clock was never armed")
		at := h.now.Advance(time.Second)
		select {
		case ticker.ch <- at:
		case <-ticker.stopped:
			t.Fatalf("tick %d sent to a stopped clock", i+1)
		case <-time.After(2 * time.Second):
			t.Fatalf("tick %d was not consumed", i+1)
		}
	}
}

func (h *harness) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	var last State
	require.Eventually(t, func() bool {
		last = h.machine.Snapshot()
		return cond(last)
	}, 2*time.Second, time.Millisecond)
	return last
}

func (h *harness) waitRemaining(t *testing.T, remaining int) {
	t.Helper()
	h.waitFor(t, func(s State) bool { return s.RemainingSeconds == remaining })
}

func (h *harness) runPhase(t *testing.T) State {
	t.Helper()
	before := h.machine.Snapshot()
	h.machine.Start()
	h.fire(t, before.RemainingSeconds)
	return h.waitFor(t, func(s State) bool { return s.Phase != before.Phase || s.FocusCyclesCompleted != before.FocusCyclesCompleted })
}

func defaultConfig() model.TimerConfiguration {
	return model.TimerConfiguration{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15}
}
