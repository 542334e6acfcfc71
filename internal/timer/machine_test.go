package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"focustimer/internal/model"
)

func TestMachine_InitialState(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	state := h.machine.Snapshot()
	require.Equal(t, model.PhaseFocus, state.Phase)
	require.Equal(t, 1500, state.RemainingSeconds)
	require.False(t, state.Running)
	require.Zero(t, state.FocusCyclesCompleted)
	require.Nil(t, state.SessionStartedAt)
	require.Zero(t, h.tickers.Count())
}

func TestMachine_StartPauseCyclingDoesNotDecrement(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	for i := 0; i < 50; i++ {
		h.machine.Start()
		h.machine.Pause()
	}
	require.Equal(t, 1500, h.machine.Snapshot().RemainingSeconds)

	h.machine.Start()
	h.fire(t, 3)
	h.waitRemaining(t, 1497)
	h.machine.Pause()

	for i := 0; i < 10; i++ {
		h.machine.Start()
		h.machine.Pause()
	}
	state := h.machine.Snapshot()
	require.Equal(t, 1497, state.RemainingSeconds)
	require.False(t, state.Running)
}

func TestMachine_PauseKeepsSessionStart(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	h.machine.Start()
	h.fire(t, 5)
	h.waitRemaining(t, 1495)
	h.machine.Pause()

	state := h.machine.Snapshot()
	require.NotNil(t, state.SessionStartedAt)
	require.Equal(t, t0, *state.SessionStartedAt)

	h.now.Advance(time.Minute)
	h.machine.Start()
	require.Equal(t, t0, *h.machine.Snapshot().SessionStartedAt)
}

func TestMachine_ResetRestoresDuration(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	h.machine.Start()
	h.fire(t, 10)
	h.waitRemaining(t, 1490)
	h.machine.Reset()

	state := h.machine.Snapshot()
	require.Equal(t, 1500, state.RemainingSeconds)
	require.False(t, state.Running)
	require.Nil(t, state.SessionStartedAt)
}

func TestMachine_StaleTickIsIgnored(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	h.machine.Start()
	h.machine.mu.Lock()
	staleArm := h.machine.armed
	h.machine.mu.Unlock()

	require.NoError(t, h.machine.SetMode(model.PhaseShortBreak))
	h.machine.tick(staleArm)
	require.Equal(t, 300, h.machine.Snapshot().RemainingSeconds)

	h.machine.Start()
	h.machine.tick(staleArm)
	require.Equal(t, 300, h.machine.Snapshot().RemainingSeconds)
}

func TestMachine_GuestFocusCompletion(t *testing.T) {
	writer := &mockWriter{}
	recorder := NewRecorder(context.Background(), writer, nil)
	h := newHarness(t, defaultConfig(), staticAuth(false), recorder)

	h.machine.Start()
	h.fire(t, 1500)
	state := h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseShortBreak })

	require.Equal(t, 300, state.RemainingSeconds)
	require.False(t, state.Running)
	require.Equal(t, 1, state.FocusCyclesCompleted)
	require.Nil(t, state.SessionStartedAt)

	recorder.Wait()
	writer.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	require.Zero(t, recorder.Recorded())
}

func TestMachine_AuthenticatedCompletionRecordsSession(t *testing.T) {
	taskID := "t1"
	expected := model.SessionRecord{
		TaskID:          &taskID,
		Type:            model.PhaseFocus,
		Status:          model.SessionCompleted,
		DurationSeconds: 1500,
		StartedAt:       t0,
		EndedAt:         t0.Add(1500 * time.Second),
	}

	writer := &mockWriter{}
	writer.On("CreateSession", mock.Anything, expected).Return(nil).Once()
	recorder := NewRecorder(context.Background(), writer, nil)
	events := recorder.Subscribe(1)

	h := newHarness(t, defaultConfig(), staticAuth(true), recorder)
	h.machine.SetTask(context.Background(), &model.TaskSnapshot{ID: "t1", Label: "write report"})

	h.machine.Start()
	h.fire(t, 1500)

	select {
	case event := <-events:
		require.Equal(t, uint64(1), event.Count)
		require.Equal(t, expected, event.Record)
	case <-time.After(2 * time.Second):
		t.Fatal("session recorded event not published")
	}
	recorder.Wait()

	writer.AssertExpectations(t)
	require.Equal(t, uint64(1), recorder.Recorded())
	require.Equal(t, model.PhaseShortBreak, h.machine.Snapshot().Phase)
}

func TestMachine_TaskIsReadAtCompletion(t *testing.T) {
	submitter := &mockSubmitter{}
	submitter.On("Submit", mock.MatchedBy(func(r model.SessionRecord) bool {
		return r.TaskID != nil && *r.TaskID == "second"
	})).Once()

	h := newHarness(t, model.TimerConfiguration{FocusMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 1}, staticAuth(true), submitter)
	h.machine.SetTask(context.Background(), &model.TaskSnapshot{ID: "first"})
	h.machine.Start()
	h.fire(t, 30)
	h.waitRemaining(t, 30)
	h.machine.SetTask(context.Background(), &model.TaskSnapshot{ID: "second"})
	h.fire(t, 30)
	h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseShortBreak })

	require.Eventually(t, func() bool {
		h.machine.mu.Lock()
		defer h.machine.mu.Unlock()
		return !h.machine.processing
	}, time.Second, time.Millisecond)
	submitter.AssertExpectations(t)
}

func TestMachine_RecordFailureStillTransitions(t *testing.T) {
	called := make(chan struct{}, 1)
	writer := &mockWriter{}
	writer.On("CreateSession", mock.Anything, mock.MatchedBy(func(r model.SessionRecord) bool {
		return r.Type == model.PhaseFocus
	})).
		Return(errors.New("network unreachable")).
		Run(func(mock.Arguments) { called <- struct{}{} }).
		Once()
	recorder := NewRecorder(context.Background(), writer, nil)

	h := newHarness(t, defaultConfig(), staticAuth(true), recorder)
	h.machine.Start()
	require.NotPanics(t, func() { h.fire(t, 1500) })

	state := h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseShortBreak })
	require.False(t, state.Running)
	require.Equal(t, 300, state.RemainingSeconds)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("record was not attempted")
	}
	recorder.Wait()
	require.Zero(t, recorder.Recorded())

	// The next phase is still completable and recorded.
	writer.On("CreateSession", mock.Anything, mock.MatchedBy(func(r model.SessionRecord) bool {
		return r.Type == model.PhaseShortBreak && r.DurationSeconds == 300
	})).Return(nil).Once()
	h.machine.Start()
	h.fire(t, 300)
	h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseFocus })

	recorder.Wait()
	writer.AssertExpectations(t)
	require.Equal(t, uint64(1), recorder.Recorded())
}

func TestMachine_DuplicateCompletionSignal(t *testing.T) {
	submitter := &mockSubmitter{}
	submitter.On("Submit", mock.Anything).Once()

	h := newHarness(t, defaultConfig(), staticAuth(true), submitter)
	h.machine.Start()

	h.machine.mu.Lock()
	h.machine.state.RemainingSeconds = 0
	armed := h.machine.armed
	h.machine.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.machine.complete(armed)
		}()
	}
	wg.Wait()
	h.machine.complete(armed)

	state := h.machine.Snapshot()
	require.Equal(t, model.PhaseShortBreak, state.Phase)
	require.Equal(t, 1, state.FocusCyclesCompleted)
	require.Equal(t, 300, state.RemainingSeconds)
	submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestMachine_SetModeWhileRunningDoesNotRecord(t *testing.T) {
	submitter := &mockSubmitter{}
	h := newHarness(t, defaultConfig(), staticAuth(true), submitter)

	h.machine.Start()
	h.fire(t, 100)
	h.waitRemaining(t, 1400)
	require.NoError(t, h.machine.SetMode(model.PhaseLongBreak))

	state := h.machine.Snapshot()
	require.Equal(t, model.PhaseLongBreak, state.Phase)
	require.Equal(t, 900, state.RemainingSeconds)
	require.False(t, state.Running)
	require.Nil(t, state.SessionStartedAt)
	require.Zero(t, state.FocusCyclesCompleted)
	submitter.AssertNotCalled(t, "Submit", mock.Anything)
}

func TestMachine_SetModeRejectsUnknownPhase(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)
	require.Error(t, h.machine.SetMode(model.Phase("nap")))
	require.Equal(t, model.PhaseFocus, h.machine.Snapshot().Phase)
}

func TestMachine_FourthFocusEarnsLongBreak(t *testing.T) {
	h := newHarness(t, model.TimerConfiguration{FocusMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 2}, staticAuth(false), nil)

	var breaks []model.Phase
	for i := 0; i < 4; i++ {
		state := h.runPhase(t)
		breaks = append(breaks, state.Phase)
		require.Equal(t, i+1, state.FocusCyclesCompleted)
		if i < 3 {
			state = h.runPhase(t)
			require.Equal(t, model.PhaseFocus, state.Phase)
		}
	}

	require.Equal(t, []model.Phase{
		model.PhaseShortBreak, model.PhaseShortBreak, model.PhaseShortBreak, model.PhaseLongBreak,
	}, breaks)
	require.Equal(t, 120, h.machine.Snapshot().RemainingSeconds)
}

func TestMachine_ConfigChangeWhileRunningKeepsCountdown(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)

	h.machine.Start()
	h.fire(t, 10)
	h.waitRemaining(t, 1490)

	h.machine.SetConfig(model.TimerConfiguration{FocusMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30})
	require.Equal(t, 1490, h.machine.Snapshot().RemainingSeconds)

	h.machine.Pause()
	h.machine.SetConfig(model.TimerConfiguration{FocusMinutes: 45, ShortBreakMinutes: 10, LongBreakMinutes: 30})
	state := h.machine.Snapshot()
	require.Equal(t, 2700, state.RemainingSeconds)
	require.Nil(t, state.SessionStartedAt)
}

func TestMachine_AutoStartBreaks(t *testing.T) {
	h := newHarness(t, model.TimerConfiguration{FocusMinutes: 1, ShortBreakMinutes: 1, LongBreakMinutes: 1}, staticAuth(false), nil)
	h.machine.SetAutoStart(true, false)

	state := h.runPhase(t)
	require.Equal(t, model.PhaseShortBreak, state.Phase)
	require.True(t, state.Running)
	require.NotNil(t, state.SessionStartedAt)

	h.fire(t, 60)
	state = h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseFocus })
	require.False(t, state.Running)
}

func TestMachine_SubscribeReceivesState(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)
	events := h.machine.Subscribe(8)

	h.machine.Start()
	select {
	case state := <-events:
		require.True(t, state.Running)
	case <-time.After(time.Second):
		t.Fatal("no state event")
	}

	h.machine.Close()
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, time.Millisecond)
}

type memoryPointer struct {
	mu   sync.Mutex
	task *model.TaskSnapshot
	err  error
}

func (p *memoryPointer) CurrentTask(context.Context) (*model.TaskSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task, p.err
}

func (p *memoryPointer) SetCurrentTask(_ context.Context, task *model.TaskSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.task = task
	return nil
}

func TestMachine_RestoreAndPersistTask(t *testing.T) {
	pointer := &memoryPointer{task: &model.TaskSnapshot{ID: "saved", Label: "inbox zero"}}
	machine := NewMachine(Options{Config: defaultConfig(), Tasks: pointer})
	t.Cleanup(machine.Close)

	require.NoError(t, machine.Restore(context.Background()))
	require.Equal(t, "saved", machine.Task().ID)

	machine.SetTask(context.Background(), &model.TaskSnapshot{ID: "next"})
	saved, err := pointer.CurrentTask(context.Background())
	require.NoError(t, err)
	require.Equal(t, "next", saved.ID)

	pointer.err = errors.New("disk full")
	machine.SetTask(context.Background(), nil)
	require.Nil(t, machine.Task())
}

func TestMachine_CompletionWithoutStartMarkerUsesPlannedDuration(t *testing.T) {
	records := make(chan model.SessionRecord, 1)
	submitter := &mockSubmitter{}
	submitter.On("Submit", mock.Anything).
		Run(func(args mock.Arguments) { records <- args.Get(0).(model.SessionRecord) }).
		Once()

	h := newHarness(t, defaultConfig(), staticAuth(true), submitter)
	h.machine.Start()

	h.machine.mu.Lock()
	h.machine.state.RemainingSeconds = 0
	h.machine.state.SessionStartedAt = nil
	armed := h.machine.armed
	h.machine.mu.Unlock()

	h.machine.complete(armed)

	record := <-records
	require.Equal(t, t0, record.EndedAt)
	require.Equal(t, t0.Add(-1500*time.Second), record.StartedAt)
	require.Equal(t, 1500, record.DurationSeconds)
	submitter.AssertExpectations(t)
}

func TestMachine_CompletingTickStopsTheClock(t *testing.T) {
	h := newHarness(t, defaultConfig(), staticAuth(false), nil)
	h.machine.Start()
	ticker := h.tickers.Latest()

	h.fire(t, 1500)

	select {
	case <-ticker.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker still running after the countdown reached zero")
	}
	state := h.waitFor(t, func(s State) bool { return s.Phase == model.PhaseShortBreak })
	require.False(t, state.Running)
	require.Equal(t, 1, h.tickers.Count())
	require.False(t, h.machine.clock.Armed())
}
