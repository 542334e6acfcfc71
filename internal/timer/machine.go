package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focustimer/internal/model"
)

// Authenticator reports whether completions should be recorded remotely.
type Authenticator interface {
	Authenticated() bool
}

// Submitter accepts a session record without blocking the caller.
type Submitter interface {
	Submit(record model.SessionRecord)
}

// TaskPointer persists the selected task across restarts.
type TaskPointer interface {
	CurrentTask(ctx context.Context) (*model.TaskSnapshot, error)
	SetCurrentTask(ctx context.Context, task *model.TaskSnapshot) error
}

// State is the timer state visible to the rest of the application.
type State struct {
	Phase                model.Phase         `json:"phase"`
	RemainingSeconds     int                 `json:"remainingSeconds"`
	Running              bool                `json:"running"`
	FocusCyclesCompleted int                 `json:"focusCyclesCompleted"`
	SelectedTask         *model.TaskSnapshot `json:"selectedTask,omitempty"`
	SessionStartedAt     *time.Time          `json:"sessionStartedAt,omitempty"`
}

// Options wires a Machine to its collaborators. Only Config is required.
type Options struct {
	Config          model.TimerConfiguration
	AutoStartBreaks bool
	AutoStartFocus  bool
	Auth            Authenticator
	Recorder        Submitter
	Tasks           TaskPointer
	Clock           *Clock
	Now             func() time.Time
	Logger          *slog.Logger
}

// Machine owns the phase, the countdown and the completion rules.
type Machine struct {
	mu              sync.Mutex
	state           State
	config          model.TimerConfiguration
	autoStartBreaks bool
	autoStartFocus  bool
	planned         int
	armed           uint64
	processing      bool
	closed          bool

	auth     Authenticator
	recorder Submitter
	tasks    TaskPointer
	clock    *Clock
	now      func() time.Time
	logger   *slog.Logger
	events   []chan State
}

func NewMachine(opts Options) *Machine {
	if opts.Clock == nil {
		opts.Clock = NewClock(time.Second, nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	m := &Machine{
		state:           State{Phase: model.PhaseFocus},
		config:          opts.Config,
		autoStartBreaks: opts.AutoStartBreaks,
		autoStartFocus:  opts.AutoStartFocus,
		auth:            opts.Auth,
		recorder:        opts.Recorder,
		tasks:           opts.Tasks,
		clock:           opts.Clock,
		now:             opts.Now,
		logger:          opts.Logger,
	}
	m.resolveLocked()
	return m
}

// Restore loads the persisted task selection, if any.
func (m *Machine) Restore(ctx context.Context) error {
	if m.tasks == nil {
		return nil
	}
	task, err := m.tasks.CurrentTask(ctx)
	if err != nil {
		return fmt.Errorf("load current task: %w", err)
	}

	m.mu.Lock()
	m.state.SelectedTask = copyTask(task)
	m.emitLocked()
	m.mu.Unlock()
	return nil
}

func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers an observer of state changes. Slow observers miss
// intermediate states rather than stalling the timer.
func (m *Machine) Subscribe(buffer int) <-chan State {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	m.mu.Lock()
	if m.closed {
		close(ch)
	} else {
		m.events = append(m.events, ch)
	}
	m.mu.Unlock()
	return ch
}

// SetMode abandons the current countdown and switches phase. Abandoned
// countdowns are never recorded.
func (m *Machine) SetMode(phase model.Phase) error {
	if !phase.Valid() {
		return fmt.Errorf("invalid phase %q", phase)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.disarmLocked()
	m.state.Phase = phase
	m.state.Running = false
	m.state.SessionStartedAt = nil
	m.resolveLocked()
	m.emitLocked()
	return nil
}

func (m *Machine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startLocked() {
		m.emitLocked()
	}
}

// Pause stops the countdown but keeps the session start marker.
func (m *Machine) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.state.Running {
		return
	}
	m.disarmLocked()
	m.state.Running = false
	m.emitLocked()
}

func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disarmLocked()
	m.state.Running = false
	m.state.SessionStartedAt = nil
	m.resolveLocked()
	m.emitLocked()
}

// SetConfig replaces the phase lengths. A running countdown keeps its
// length; otherwise the current phase is re-resolved.
func (m *Machine) SetConfig(cfg model.TimerConfiguration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg == m.config {
		return
	}
	m.config = cfg
	if m.state.Running {
		return
	}
	m.state.SessionStartedAt = nil
	m.resolveLocked()
	m.emitLocked()
}

func (m *Machine) SetAutoStart(breaks, focus bool) {
	m.mu.Lock()
	m.autoStartBreaks = breaks
	m.autoStartFocus = focus
	m.mu.Unlock()
}

// SetTask selects the task credited by the next completion and persists
// the pointer. A persistence failure keeps the in-memory selection.
func (m *Machine) SetTask(ctx context.Context, task *model.TaskSnapshot) {
	m.mu.Lock()
	m.state.SelectedTask = copyTask(task)
	m.emitLocked()
	m.mu.Unlock()

	if m.tasks == nil {
		return
	}
	if err := m.tasks.SetCurrentTask(ctx, task); err != nil {
		m.logger.Warn("failed to persist current task", "error", err)
	}
}

func (m *Machine) Task() *model.TaskSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyTask(m.state.SelectedTask)
}

// Close stops the clock and closes every subscriber channel.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.disarmLocked()
	m.state.Running = false
	m.closed = true
	for _, ch := range m.events {
		close(ch)
	}
	m.events = nil
}

func (m *Machine) startLocked() bool {
	if m.state.Running || m.closed {
		return false
	}
	m.state.Running = true
	if m.state.SessionStartedAt == nil {
		startedAt := m.now()
		m.state.SessionStartedAt = &startedAt
	}

	m.armed++
	armed := m.armed
	m.clock.Arm(func() { m.tick(armed) })
	return true
}

func (m *Machine) disarmLocked() {
	m.armed++
	m.clock.Disarm()
}

func (m *Machine) tick(armed uint64) {
	m.mu.Lock()
	if armed != m.armed || !m.state.Running {
		m.mu.Unlock()
		return
	}

	if m.state.RemainingSeconds > 0 {
		m.state.RemainingSeconds--
	}
	if m.state.RemainingSeconds > 0 {
		m.emitLocked()
		m.mu.Unlock()
		return
	}

	m.clock.Disarm()
	record, ok := m.beginCompletionLocked(armed)
	m.mu.Unlock()

	if ok {
		m.finishCompletion(record)
	}
}

// complete handles a completion signal for the countdown armed as armed.
// Signals for a countdown that was already finalized are ignored.
func (m *Machine) complete(armed uint64) {
	m.mu.Lock()
	record, ok := m.beginCompletionLocked(armed)
	m.mu.Unlock()

	if ok {
		m.finishCompletion(record)
	}
}

func (m *Machine) beginCompletionLocked(armed uint64) (*model.SessionRecord, bool) {
	if m.processing || armed != m.armed || m.state.RemainingSeconds != 0 {
		return nil, false
	}
	m.processing = true

	now := m.now()
	startedAt := now.Add(-time.Duration(m.planned) * time.Second)
	if m.state.SessionStartedAt != nil {
		startedAt = *m.state.SessionStartedAt
	}

	var record *model.SessionRecord
	if m.recorder != nil && m.auth != nil && m.auth.Authenticated() {
		record = &model.SessionRecord{
			Type:            m.state.Phase,
			Status:          model.SessionCompleted,
			DurationSeconds: m.planned,
			StartedAt:       startedAt,
			EndedAt:         now,
		}
		if m.state.SelectedTask != nil {
			taskID := m.state.SelectedTask.ID
			record.TaskID = &taskID
		}
	}

	m.logger.Debug("phase completed", "phase", m.state.Phase, "recorded", record != nil)
	m.advanceLocked()
	return record, true
}

func (m *Machine) finishCompletion(record *model.SessionRecord) {
	defer func() {
		m.mu.Lock()
		m.processing = false
		m.mu.Unlock()
	}()

	if record != nil {
		m.recorder.Submit(*record)
	}
}

func (m *Machine) advanceLocked() {
	m.disarmLocked()

	next, cycles := NextPhase(m.state.Phase, m.state.FocusCyclesCompleted)
	m.state.Phase = next
	m.state.FocusCyclesCompleted = cycles
	m.state.Running = false
	m.state.SessionStartedAt = nil
	m.resolveLocked()
	m.emitLocked()

	autoStart := m.autoStartFocus
	if next != model.PhaseFocus {
		autoStart = m.autoStartBreaks
	}
	if autoStart && m.startLocked() {
		m.emitLocked()
	}
}

func (m *Machine) resolveLocked() {
	m.planned = Resolve(m.state.Phase, m.config)
	m.state.RemainingSeconds = m.planned
}

func (m *Machine) snapshotLocked() State {
	snapshot := m.state
	snapshot.SelectedTask = copyTask(m.state.SelectedTask)
	if m.state.SessionStartedAt != nil {
		startedAt := *m.state.SessionStartedAt
		snapshot.SessionStartedAt = &startedAt
	}
	return snapshot
}

func (m *Machine) emitLocked() {
	if len(m.events) == 0 {
		return
	}
	snapshot := m.snapshotLocked()
	for _, ch := range m.events {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func copyTask(task *model.TaskSnapshot) *model.TaskSnapshot {
	if task == nil {
		return nil
	}
	copied := *task
	return &copied
}
