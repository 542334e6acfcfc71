package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"focustimer/internal/model"
)

// SessionWriter is the remote session-write endpoint.
type SessionWriter interface {
	CreateSession(ctx context.Context, record model.SessionRecord) error
}

// Recorded is published after a session record was accepted remotely.
type Recorded struct {
	Count  uint64
	Record model.SessionRecord
	At     time.Time
}

// Recorder submits each record once, in the background, and never retries.
type Recorder struct {
	ctx    context.Context
	writer SessionWriter
	logger *slog.Logger
	wg     sync.WaitGroup

	mu       sync.Mutex
	recorded uint64
	events   []chan Recorded
}

func NewRecorder(ctx context.Context, writer SessionWriter, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ctx:    ctx,
		writer: writer,
		logger: logger,
	}
}

// Submit starts one write attempt and returns immediately.
func (r *Recorder) Submit(record model.SessionRecord) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.write(record)
	}()
}

// Recorded returns how many records were accepted so far.
func (r *Recorder) Recorded() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded
}

func (r *Recorder) Subscribe(buffer int) <-chan Recorded {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Recorded, buffer)
	r.mu.Lock()
	r.events = append(r.events, ch)
	r.mu.Unlock()
	return ch
}

// Wait blocks until every submitted write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) write(record model.SessionRecord) {
	if err := r.writer.CreateSession(r.ctx, record); err != nil {
		r.logger.Error("failed to record session",
			"type", record.Type,
			"startedAt", record.StartedAt,
			"error", err,
		)
		return
	}

	r.mu.Lock()
	r.recorded++
	event := Recorded{Count: r.recorded, Record: record, At: time.Now()}
	for _, ch := range r.events {
		select {
		case ch <- event:
		default:
		}
	}
	r.mu.Unlock()

	r.logger.Info("session recorded", "type", record.Type, "durationSeconds", record.DurationSeconds)
}
