package model

import "time"

type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionStopped   SessionStatus = "stopped"
)

// SessionRecord is what the timer submits when a phase completes.
type SessionRecord struct {
	TaskID          *string       `json:"taskId,omitempty"`
	Type            Phase         `json:"type" validate:"oneof=focus short_break long_break"`
	Status          SessionStatus `json:"status" validate:"oneof=completed stopped"`
	DurationSeconds int           `json:"durationSeconds" validate:"gt=0"`
	StartedAt       time.Time     `json:"startedAt" validate:"required"`
	EndedAt         time.Time     `json:"endedAt" validate:"required,gtefield=StartedAt"`
}

// Session is a stored session record.
type Session struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	TaskID          *string       `json:"taskId,omitempty"`
	TaskLabel       *string       `json:"taskLabel,omitempty"`
	Type            Phase         `json:"type"`
	Status          SessionStatus `json:"status"`
	DurationSeconds int           `json:"durationSeconds"`
	StartedAt       time.Time     `json:"startedAt"`
	EndedAt         time.Time     `json:"endedAt"`
	CreatedAt       time.Time     `json:"createdAt"`
}

type DayStats struct {
	Date         string `json:"date"`
	Sessions     int    `json:"sessions"`
	FocusSeconds int    `json:"focusSeconds"`
}

type SessionStats struct {
	Period            string     `json:"period"`
	TotalSessions     int        `json:"totalSessions"`
	FocusSessions     int        `json:"focusSessions"`
	ShortBreaks       int        `json:"shortBreaks"`
	LongBreaks        int        `json:"longBreaks"`
	FocusSeconds      int        `json:"focusSeconds"`
	BreakSeconds      int        `json:"breakSeconds"`
	CompletedSessions int        `json:"completedSessions"`
	Days              []DayStats `json:"days"`
}

// SessionGroup is one row of per-day totals for a session type and status.
type SessionGroup struct {
	Date    string
	Type    Phase
	Status  SessionStatus
	Count   int
	Seconds int
}
