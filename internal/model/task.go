package model

import "time"

const MaxTaskLabelLength = 255

type Task struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"userId,omitempty" yaml:"-"`
	Label     string    `json:"label" yaml:"label"`
	Completed bool      `json:"completed" yaml:"completed"`
	Position  int       `json:"position" yaml:"position"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// TaskPatch carries a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Label     *string `json:"label,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TaskSnapshot is the timer's weak reference to a task.
type TaskSnapshot struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Completed bool   `json:"completed" yaml:"completed"`
}

func (t Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{ID: t.ID, Label: t.Label, Completed: t.Completed}
}
