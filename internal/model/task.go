package model

import (
	"time"

	"github.com/google/uuid"

	"taskflow/internal/recur"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a single tracked item. A task with a recurrence rule acts as a
// template: it anchors a series and spawns dated instances that point back
// to it through ParentID and share its SeriesID.
type Task struct {
	ID          uuid.UUID   `gorm:"type:text;primaryKey" json:"id"`
	UserID      uuid.UUID   `gorm:"type:text;index:idx_tasks_user_due,priority:1" json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `gorm:"default:todo" json:"status"`
	Priority    Priority    `gorm:"default:low" json:"priority"`
	DueAt       *time.Time  `gorm:"index:idx_tasks_due_at;index:idx_tasks_user_due,priority:2" json:"due_at"`
	SeriesID    *uuid.UUID  `gorm:"type:text;index:idx_tasks_series" json:"series_id"`
	Recur       *recur.Kind `gorm:"type:text" json:"recur"`
	RecurUntil  *time.Time  `json:"recur_until"`
	ParentID    *uuid.UUID  `gorm:"type:text" json:"parent_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsTemplate reports whether the task carries everything expansion needs:
// a rule, an inclusive end date and an anchor.
func (t *Task) IsTemplate() bool {
	return t.Recur != nil && t.RecurUntil != nil && t.DueAt != nil
}
