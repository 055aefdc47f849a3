package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
	"taskflow/internal/recur"
	"taskflow/internal/repository"
)

const maxTitleLen = 200

// Expander is notified after a template row has been written, so instance
// generation stays an explicit hook rather than a hidden side effect.
type Expander interface {
	OnTemplateWritten(ctx context.Context, task *model.Task) (int, error)
}

// TaskInput carries the fields a client may set when creating a task.
type TaskInput struct {
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	DueAt       *time.Time
	Recur       *recur.Kind
	RecurUntil  *time.Time
}

// TaskPatch carries the fields a client may change on an existing task.
// Identity fields (id, owner, created_at) have no place here at all, so a
// patch can never tamper with them. Nil means "leave unchanged"; the Clear
// flags drop the matching optional field, so a template can be demoted back
// to a plain task.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *model.Status
	Priority    *model.Priority
	DueAt       *time.Time
	Recur       *recur.Kind
	RecurUntil  *time.Time

	ClearDueAt      bool
	ClearRecur      bool
	ClearRecurUntil bool
}

// TaskService wraps task business logic: validation, defaults, series
// minting and the post-write expansion hook.
type TaskService struct {
	tasks    *repository.TaskRepository
	expander Expander
}

func NewTaskService(tasks *repository.TaskRepository, expander Expander) *TaskService {
	return &TaskService{tasks: tasks, expander: expander}
}

// Create validates the input, applies defaults and persists the row. A row
// carrying a recurrence rule gets a freshly minted series id, and a fully
// formed template is expanded right after the write.
func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLen)
	}
	if input.Recur != nil && input.DueAt == nil {
		return nil, fmt.Errorf("%w: due_at is required when recur is set", ErrInvalidInput)
	}

	status := input.Status
	if status == "" {
		status = model.StatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityLow
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, priority)
	}

	task := &model.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueAt:       input.DueAt,
		Recur:       input.Recur,
		RecurUntil:  input.RecurUntil,
	}
	if task.Recur != nil {
		seriesID := uuid.New()
		task.SeriesID = &seriesID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.expandAfterWrite(ctx, task)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, f repository.Filter) (*repository.Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, f.Priority)
	}
	return s.tasks.List(ctx, userID, f)
}

// ListAll returns every task of the user, for exports.
func (s *TaskService) ListAll(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	return s.tasks.ListByUser(ctx, userID)
}

// Update merges the allow-listed patch fields onto the stored row and
// re-runs expansion when the result is a valid template. A row gaining a
// recurrence rule without a series gets a new series id minted.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, patch TaskPatch) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" || len(title) > maxTitleLen {
			return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLen)
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
		}
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if patch.DueAt != nil {
		task.DueAt = patch.DueAt
	}
	if patch.Recur != nil {
		task.Recur = patch.Recur
	}
	if patch.RecurUntil != nil {
		task.RecurUntil = patch.RecurUntil
	}
	// Clears run after sets. Demoting a template keeps its series id, so
	// already generated instances stay tied to it.
	if patch.ClearDueAt {
		task.DueAt = nil
	}
	if patch.ClearRecur {
		task.Recur = nil
	}
	if patch.ClearRecurUntil {
		task.RecurUntil = nil
	}

	if task.Recur != nil && task.DueAt == nil {
		return nil, fmt.Errorf("%w: due_at is required when recur is set", ErrInvalidInput)
	}
	if task.Recur != nil && task.SeriesID == nil {
		seriesID := uuid.New()
		task.SeriesID = &seriesID
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}

	s.expandAfterWrite(ctx, task)
	return task, nil
}

// Delete removes exactly one row.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	removed, err := s.tasks.Delete(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

// expandAfterWrite runs the expansion hook. Expansion failures are
// non-fatal to the write that triggered them; they only surface in logs.
func (s *TaskService) expandAfterWrite(ctx context.Context, task *model.Task) {
	if s.expander == nil || !task.IsTemplate() {
		return
	}
	n, err := s.expander.OnTemplateWritten(ctx, task)
	if err != nil {
		log.Printf("[warn] expand series %s: %v", task.SeriesID, err)
		return
	}
	if n > 0 {
		log.Printf("[info] series %s: generated %d occurrences", task.SeriesID, n)
	}
}
