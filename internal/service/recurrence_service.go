package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/model"
	"taskflow/internal/recur"
	"taskflow/internal/repository"
)

// DefaultHorizonDays bounds how far past "now" instances are materialized
// in one expansion call. Later calls extend coverage as time advances.
const DefaultHorizonDays = 90

// RecurrenceService turns a template task into the concrete dated
// instances of its series, within a rolling forward horizon.
type RecurrenceService struct {
	tasks       *repository.TaskRepository
	horizonDays int
	now         func() time.Time
}

func NewRecurrenceService(tasks *repository.TaskRepository, horizonDays int) *RecurrenceService {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &RecurrenceService{tasks: tasks, horizonDays: horizonDays, now: time.Now}
}

// OnTemplateWritten implements Expander for the task service's post-write
// hook.
func (s *RecurrenceService) OnTemplateWritten(ctx context.Context, task *model.Task) (int, error) {
	return s.Expand(ctx, task, s.horizonDays)
}

// Expand materializes the template's missing occurrences up to
// min(recur_until, now+horizonDays) and returns the number of rows
// actually inserted. A template missing its rule, end date or anchor is a
// no-op, not an error.
//
// Inserts are best effort: a failed write is logged and skipped so one bad
// occurrence cannot starve the rest of the series. Repeated calls
// converge; occurrences that already exist for the same owner, series and
// due date are skipped, and a shortened recur_until never retracts
// instances generated earlier.
func (s *RecurrenceService) Expand(ctx context.Context, template *model.Task, horizonDays int) (int, error) {
	if !template.IsTemplate() || template.SeriesID == nil {
		return 0, nil
	}

	until := *template.RecurUntil
	if horizon := s.now().AddDate(0, 0, horizonDays); horizon.Before(until) {
		until = horizon
	}

	seq := recur.New(*template.DueAt, until, *template.Recur)
	inserted := 0
	for {
		due, ok := seq.Next()
		if !ok {
			break
		}
		// The anchor is the template itself, not a separate instance.
		if due.Equal(*template.DueAt) {
			continue
		}

		exists, err := s.tasks.OccurrenceExists(ctx, template.UserID, *template.SeriesID, due)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		dueAt := due
		parentID := template.ID
		instance := &model.Task{
			ID:          uuid.New(),
			UserID:      template.UserID,
			Title:       template.Title,
			Description: template.Description,
			Status:      model.StatusTodo,
			Priority:    template.Priority,
			DueAt:       &dueAt,
			SeriesID:    template.SeriesID,
			ParentID:    &parentID,
		}
		if err := s.tasks.Create(ctx, instance); err != nil {
			log.Printf("[warn] series %s: insert occurrence %s: %v",
				template.SeriesID, due.Format(time.RFC3339), err)
			continue
		}
		inserted++
	}

	return inserted, nil
}

// ExpandAll re-expands every outstanding template so the rolling horizon
// keeps up with real time. Meant to run on a schedule; a template that
// fails is logged and the rest continue.
func (s *RecurrenceService) ExpandAll(ctx context.Context) (int, error) {
	templates, err := s.tasks.ListTemplates(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range templates {
		n, err := s.Expand(ctx, &templates[i], s.horizonDays)
		if err != nil {
			log.Printf("[warn] expand series %s: %v", templates[i].SeriesID, err)
			continue
		}
		total += n
	}
	return total, nil
}
