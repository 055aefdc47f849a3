package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/model"
)

// Filter narrows a task listing. Zero values mean "no constraint".
type Filter struct {
	Status     model.Status
	Priority   model.Priority
	TitleQuery string     // case-insensitive substring match on title
	DueOn      *time.Time // any instant inside the wanted calendar day
	Limit      int
	Offset     int
}

// Page is one slice of a listing plus the total match count.
type Page struct {
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Items  []model.Task `json:"items"`
}

const defaultPageSize = 20

// TaskRepository handles persisted tasks. Every query is scoped by the
// owning user id, so a foreign row is indistinguishable from a missing one.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns one page of the user's tasks, newest first. The DueOn
// filter resolves the day's local boundaries and queries the half-open
// range [start of day, start of next day).
func (r *TaskRepository) List(ctx context.Context, userID uuid.UUID, f Filter) (*Page, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.TitleQuery != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(f.TitleQuery)+"%")
	}
	if f.DueOn != nil {
		dayStart := time.Date(f.DueOn.Year(), f.DueOn.Month(), f.DueOn.Day(), 0, 0, 0, 0, f.DueOn.Location())
		q = q.Where("due_at >= ? AND due_at < ?", dayStart, dayStart.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	items := []model.Task{}
	if err := q.Order("created_at DESC").Limit(limit).Offset(f.Offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return &Page{Total: total, Limit: limit, Offset: f.Offset, Items: items}, nil
}

// ListByUser returns every task of one user, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListOpenByUser returns the user's not-done tasks, soonest due first.
func (r *TaskRepository) ListOpenByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND status <> ?", userID, model.StatusDone).
		Order("due_at NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// Delete removes one row; the bool reports whether anything went away.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// OccurrenceExists reports whether the series already holds a row due at
// the given instant for this owner. This is the dedup check that keeps
// expansion idempotent.
func (r *TaskRepository) OccurrenceExists(ctx context.Context, userID, seriesID uuid.UUID, dueAt time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND series_id = ? AND due_at = ?", userID, seriesID, dueAt).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check occurrence: %w", err)
	}
	return n > 0, nil
}

// ListTemplates returns every row, across all owners, that can still spawn
// instances. Used by the periodic re-expansion job.
func (r *TaskRepository) ListTemplates(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("recur IS NOT NULL AND recur_until IS NOT NULL AND due_at IS NOT NULL").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return tasks, nil
}

// DeleteSeries removes every row of one owner's series, or only the rows
// due at or after now when onlyFuture is set. Returns the number removed.
func (r *TaskRepository) DeleteSeries(ctx context.Context, userID, seriesID uuid.UUID, onlyFuture bool, now time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ? AND series_id = ?", userID, seriesID)
	if onlyFuture {
		q = q.Where("due_at >= ?", now)
	}
	res := q.Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete series: %w", res.Error)
	}
	return res.RowsAffected, nil
}
