package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/internal/repository"
)

// SeriesService removes whole series: a template together with the
// instances it spawned.
type SeriesService struct {
	tasks *repository.TaskRepository
	now   func() time.Time
}

func NewSeriesService(tasks *repository.TaskRepository) *SeriesService {
	return &SeriesService{tasks: tasks, now: time.Now}
}

// DeleteBySeriesID removes every row of the owner's series. With
// onlyFuture set, rows due before now stay behind as history.
func (s *SeriesService) DeleteBySeriesID(ctx context.Context, userID, seriesID uuid.UUID, onlyFuture bool) (int64, error) {
	return s.tasks.DeleteSeries(ctx, userID, seriesID, onlyFuture, s.now())
}

// DeleteByTaskID resolves the task's series and delegates. A task without
// a series deletes nothing and reports 0.
func (s *SeriesService) DeleteByTaskID(ctx context.Context, userID, taskID uuid.UUID, onlyFuture bool) (int64, error) {
	task, err := s.tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("get task: %w", err)
	}
	if task.SeriesID == nil {
		return 0, nil
	}
	return s.DeleteBySeriesID(ctx, userID, *task.SeriesID, onlyFuture)
}
