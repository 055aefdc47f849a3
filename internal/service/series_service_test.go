package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/model"
	"taskflow/internal/recur"
	"taskflow/internal/repository"
)

func newSeriesFixture(t *testing.T, now time.Time) (*SeriesService, *repository.TaskRepository) {
	t.Helper()
	repo := newTestRepo(t)
	svc := NewSeriesService(repo)
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestDeleteByTaskIDRemovesWholeSeries(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := newSeriesFixture(t, now)
	owner := uuid.New()

	template := seedTemplate(t, repo, owner, recur.Daily, now.AddDate(0, 0, -2), now.AddDate(0, 0, 2))
	expander := newRecurrenceService(t, repo, now, 90)
	_, err := expander.Expand(context.Background(), template, 90)
	require.NoError(t, err)

	deleted, err := svc.DeleteByTaskID(context.Background(), owner, template.ID, false)
	require.NoError(t, err)
	// Template plus four generated siblings.
	assert.EqualValues(t, 5, deleted)

	all, err := repo.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteByTaskIDFutureOnlyKeepsHistory(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := newSeriesFixture(t, now)
	owner := uuid.New()
	seriesID := uuid.New()

	var pastTask *model.Task
	for _, offset := range []int{-14, -7} {
		pastTask = &model.Task{
			ID: uuid.New(), UserID: owner, Title: "past", Status: model.StatusDone,
			Priority: model.PriorityLow, SeriesID: &seriesID, DueAt: timePtr(now.AddDate(0, 0, offset)),
		}
		require.NoError(t, repo.Create(context.Background(), pastTask))
	}
	for _, offset := range []int{1, 7, 14} {
		future := &model.Task{
			ID: uuid.New(), UserID: owner, Title: "future", Status: model.StatusTodo,
			Priority: model.PriorityLow, SeriesID: &seriesID, DueAt: timePtr(now.AddDate(0, 0, offset)),
		}
		require.NoError(t, repo.Create(context.Background(), future))
	}

	deleted, err := svc.DeleteByTaskID(context.Background(), owner, pastTask.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	remaining, err := repo.ListByUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, task := range remaining {
		assert.Equal(t, "past", task.Title)
	}
}

func TestDeleteByTaskIDWithoutSeries(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := newSeriesFixture(t, now)
	owner := uuid.New()

	plain := &model.Task{
		ID: uuid.New(), UserID: owner, Title: "standalone",
		Status: model.StatusTodo, Priority: model.PriorityLow,
	}
	require.NoError(t, repo.Create(context.Background(), plain))

	deleted, err := svc.DeleteByTaskID(context.Background(), owner, plain.ID, false)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	// The standalone row itself is untouched.
	_, err = repo.FindByID(context.Background(), owner, plain.ID)
	assert.NoError(t, err)
}

func TestDeleteByTaskIDOwnershipIsolation(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	svc, repo := newSeriesFixture(t, now)
	owner := uuid.New()

	template := seedTemplate(t, repo, owner, recur.Daily, now, now.AddDate(0, 0, 2))

	_, err := svc.DeleteByTaskID(context.Background(), uuid.New(), template.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
}
