package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/testutil"
)

func TestTaskRepository_Lifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	task := &domain.Task{ID: uuid.NewString(), State: domain.TaskStatePending, SourceURL: "http://example.com/games.csv"}
	require.NoError(t, repo.Create(ctx, task))

	require.NoError(t, repo.MarkProcessing(ctx, task.ID, time.Now()))
	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateProcessing, got.State)
	assert.NotNil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)

	outcome := domain.NewImportOutcome()
	outcome.SuccessCount = 2
	outcome.FailureCount = 1
	outcome.Errors["1"] = "Name is missing"
	result := &domain.TaskResult{Message: outcome.Message(), Outcome: outcome}

	applied, err := repo.Finish(ctx, task.ID, outcome.Status(), result, nil, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	got, err = repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatePartiallyCompleted, got.State)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Not all rows could be processed successfully", got.Result.Message)
	assert.Equal(t, 2, got.Result.Outcome.SuccessCount)
	assert.Equal(t, "Name is missing", got.Result.Outcome.Errors["1"])
	assert.NotNil(t, got.CompletedAt)
	assert.Nil(t, got.Error)
}

func TestTaskRepository_FinishIsGuarded(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	task := &domain.Task{ID: uuid.NewString(), State: domain.TaskStatePending, SourceURL: "http://example.com"}
	require.NoError(t, repo.Create(ctx, task))

	msg := "boom"
	applied, err := repo.Finish(ctx, task.ID, domain.TaskStateFailed, nil, &msg, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.Finish(ctx, task.ID, domain.TaskStateCompleted, &domain.TaskResult{Message: "late"}, nil, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStateFailed, got.State)
	require.NotNil(t, got.Error)
	assert.Equal(t, "boom", *got.Error)

	assert.ErrorIs(t, repo.MarkProcessing(ctx, task.ID, time.Now()), repository.ErrNotFound)
}

func TestTaskRepository_MissingTask(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewTaskRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, repo.MarkProcessing(ctx, "nope", time.Now()), repository.ErrNotFound)

	counts, err := repo.CountByState(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}
