package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gamedata/internal/domain"
	"github.com/timmy/gamedata/internal/repository"
	"github.com/timmy/gamedata/internal/testutil"
	"gorm.io/gorm"
)

func waitTerminal(t *testing.T, svc *TaskService, id string) *domain.Task {
	t.Helper()
	var task *domain.Task
	require.Eventually(t, func() bool {
		got, err := svc.GetStatus(context.Background(), id)
		if err != nil {
			return false
		}
		task = got
		return task.State.IsTerminal()
	}, 5*time.Second, 20*time.Millisecond)
	return task
}

func startTasks(t *testing.T, svc *TaskService) {
	t.Helper()
	svc.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
}

func TestTaskService_CompletesImport(t *testing.T) {
	db := testutil.NewDB(t)
	srv := csvServer(t, map[string]string{
		"games.csv": csvHeader + "1,Alpha,2020-01-01,,,,,,,\n2,,2020-01-01,,,,,,,\n",
	})
	svc := NewTaskService(repository.NewTaskRepository(db), newIngest(db), &TaskConfig{Workers: 2, QueueSize: 4})
	startTasks(t, svc)

	task, err := svc.Submit(context.Background(), srv.URL+"/games.csv")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatePending, task.State)

	done := waitTerminal(t, svc, task.ID)
	assert.Equal(t, domain.TaskStatePartiallyCompleted, done.State)
	require.NotNil(t, done.Result)
	assert.Equal(t, "Not all rows could be processed successfully", done.Message())
	assert.Equal(t, 1, done.Result.Outcome.SuccessCount)
	assert.Equal(t, 1, done.Result.Outcome.FailureCount)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.Error)
}

func TestTaskService_UnreachableURLFails(t *testing.T) {
	db := testutil.NewDB(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	svc := NewTaskService(repository.NewTaskRepository(db), newIngest(db), &TaskConfig{Workers: 1, QueueSize: 1})
	startTasks(t, svc)

	task, err := svc.Submit(context.Background(), deadURL+"/games.csv")
	require.NoError(t, err)

	done := waitTerminal(t, svc, task.ID)
	assert.Equal(t, domain.TaskStateFailed, done.State)
	require.NotNil(t, done.Error)
	assert.NotEmpty(t, *done.Error)
	assert.NotNil(t, done.CompletedAt)
	assert.Nil(t, done.Result)
}

func TestTaskService_UnknownTask(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewTaskService(repository.NewTaskRepository(db), newIngest(db), &TaskConfig{Workers: 1})

	_, err := svc.GetStatus(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_SubmitAfterShutdown(t *testing.T) {
	db := testutil.NewDB(t)
	tasks := repository.NewTaskRepository(db)
	svc := NewTaskService(tasks, newIngest(db), &TaskConfig{Workers: 1})
	svc.Start(context.Background())
	require.NoError(t, svc.Shutdown(context.Background()))

	_, err := svc.Submit(context.Background(), "http://example.com/games.csv")
	assert.ErrorIs(t, err, ErrShuttingDown)

	counts, err := tasks.CountByState(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.TaskStateFailed])
}

// blockingImporter holds every import until release is closed.
type blockingImporter struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (b *blockingImporter) ImportFromURL(ctx context.Context, _ string) (*domain.ImportOutcome, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case <-b.release:
		o := domain.NewImportOutcome()
		o.SuccessCount = 1
		return o, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestTaskService_SubmitRespectsRequestContext(t *testing.T) {
	db := testutil.NewDB(t)
	imp := &blockingImporter{release: make(chan struct{})}
	svc := NewTaskService(repository.NewTaskRepository(db), imp, &TaskConfig{Workers: 1, QueueSize: 0})
	startTasks(t, svc)
	defer close(imp.release)

	first, err := svc.Submit(context.Background(), "http://example.com/a.csv")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		task, err := svc.GetStatus(context.Background(), first.ID)
		return err == nil && task.State == domain.TaskStateProcessing
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = svc.Submit(ctx, "http://example.com/b.csv")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTaskService_ShutdownCancelsInFlight(t *testing.T) {
	db := testutil.NewDB(t)
	imp := &blockingImporter{release: make(chan struct{})}
	svc := NewTaskService(repository.NewTaskRepository(db), imp, &TaskConfig{Workers: 1, QueueSize: 1})
	svc.Start(context.Background())

	task, err := svc.Submit(context.Background(), "http://example.com/a.csv")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		imp.mu.Lock()
		defer imp.mu.Unlock()
		return imp.calls == 1
	}, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Shutdown(ctx), context.DeadlineExceeded)

	got := waitTerminal(t, svc, task.ID)
	assert.Equal(t, domain.TaskStateFailed, got.State)
	require.NotNil(t, got.Error)
	assert.Contains(t, *got.Error, "context canceled")
}

// stubbornImporter ignores cancellation and returns only once release is closed.
type stubbornImporter struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (s *stubbornImporter) ImportFromURL(context.Context, string) (*domain.ImportOutcome, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	o := domain.NewImportOutcome()
	o.SuccessCount = 1
	return o, nil
}

func TestTaskService_ShutdownHonoursDeadlineWithBlockedSubmit(t *testing.T) {
	db := testutil.NewDB(t)
	tasks := repository.NewTaskRepository(db)
	imp := &stubbornImporter{release: make(chan struct{}), started: make(chan struct{})}
	svc := NewTaskService(tasks, imp, &TaskConfig{Workers: 1, QueueSize: 0})
	svc.Start(context.Background())

	first, err := svc.Submit(context.Background(), "http://example.com/a.csv")
	require.NoError(t, err)
	select {
	case <-imp.started:
	case <-time.After(5 * time.Second):
		t.Fatal("import did not start")
	}

	blocked := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), "http://example.com/b.csv")
		blocked <- err
	}()
	// Let the second Submit reach the full queue.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = svc.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrShuttingDown)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked Submit did not return")
	}

	close(imp.release)
	assert.Equal(t, domain.TaskStateCompleted, waitTerminal(t, svc, first.ID).State)

	counts, err := tasks.CountByState(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[domain.TaskStateFailed])
	assert.EqualValues(t, 1, counts[domain.TaskStateCompleted])
}

func TestTaskService_VanishedTaskIsSkipped(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, tasks *repository.TaskRepository, db *gorm.DB) string
	}{
		{
			name: "never stored",
			setup: func(*testing.T, *repository.TaskRepository, *gorm.DB) string {
				return uuid.NewString()
			},
		},
		{
			name: "deleted before pickup",
			setup: func(t *testing.T, tasks *repository.TaskRepository, db *gorm.DB) string {
				task := &domain.Task{ID: uuid.NewString(), State: domain.TaskStatePending, SourceURL: "http://example.com/a.csv"}
				require.NoError(t, tasks.Create(context.Background(), task))
				require.NoError(t, db.Delete(&domain.Task{}, "id = ?", task.ID).Error)
				return task.ID
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			tasks := repository.NewTaskRepository(db)
			imp := &blockingImporter{release: make(chan struct{})}
			close(imp.release)
			svc := NewTaskService(tasks, imp, &TaskConfig{Workers: 1, QueueSize: 1})
			svc.Start(context.Background())

			id := tt.setup(t, tasks, db)
			require.NoError(t, svc.enqueue(context.Background(), taskJob{taskID: id, sourceURL: "http://example.com/a.csv"}))

			// Shutdown drains the queue, so the job has run once it returns.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			require.NoError(t, svc.Shutdown(ctx))

			assert.Zero(t, imp.calls)
			_, err := svc.GetStatus(context.Background(), id)
			assert.ErrorIs(t, err, ErrTaskNotFound)

			var rows int64
			require.NoError(t, db.Model(&domain.Task{}).Count(&rows).Error)
			assert.Zero(t, rows)
		})
	}
}
