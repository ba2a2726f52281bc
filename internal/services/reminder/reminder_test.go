package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/memory"
)

type addressBook map[string]string

func (a addressBook) ReminderAddress(_ context.Context, ownerID string) (string, error) {
	return a[ownerID], nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	fail map[string]bool
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail[msg.To] {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

func seedReminder(t *testing.T, tasks repository.TaskRepository, owner, title string, at time.Time) *domain.Task {
	t.Helper()
	ctx := context.Background()
	created, err := tasks.Create(ctx, &domain.Task{OwnerID: owner, TaskFields: domain.TaskFields{Title: title}})
	require.NoError(t, err)
	require.NoError(t, tasks.SetReminder(ctx, created.ID, owner, at))
	return created
}

func TestRunOnceDeliversAndClears(t *testing.T) {
	ctx := context.Background()
	tasks := memory.NewTaskRepository()
	now := time.Now()

	due := seedReminder(t, tasks, "alice", "Pay rent", now.Add(-time.Minute))
	failing := seedReminder(t, tasks, "bob", "", now.Add(-time.Second))
	orphan := seedReminder(t, tasks, "ghost", "Nobody", now.Add(-time.Second))
	later := seedReminder(t, tasks, "alice", "Later", now.Add(time.Hour))

	notifier := &recordingNotifier{fail: map[string]bool{"bob@example.com": true}}
	svc, err := New(tasks, addressBook{"alice": "alice@example.com", "bob": "bob@example.com"}, notifier, nil, Config{})
	require.NoError(t, err)

	result, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Due: 3, Sent: 1, Failed: 1, NoAddress: 1}, result)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "alice@example.com", notifier.sent[0].To)
	assert.Equal(t, "Reminder: Pay rent", notifier.sent[0].Subject)
	assert.Contains(t, notifier.sent[0].Body, "Pay rent")

	for _, id := range []string{due.ID, failing.ID, orphan.ID} {
		task, err := tasks.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, task.RemindAt, "reminder for %s should be cleared", id)
	}

	pending, err := tasks.GetByID(ctx, later.ID)
	require.NoError(t, err)
	assert.NotNil(t, pending.RemindAt)

	result, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Due)
}

func TestRunOnceUsesDefaultSubject(t *testing.T) {
	tasks := memory.NewTaskRepository()
	seedReminder(t, tasks, "alice", "", time.Now().Add(-time.Second))

	notifier := &recordingNotifier{}
	svc, err := New(tasks, addressBook{"alice": "alice@example.com"}, notifier, nil, Config{})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Reminder: Task Reminder", notifier.sent[0].Subject)
}

func TestScheduledRunAbandonedAfterGrace(t *testing.T) {
	tasks := memory.NewTaskRepository()
	task := seedReminder(t, tasks, "alice", "late", time.Now().Add(-time.Minute))

	core, logs := observer.New(zapcore.WarnLevel)
	notifier := &recordingNotifier{}
	svc, err := New(tasks, addressBook{"alice": "alice@example.com"}, notifier, zap.New(core), Config{Grace: 10 * time.Second})
	require.NoError(t, err)

	svc.runScheduled(time.Now().Add(-time.Minute))
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 1, logs.FilterMessage("reminder run abandoned, missed grace period").Len())

	got, err := tasks.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.RemindAt)

	svc.runScheduled(time.Now().Add(-time.Second))
	assert.Len(t, notifier.sent, 1)
}

func TestStartStop(t *testing.T) {
	svc, err := New(memory.NewTaskRepository(), addressBook{}, &recordingNotifier{}, nil, Config{Interval: 500 * time.Millisecond})
	require.NoError(t, err)
	svc.Start()
	svc.Stop(context.Background())
}

type blockingNotifier struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(_ context.Context, _ domain.Notification) error {
	if n.calls.Add(1) == 1 {
		close(n.entered)
	}
	<-n.release
	return nil
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	tasks := memory.NewTaskRepository()
	seedReminder(t, tasks, "alice", "slow", time.Now().Add(-time.Minute))

	core, logs := observer.New(zapcore.DebugLevel)
	notifier := &blockingNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	svc, err := New(tasks, addressBook{"alice": "alice@example.com"}, notifier, zap.New(core), Config{
		Interval: time.Second,
		Grace:    time.Minute,
	})
	require.NoError(t, err)
	svc.Start()

	select {
	case <-notifier.entered:
	case <-time.After(5 * time.Second):
		svc.Stop(context.Background())
		t.Fatal("first run never reached the notifier")
	}

	// two more activations fall due while the first run is blocked
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.GreaterOrEqual(t, logs.FilterMessage("skip").Len(), 1)

	close(notifier.release)
	svc.Stop(context.Background())
	assert.Equal(t, int32(1), notifier.calls.Load())
}
