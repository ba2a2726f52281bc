package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/buffer"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase"
)

type mockActivityRepository struct {
	mock.Mock
}

func (m *mockActivityRepository) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockActivityRepository) ListForTask(ctx context.Context, taskID, userID string, limit int) ([]domain.ActivityEntry, error) {
	args := m.Called(ctx, taskID, userID, limit)
	return args.Get(0).([]domain.ActivityEntry), args.Error(1)
}

type staticHealth bool

func (h staticHealth) IsOnline() bool { return bool(h) }

func openBuffer(t *testing.T) *buffer.Store {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), buffer.EntityActivity, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func bufferSize(t *testing.T, store *buffer.Store) int {
	t.Helper()
	size, err := store.Size()
	require.NoError(t, err)
	return size
}

func bufferedEntry(t *testing.T, bridge *BufferBridge, taskID string) *domain.ActivityEntry {
	t.Helper()
	entry := &domain.ActivityEntry{
		ID:        "entry-" + taskID,
		TaskID:    taskID,
		UserID:    "alice",
		Action:    domain.ActionCreated,
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, bridge.BufferActivity(context.Background(), usecase.OperationAppend, entry))
	return entry
}

func TestDrainReplaysBufferedActivity(t *testing.T) {
	ctx := context.Background()
	store := openBuffer(t)
	repo := memory.NewActivityRepository()
	bp := NewBufferProcessor(store, staticHealth(true), repo, nil, ProcessorConfig{})
	bridge := NewBufferBridge(bp)

	bufferedEntry(t, bridge, "task-1")
	bufferedEntry(t, bridge, "task-2")
	assert.Equal(t, 2, bufferSize(t, store))

	require.NoError(t, bp.Drain(ctx))
	assert.Zero(t, bufferSize(t, store))

	entries, err := repo.ListForTask(ctx, "task-1", "alice", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "entry-task-1", entries[0].ID)
}

func TestDrainSkipsWhileOffline(t *testing.T) {
	store := openBuffer(t)
	repo := new(mockActivityRepository)
	bp := NewBufferProcessor(store, staticHealth(false), repo, nil, ProcessorConfig{})
	bufferedEntry(t, NewBufferBridge(bp), "task-1")

	require.NoError(t, bp.Drain(context.Background()))
	assert.Equal(t, 1, bufferSize(t, store))
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	store := openBuffer(t)
	repo := new(mockActivityRepository)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("still down"))

	bp := NewBufferProcessor(store, nil, repo, nil, ProcessorConfig{MaxRetries: 2})
	bufferedEntry(t, NewBufferBridge(bp), "task-1")

	require.NoError(t, bp.Drain(ctx))
	assert.Equal(t, 1, bufferSize(t, store))

	items, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, activityPriority, items[0].Priority)

	require.NoError(t, bp.Drain(ctx))
	assert.Zero(t, bufferSize(t, store))
	repo.AssertNumberOfCalls(t, "Append", 2)
}

func TestBridgeRejectsMissingEntry(t *testing.T) {
	bridge := NewBufferBridge(nil)
	err := bridge.BufferActivity(context.Background(), usecase.OperationAppend, &domain.ActivityEntry{})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
