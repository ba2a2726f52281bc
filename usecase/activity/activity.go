package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/metrics"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/usecase"
)

// UseCase is the activity recorder. Appends never fail the caller's primary
// operation: a failed write goes to the operation buffer, and only when that
// also fails is an error returned for the caller to log.
type UseCase struct {
	entries repository.ActivityRepository
	buffer  usecase.OperationBuffer
	logger  *zap.Logger
	now     func() time.Time
}

func New(entries repository.ActivityRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		entries: entries,
		buffer:  buffer,
		logger:  logger,
		now:     time.Now,
	}
}

func (uc *UseCase) Append(ctx context.Context, taskID, userID string, action domain.Action, details map[string]interface{}) error {
	entry := &domain.ActivityEntry{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
		Timestamp: uc.now().UTC(),
		Details:   details,
	}

	err := uc.entries.Append(ctx, entry)
	if err == nil {
		return nil
	}
	if uc.buffer == nil {
		metrics.ActivityFallbacks.WithLabelValues("dropped").Inc()
		return err
	}

	if bufErr := uc.buffer.BufferActivity(ctx, usecase.OperationAppend, entry); bufErr != nil {
		metrics.ActivityFallbacks.WithLabelValues("dropped").Inc()
		uc.logger.Error("failed to buffer activity entry",
			zap.String("task_id", taskID),
			zap.String("action", string(action)),
			zap.Error(bufErr))
		return err
	}

	metrics.ActivityFallbacks.WithLabelValues("buffered").Inc()
	uc.logger.Warn("activity entry buffered due to repository error",
		zap.String("task_id", taskID),
		zap.String("action", string(action)),
		zap.Error(err))
	return nil
}

// ListForTask returns the caller's entries for a task, whether or not the task still exists.
func (uc *UseCase) ListForTask(ctx context.Context, taskID, ownerID string) ([]domain.ActivityEntry, error) {
	return uc.entries.ListForTask(ctx, taskID, ownerID, repository.MaxListLimit)
}
