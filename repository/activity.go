package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

type ActivityRepository interface {
	Append(ctx context.Context, entry *domain.ActivityEntry) error
	ListForTask(ctx context.Context, taskID, userID string, limit int) ([]domain.ActivityEntry, error)
}
