package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type activityRepository struct {
	mu      sync.RWMutex
	entries []domain.ActivityEntry
}

// NewActivityRepository returns an append-only in-process ActivityRepository.
func NewActivityRepository() repository.ActivityRepository {
	return &activityRepository{}
}

func (r *activityRepository) Append(_ context.Context, entry *domain.ActivityEntry) error {
	if entry == nil || entry.TaskID == "" {
		return domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing.ID == entry.ID {
			return nil
		}
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *activityRepository) ListForTask(_ context.Context, taskID, userID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 || limit > repository.MaxListLimit {
		limit = repository.MaxListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ActivityEntry, 0)
	for _, entry := range r.entries {
		if entry.TaskID == taskID && entry.UserID == userID {
			out = append(out, entry)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
