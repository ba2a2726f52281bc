package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type taskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	seq   map[string]uint64
	next  uint64
	now   func() time.Time
}

// NewTaskRepository returns an in-process TaskRepository.
func NewTaskRepository() repository.TaskRepository {
	return &taskRepository{
		tasks: make(map[string]*domain.Task),
		seq:   make(map[string]uint64),
		now:   time.Now,
	}
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *taskRepository) GetOwned(_ context.Context, id, ownerID string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	filter = filter.Normalized()
	search := strings.ToLower(filter.Search)

	// copies are taken under the lock; the stored pointers keep mutating
	r.mu.RLock()
	type ranked struct {
		task domain.Task
		seq  uint64
	}
	matched := make([]ranked, 0)
	for _, task := range r.tasks {
		if matchesFilter(task, filter, search) {
			matched = append(matched, ranked{task: *cloneTask(task), seq: r.seq[task.ID]})
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].seq > matched[j].seq
	})

	if filter.Offset >= len(matched) {
		return []domain.Task{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]domain.Task, 0, end-filter.Offset)
	for _, m := range matched[filter.Offset:end] {
		out = append(out, m.task)
	}
	return out, nil
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Tags = domain.UniqueTags(task.Tags)

	r.next++
	r.seq[task.ID] = r.next
	r.tasks[task.ID] = cloneTask(task)
	return task, nil
}

func (r *taskRepository) Replace(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.tasks[task.ID]
	if !ok || current.OwnerID != task.OwnerID {
		return domain.ErrTaskNotFound
	}

	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = r.now()
	task.Tags = domain.UniqueTags(task.Tags)
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	delete(r.seq, id)
	return nil
}

func (r *taskRepository) SetCategory(_ context.Context, id, categoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.CategoryID = &categoryID
	task.UpdatedAt = r.now()
	return nil
}

func (r *taskRepository) AddTag(_ context.Context, id, tagID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return false, domain.ErrTaskNotFound
	}
	if task.HasTag(tagID) {
		return false, nil
	}
	task.Tags = append(task.Tags, tagID)
	task.UpdatedAt = r.now()
	return true, nil
}

func (r *taskRepository) SetReminder(_ context.Context, id, ownerID string, remindAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	task.RemindAt = &remindAt
	task.UpdatedAt = r.now()
	return nil
}

func (r *taskRepository) ListDueReminders(_ context.Context, now time.Time, limit int) ([]domain.Task, error) {
	if limit <= 0 {
		limit = repository.MaxListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]domain.Task, 0)
	for _, task := range r.tasks {
		if task.RemindAt != nil && !task.RemindAt.After(now) {
			due = append(due, *cloneTask(task))
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].RemindAt.Before(*due[j].RemindAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *taskRepository) ClearReminder(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.RemindAt = nil
	return nil
}

func matchesFilter(task *domain.Task, filter repository.TaskFilter, search string) bool {
	if task.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Status != domain.StatusUnset && task.Status != filter.Status {
		return false
	}
	if filter.Priority != domain.PriorityUnset && task.Priority != filter.Priority {
		return false
	}
	if filter.CategoryID != "" && (task.CategoryID == nil || *task.CategoryID != filter.CategoryID) {
		return false
	}
	if filter.TagID != "" && !task.HasTag(filter.TagID) {
		return false
	}
	if search != "" {
		inTitle := strings.Contains(strings.ToLower(task.Title), search)
		inDescription := strings.Contains(strings.ToLower(task.Description), search)
		if !inTitle && !inDescription {
			return false
		}
	}
	return true
}

func cloneTask(task *domain.Task) *domain.Task {
	out := *task
	out.Tags = append([]string(nil), task.Tags...)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if task.DueDate != nil {
		due := *task.DueDate
		out.DueDate = &due
	}
	if task.RemindAt != nil {
		remind := *task.RemindAt
		out.RemindAt = &remind
	}
	if task.CategoryID != nil {
		category := *task.CategoryID
		out.CategoryID = &category
	}
	return &out
}
