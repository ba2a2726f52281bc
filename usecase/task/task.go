package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/metrics"
	"github.com/fastygo/taskboard/repository"
)

// Taxonomy resolves category and tag names to ids.
type Taxonomy interface {
	FindOrCreate(ctx context.Context, kind domain.TaxonomyKind, name string) (*domain.TaxonomyItem, error)
}

// ActivityRecorder appends audit entries. A returned error means the entry was lost.
type ActivityRecorder interface {
	Append(ctx context.Context, taskID, userID string, action domain.Action, details map[string]interface{}) error
}

type UseCase struct {
	tasks    repository.TaskRepository
	taxonomy Taxonomy
	activity ActivityRecorder
	logger   *zap.Logger
	now      func() time.Time
}

func New(tasks repository.TaskRepository, taxonomy Taxonomy, activity ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		taxonomy: taxonomy,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx, filter.Normalized())
	metrics.TaskOperations.WithLabelValues("list", metrics.Outcome(err)).Inc()
	return tasks, err
}

func (uc *UseCase) GetTask(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	return uc.tasks.GetOwned(ctx, id, ownerID)
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, fields domain.TaskFields) (*domain.Task, error) {
	fields.Normalize(uc.now().UTC())

	task := &domain.Task{OwnerID: ownerID, TaskFields: fields}
	created, err := uc.tasks.Create(ctx, task)
	metrics.TaskOperations.WithLabelValues("create", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	uc.record(ctx, created.ID, ownerID, domain.ActionCreated, map[string]interface{}{
		"title": created.Title,
	})
	return created, nil
}

// UpdateTask replaces every mutable field. remind_at is only replaced when the
// caller supplies one, since clearing it is left to the reminder notifier.
func (uc *UseCase) UpdateTask(ctx context.Context, id, ownerID string, fields domain.TaskFields) (*domain.Task, error) {
	current, err := uc.tasks.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	fields.NormalizeReplacement()
	if fields.RemindAt == nil {
		fields.RemindAt = current.RemindAt
	}

	task := &domain.Task{ID: current.ID, OwnerID: current.OwnerID, TaskFields: fields}
	err = uc.tasks.Replace(ctx, task)
	metrics.TaskOperations.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	uc.record(ctx, task.ID, ownerID, domain.ActionUpdated, fieldDetails(task.TaskFields))
	return task, nil
}

// DeleteTask logs the deletion only when a task was actually removed.
func (uc *UseCase) DeleteTask(ctx context.Context, id, ownerID string) error {
	err := uc.tasks.Delete(ctx, id, ownerID)
	metrics.TaskOperations.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}
	uc.record(ctx, id, ownerID, domain.ActionDeleted, nil)
	return nil
}

// AssignCategoryByName works on any task id regardless of owner; actorID is
// recorded as the author of the log entry.
func (uc *UseCase) AssignCategoryByName(ctx context.Context, id, actorID, name string) (*domain.Task, error) {
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if _, err := uc.tasks.GetByID(ctx, id); err != nil {
		return nil, err
	}

	category, err := uc.taxonomy.FindOrCreate(ctx, domain.KindCategory, name)
	if err != nil {
		return nil, err
	}
	if err := uc.tasks.SetCategory(ctx, id, category.ID); err != nil {
		return nil, err
	}
	metrics.TaskOperations.WithLabelValues("assign_category", "ok").Inc()

	uc.record(ctx, id, actorID, domain.ActionCategoryAdded, map[string]interface{}{
		"category": name,
	})
	return uc.tasks.GetByID(ctx, id)
}

// AssignTagByName adds the tag once; repeating the call is a silent no-op.
func (uc *UseCase) AssignTagByName(ctx context.Context, id, actorID, name string) (*domain.Task, error) {
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if _, err := uc.tasks.GetByID(ctx, id); err != nil {
		return nil, err
	}

	tag, err := uc.taxonomy.FindOrCreate(ctx, domain.KindTag, name)
	if err != nil {
		return nil, err
	}
	added, err := uc.tasks.AddTag(ctx, id, tag.ID)
	if err != nil {
		return nil, err
	}
	if added {
		metrics.TaskOperations.WithLabelValues("assign_tag", "ok").Inc()
		uc.record(ctx, id, actorID, domain.ActionTagAdded, map[string]interface{}{
			"tag": name,
		})
	}
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) SetReminder(ctx context.Context, id, ownerID string, remindAt time.Time) (*domain.Task, error) {
	if remindAt.IsZero() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "remind_at is required")
	}
	if err := uc.tasks.SetReminder(ctx, id, ownerID, remindAt.UTC()); err != nil {
		return nil, err
	}
	return uc.tasks.GetOwned(ctx, id, ownerID)
}

func (uc *UseCase) record(ctx context.Context, taskID, userID string, action domain.Action, details map[string]interface{}) {
	if uc.activity == nil {
		return
	}
	if err := uc.activity.Append(ctx, taskID, userID, action, details); err != nil {
		uc.logger.Warn("activity entry lost",
			zap.String("task_id", taskID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

func fieldDetails(f domain.TaskFields) map[string]interface{} {
	details := map[string]interface{}{
		"title":       f.Title,
		"description": f.Description,
		"priority":    f.Priority.String(),
		"status":      f.Status.String(),
		"tags":        append([]string{}, f.Tags...),
		"due_date":    formatTime(f.DueDate),
		"remind_at":   formatTime(f.RemindAt),
		"category_id": nil,
	}
	if f.CategoryID != nil {
		details["category_id"] = *f.CategoryID
	}
	return details
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
