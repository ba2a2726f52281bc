package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const taskColumns = `task_id, owner_id, title, description, due_date, priority, status, category_id, tags, remind_at, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) GetOwned(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1 AND owner_id = $2`
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	filter = filter.Normalized()

	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE owner_id = $1
	  AND ($2 = '' OR status = $2)
	  AND ($3 = '' OR priority = $3)
	  AND ($4 = '' OR category_id = $4)
	  AND ($5 = '' OR $5 = ANY(tags))
	  AND ($6 = '' OR title ILIKE '%' || $6 || '%' ESCAPE '\' OR description ILIKE '%' || $6 || '%' ESCAPE '\')
	ORDER BY created_at DESC, task_id
	LIMIT $7 OFFSET $8
	`
	rows, err := r.pool.Query(ctx, query,
		filter.OwnerID,
		filter.Status.String(),
		filter.Priority.String(),
		filter.CategoryID,
		filter.TagID,
		escapeLike(filter.Search),
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Tags = domain.UniqueTags(task.Tags)

	const query = `
	INSERT INTO tasks (task_id, owner_id, title, description, due_date, priority, status, category_id, tags, remind_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority.String(),
		task.Status.String(),
		task.CategoryID,
		task.Tags,
		task.RemindAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) Replace(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	task.Tags = domain.UniqueTags(task.Tags)

	const query = `
	UPDATE tasks
	SET title = $3,
		description = $4,
		due_date = $5,
		priority = $6,
		status = $7,
		category_id = $8,
		tags = $9,
		remind_at = $10,
		updated_at = NOW()
	WHERE task_id = $1 AND owner_id = $2
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority.String(),
		task.Status.String(),
		task.CategoryID,
		task.Tags,
		task.RemindAt,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("replace task: %w", err)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM tasks WHERE task_id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) SetCategory(ctx context.Context, id, categoryID string) error {
	const query = `UPDATE tasks SET category_id = $2, updated_at = NOW() WHERE task_id = $1`
	tag, err := r.pool.Exec(ctx, query, id, categoryID)
	if err != nil {
		return fmt.Errorf("set task category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) AddTag(ctx context.Context, id, tagID string) (bool, error) {
	// the NOT ANY guard keeps concurrent adds of the same tag from duplicating it
	const query = `
	UPDATE tasks
	SET tags = array_append(tags, $2::text), updated_at = NOW()
	WHERE task_id = $1 AND NOT ($2::text = ANY(tags))
	`
	tag, err := r.pool.Exec(ctx, query, id, tagID)
	if err != nil {
		return false, fmt.Errorf("add task tag: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE task_id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check task: %w", err)
	}
	if !exists {
		return false, domain.ErrTaskNotFound
	}
	return false, nil
}

func (r *taskRepository) SetReminder(ctx context.Context, id, ownerID string, remindAt time.Time) error {
	const query = `UPDATE tasks SET remind_at = $3, updated_at = NOW() WHERE task_id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID, remindAt)
	if err != nil {
		return fmt.Errorf("set reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
	FROM tasks
	WHERE remind_at IS NOT NULL AND remind_at <= $1
	ORDER BY remind_at
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) ClearReminder(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET remind_at = NULL WHERE task_id = $1`, id)
	if err != nil {
		return fmt.Errorf("clear reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var priority, status string

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&priority,
		&status,
		&task.CategoryID,
		&task.Tags,
		&task.RemindAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	var err error
	if task.Priority, err = domain.ParsePriority(priority); err != nil {
		return nil, err
	}
	if task.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return &task, nil
}
