package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns the append-only Postgres activity log.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

// Append is idempotent on entry ID so buffered replays never duplicate a row.
func (r *activityRepository) Append(ctx context.Context, entry *domain.ActivityEntry) error {
	if entry == nil || entry.TaskID == "" {
		return domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO activity_log (id, task_id, user_id, action, details, created_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
	ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.TaskID,
		entry.UserID,
		string(entry.Action),
		marshalDetails(entry.Details),
		nullTime(entry.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (r *activityRepository) ListForTask(ctx context.Context, taskID, userID string, limit int) ([]domain.ActivityEntry, error) {
	const query = `
	SELECT id, task_id, user_id, action, details, created_at
	FROM activity_log
	WHERE task_id = $1 AND user_id = $2
	ORDER BY created_at, id
	LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, taskID, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ActivityEntry, 0)
	for rows.Next() {
		var (
			entry   domain.ActivityEntry
			action  string
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.UserID, &action, &details, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if entry.Action, err = domain.ParseAction(action); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("decode activity details %s: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
