package repository

import (
	"context"
	"time"

	"github.com/fastygo/taskboard/domain"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// TaskFilter narrows an owner-scoped task listing. Empty fields do not filter.
// Search matches title or description case-insensitively.
type TaskFilter struct {
	OwnerID    string
	Status     domain.Status
	Priority   domain.Priority
	CategoryID string
	TagID      string
	Search     string
	Limit      int
	Offset     int
}

// Normalized clamps pagination into the supported window.
func (f TaskFilter) Normalized() TaskFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type TaskRepository interface {
	// GetByID ignores ownership; GetOwned enforces it.
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetOwned(ctx context.Context, id, ownerID string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Replace overwrites every mutable field of an owned task.
	Replace(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id, ownerID string) error
	SetCategory(ctx context.Context, id, categoryID string) error
	// AddTag reports whether the tag was newly added to the set.
	AddTag(ctx context.Context, id, tagID string) (bool, error)
	SetReminder(ctx context.Context, id, ownerID string, remindAt time.Time) error
	// ListDueReminders scans every owner for remind_at <= now.
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]domain.Task, error)
	ClearReminder(ctx context.Context, id string) error
}
