package transport

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TaskRequest is the body of create and update. Timestamps are RFC 3339.
type TaskRequest struct {
	Title       string     `json:"title" validate:"max=200"`
	Description string     `json:"description" validate:"max=4000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Status      string     `json:"status" validate:"omitempty,oneof=Incomplete Completed"`
	CategoryID  *string    `json:"category_id" validate:"omitempty,max=64"`
	Tags        []string   `json:"tags" validate:"omitempty,max=100,dive,required,max=64"`
	RemindAt    *time.Time `json:"remind_at"`
}

// Fields converts the request into domain task fields.
func (r TaskRequest) Fields() (domain.TaskFields, error) {
	priority, err := domain.ParsePriority(r.Priority)
	if err != nil {
		return domain.TaskFields{}, err
	}
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.TaskFields{}, err
	}
	return domain.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    priority,
		Status:      status,
		CategoryID:  r.CategoryID,
		Tags:        r.Tags,
		RemindAt:    r.RemindAt,
	}, nil
}

// NameRequest names a category or tag.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type ReminderRequest struct {
	RemindAt *time.Time `json:"remind_at" validate:"required"`
}
