package domain

import (
	"fmt"
	"time"
)

// Priority is the closed set of task priorities. The zero value means "unset".
type Priority uint8

const (
	PriorityUnset Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUnset:
		return ""
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// ParsePriority accepts the wire names; an empty string yields PriorityUnset.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "":
		return PriorityUnset, nil
	case "Low":
		return PriorityLow, nil
	case "Medium":
		return PriorityMedium, nil
	case "High":
		return PriorityHigh, nil
	default:
		return PriorityUnset, WrapError(ErrCodeInvalid, "unknown priority", fmt.Errorf("%q", s))
	}
}

func (p Priority) MarshalText() ([]byte, error) {
	if p > PriorityHigh {
		return nil, fmt.Errorf("invalid priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status is the closed set of task states. The zero value means "unset".
type Status uint8

const (
	StatusUnset Status = iota
	StatusIncomplete
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "Incomplete"
	case StatusCompleted:
		return "Completed"
	case StatusUnset:
		return ""
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// ParseStatus accepts the wire names; an empty string yields StatusUnset.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "":
		return StatusUnset, nil
	case "Incomplete":
		return StatusIncomplete, nil
	case "Completed":
		return StatusCompleted, nil
	default:
		return StatusUnset, WrapError(ErrCodeInvalid, "unknown status", fmt.Errorf("%q", s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	if s > StatusCompleted {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TaskFields is the fixed set of caller-controlled task attributes.
type TaskFields struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CategoryID  *string    `json:"category_id,omitempty"`
	Tags        []string   `json:"tags"`
	RemindAt    *time.Time `json:"remind_at,omitempty"`
}

// Task represents a user-owned activity item.
type Task struct {
	ID      string `json:"task_id"`
	OwnerID string `json:"owner_id"`
	TaskFields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// HasTag reports whether tagID is already in the task's tag set.
func (t *Task) HasTag(tagID string) bool {
	if t == nil {
		return false
	}
	for _, id := range t.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}

// Normalize fills creation defaults, including a due date of now when none was given.
func (f *TaskFields) Normalize(now time.Time) {
	f.NormalizeReplacement()
	if f.DueDate == nil {
		due := now
		f.DueDate = &due
	}
}

// NormalizeReplacement fills enum defaults and removes duplicate tags.
// Used for whole-record replacement, where a missing due date stays missing.
func (f *TaskFields) NormalizeReplacement() {
	if f.Priority == PriorityUnset {
		f.Priority = PriorityMedium
	}
	if f.Status == StatusUnset {
		f.Status = StatusIncomplete
	}
	f.Tags = UniqueTags(f.Tags)
}

// UniqueTags drops empty and repeated ids, keeping first occurrences.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, id := range tags {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
