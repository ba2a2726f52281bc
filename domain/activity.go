package domain

import (
	"fmt"
	"time"
)

// Action names a state-changing event recorded against a task.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionCategoryAdded Action = "category_added"
	ActionTagAdded      Action = "tag_added"
)

// ParseAction validates a stored action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionCategoryAdded, ActionTagAdded:
		return a, nil
	default:
		return "", fmt.Errorf("unknown activity action %q", s)
	}
}

// ActivityEntry is one immutable audit record. TaskID is a weak reference:
// entries outlive the task they describe.
type ActivityEntry struct {
	ID        string                 `json:"id"`
	TaskID    string                 `json:"task_id"`
	UserID    string                 `json:"user_id"`
	Action    Action                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
