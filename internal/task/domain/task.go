package domain

import (
	"errors"
	"strings"
	"time"
)

// Task belongs to exactly one workspace and has at most one current assignee.
type Task struct {
	ID          string
	WorkspaceID string
	Title       string
	Description string
	CreatedBy   string
	CreatedAt   time.Time
	AssigneeID  string // empty when unassigned
}

// Assignment is the current assignee row of a task.
type Assignment struct {
	TaskID     string
	UserID     string
	AssignedBy string
	AssignedAt time.Time
}

// Validate trims and validates the task for persistence.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	if t.Title == "" {
		return errors.New("task title is required")
	}
	if len(t.Title) > 200 {
		return errors.New("task title must be at most 200 characters")
	}
	return nil
}
