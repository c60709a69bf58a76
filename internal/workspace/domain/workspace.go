package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 1000
)

// Workspace is a named collaboration space. Names are unique case-insensitively.
type Workspace struct {
	ID          string
	Name        string
	Description string
	CreatedBy   string // empty once the creator account is deleted
	CreatedAt   time.Time
}

// Summary is a workspace joined with its creator's account details, for the admin surface.
type Summary struct {
	Workspace
	CreatorUsername string
	CreatorEmail    string
}

// Validate trims and validates the workspace for persistence.
func (w *Workspace) Validate() error {
	w.Name = strings.TrimSpace(w.Name)
	w.Description = strings.TrimSpace(w.Description)
	if w.Name == "" {
		return errors.New("workspace name is required")
	}
	if len(w.Name) > MaxNameLength {
		return errors.New("workspace name must be at most 100 characters")
	}
	if strings.ContainsAny(w.Name, "/\\") {
		return errors.New("workspace name must not contain slashes")
	}
	if len(w.Description) > MaxDescriptionLength {
		return errors.New("workspace description must be at most 1000 characters")
	}
	return nil
}
