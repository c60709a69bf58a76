package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WorkspaceAnnouncement is a message posted to every member of one workspace.
type WorkspaceAnnouncement struct {
	ID          string
	WorkspaceID string
	AuthorID    string
	AuthorName  string
	Message     string
	CreatedAt   time.Time
}

// SiteAnnouncement is a message shown to every visitor of the site.
type SiteAnnouncement struct {
	ID         string
	AuthorID   string
	AuthorName string
	Title      string
	Message    string
	Level      Level
	CreatedAt  time.Time
}

type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// DefaultTitle is used when a site announcement is posted without a title.
const DefaultTitle = "Announcement"

const (
	MaxMessageLength = 5000
	MaxTitleLength   = 200
)

// ValidateMessage trims message and checks it is present and within MaxMessageLength.
func ValidateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("a message is required")
	}
	if len(message) > MaxMessageLength {
		return "", errors.New("message must be at most 5000 characters")
	}
	return message, nil
}

// Validate trims and validates a site announcement draft, filling the default title and level.
func (a *SiteAnnouncement) Validate() error {
	message, err := ValidateMessage(a.Message)
	if err != nil {
		return err
	}
	lvl, err := ParseLevel(string(a.Level))
	if err != nil {
		return err
	}
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = DefaultTitle
	}
	if len(title) > MaxTitleLength {
		return errors.New("title must be at most 200 characters")
	}
	a.Title, a.Message, a.Level = title, message, lvl
	return nil
}

// ParseLevel validates s as an announcement level; empty defaults to info.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LevelInfo, nil
	case LevelInfo, LevelWarning, LevelCritical:
		return l, nil
	default:
		return "", fmt.Errorf("invalid announcement level %q", s)
	}
}
