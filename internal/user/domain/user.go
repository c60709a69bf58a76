package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// User is the core account entity. The admin flag is not stored separately; see IsAdmin.
type User struct {
	ID                  string
	Username            string
	Email               string
	Role                Role
	Subscription        Subscription
	NotifyAnnouncements bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Subscription string

const (
	SubscriptionNone Subscription = "none"
	SubscriptionLite Subscription = "lite"
)

// ParseSubscription validates s as a subscription tier.
func ParseSubscription(s string) (Subscription, error) {
	switch sub := Subscription(strings.ToLower(strings.TrimSpace(s))); sub {
	case SubscriptionNone, SubscriptionLite:
		return sub, nil
	default:
		return "", fmt.Errorf("invalid subscription %q", s)
	}
}

// IsAdmin is a pure function of Role.
func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.Subscription == "" {
		u.Subscription = SubscriptionNone
	}
	return nil
}
