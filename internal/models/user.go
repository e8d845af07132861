package models

import (
	"strings"
	"time"
)

// UserID identifies a user profile
type UserID string

// NewUserID builds a UserID from user input. Surrounding whitespace is dropped so
// every layer sees the same id.
func NewUserID(s string) UserID {
	return UserID(strings.TrimSpace(s))
}

func (id UserID) String() string {
	return string(id)
}

// IsZero reports whether no user is identified
func (id UserID) IsZero() bool {
	return id == ""
}

// User is the profile placeholders resolve user fields from
type User struct {
	ID          UserID    `json:"id" yaml:"id"`
	Login       string    `json:"login,omitempty" yaml:"login,omitempty"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	FirstName   string    `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`

	FilePath string `json:"-" yaml:"-"`
}

// Name returns the best human readable name for the user
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	if u.Login != "" {
		return u.Login
	}
	return u.ID.String()
}
