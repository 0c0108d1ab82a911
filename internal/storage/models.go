package storage

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID  `json:"id"`
	Username            string     `json:"username"`
	PasswordHash        string     `json:"-"`
	Role                string     `json:"role"`
	CreatedAt           time.Time  `json:"created_at"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	FailedLoginAttempts int        `json:"-"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
}

// APIToken is a long-lived bearer token for scripts and integrations. Only
// the hash of the token is stored.
type APIToken struct {
	ID              uuid.UUID      `json:"id"`
	TokenHash       string         `json:"-"`
	Name            string         `json:"name"`
	Permissions     []string       `json:"permissions"`
	CreatedAt       time.Time      `json:"created_at"`
	LastUsedAt      *time.Time     `json:"last_used_at"`
	CreatedByUserID *uuid.UUID     `json:"created_by_user_id"`
	Metadata        map[string]any `json:"metadata"`
}

type AuthEvent struct {
	Type       string
	UserID     *uuid.UUID
	APITokenID *uuid.UUID
	IPAddress  string
	UserAgent  string
	Success    bool
	Reason     string
}
