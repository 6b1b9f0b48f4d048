package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity. PasswordHash never leaves the process.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	MinUsernameLen = 3
	MaxUsernameLen = 64
	MinPasswordLen = 8
	MaxPasswordLen = 1024
)

// ValidateUsername checks that a username conforms to the allowed format.
// Usernames are 3-64 ASCII characters: alphanumeric, dots, hyphens,
// underscores, and @ signs.
func ValidateUsername(name string) error {
	if len(name) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters", MinUsernameLen)
	}
	if len(name) > MaxUsernameLen {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLen)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') &&
			c != '.' && c != '-' && c != '_' && c != '@' {
			return fmt.Errorf("username contains invalid character at position %d: %q", i, c)
		}
	}
	return nil
}

// ValidatePassword checks length bounds only; composition rules are the
// user's business.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLen)
	}
	return nil
}
