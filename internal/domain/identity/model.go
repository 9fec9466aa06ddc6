// Package identity manages patient and doctor accounts and their sessions.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is a portal account. Role is either "patient" or "doctor".
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
