package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an auditor account. Identity is an ambient concern here: the core
// only ever sees actor IDs passed explicitly into its operations.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser creates an auditor account with an already-hashed password.
func NewUser(email, passwordHash, name, role string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
