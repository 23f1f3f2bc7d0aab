package model

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a console user: hosts configuring exam instances and
// administrators managing sessions and eligibility.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsRoot       bool      `json:"is_root"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdminLoginRequest is the payload for an admin login.
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}
