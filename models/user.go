package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a dashboard account
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FullName     string    `json:"fullName" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Tbox         *string   `json:"tbox" db:"tbox"` // Device name of the user's telematics box
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. The email is normalized to lower case.
func NewUser(fullName, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		FullName:     strings.TrimSpace(fullName),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// WithTbox assigns a telematics box to the user
func (u *User) WithTbox(deviceName string) *User {
	u.Tbox = &deviceName
	return u
}

// HasTbox returns true if a telematics box is assigned
func (u *User) HasTbox() bool {
	return u.Tbox != nil && *u.Tbox != ""
}

// NormalizeEmail lower-cases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
