package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthAction represents the type of authentication event being audited
type AuthAction string

const (
	AuthActionSignup         AuthAction = "signup"
	AuthActionLoginSucceeded AuthAction = "login_succeeded"
	AuthActionLoginFailed    AuthAction = "login_failed"
	AuthActionLogout         AuthAction = "logout"
	AuthActionTokenRejected  AuthAction = "token_rejected"
)

// AuthEvent represents an authentication audit trail entry
type AuthEvent struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Action    AuthAction `json:"action" db:"action"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Email     string     `json:"email,omitempty" db:"email"`
	Channel   string     `json:"channel,omitempty" db:"channel"` // header or cookie for verifications
	Reason    string     `json:"reason,omitempty" db:"reason"`   // Internal only, never sent to callers
	IPAddress string     `json:"ip_address" db:"ip_address"`
	UserAgent string     `json:"user_agent" db:"user_agent"`
	RequestID string     `json:"request_id" db:"request_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AuthEvent model
func (AuthEvent) TableName() string {
	return "auth_events"
}

// NewAuthEvent creates a new AuthEvent instance
func NewAuthEvent(action AuthAction) *AuthEvent {
	return &AuthEvent{
		ID:        uuid.New(),
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
}

// WithUser sets the user ID
func (e *AuthEvent) WithUser(userID uuid.UUID) *AuthEvent {
	e.UserID = &userID
	return e
}

// WithEmail sets the account email
func (e *AuthEvent) WithEmail(email string) *AuthEvent {
	e.Email = NormalizeEmail(email)
	return e
}

// WithChannel sets the credential channel
func (e *AuthEvent) WithChannel(channel string) *AuthEvent {
	e.Channel = channel
	return e
}

// WithReason sets the internal failure reason
func (e *AuthEvent) WithReason(reason string) *AuthEvent {
	e.Reason = reason
	return e
}

// WithRequest sets request metadata
func (e *AuthEvent) WithRequest(requestID, ipAddress, userAgent string) *AuthEvent {
	e.RequestID = requestID
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}
