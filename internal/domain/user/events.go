package user

import "time"

const (
	EventUserRegistered          = "UserRegistered"
	EventUserActivated           = "UserActivated"
	EventUserDeactivated         = "UserDeactivated"
	EventUserPasswordChanged     = "UserPasswordChanged"
	EventUserLoggedIn            = "UserLoggedIn"
	EventUserLoggedOut           = "UserLoggedOut"
	EventPasswordResetRequested  = "PasswordResetRequested"
	EventPasswordResetCompleted  = "PasswordResetCompleted"
)

// UserRegistered is emitted when a new account is created. Buyer accounts
// start inactive and wait for admin approval.
type UserRegistered struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	RegisteredAt time.Time `json:"registered_at"`
}

// UserActivated is emitted when an admin approves an account
type UserActivated struct {
	UserID      string    `json:"user_id"`
	ActivatedBy string    `json:"activated_by"`
	ActivatedAt time.Time `json:"activated_at"`
}

// UserDeactivated is emitted when an admin suspends an account
type UserDeactivated struct {
	UserID        string    `json:"user_id"`
	DeactivatedBy string    `json:"deactivated_by"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

// UserPasswordChanged is emitted when the password hash is replaced
type UserPasswordChanged struct {
	UserID       string    `json:"user_id"`
	PasswordHash string    `json:"password_hash"`
	ChangedAt    time.Time `json:"changed_at"`
}

// UserLoggedIn is emitted when a login succeeds
type UserLoggedIn struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	LoggedAt  time.Time `json:"logged_at"`
}

// UserLoggedOut is emitted when a session is terminated by the user
type UserLoggedOut struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	LoggedAt  time.Time `json:"logged_at"`
}

// PasswordResetRequested is emitted when a reset code is issued
type PasswordResetRequested struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

// PasswordResetCompleted is emitted when a reset code is redeemed
type PasswordResetCompleted struct {
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
}
