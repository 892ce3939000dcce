// Package session owns the authenticated-session state machine: the
// access/refresh token pair, its expiry, and the retry-on-401 policy that
// makes token recovery transparent to every networked operation.
package session

import "time"

// WarnThreshold is the advisory window before access-token expiry in which
// ExpiringSoon reports true.
const WarnThreshold = 5 * time.Minute

// User is the authenticated identity summary carried with the session.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Company  string `json:"company"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Credentials is the token pair issued by the auth backend. The refresh
// token is single-use: every refresh replaces both tokens.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// State is the session lifecycle state derived from stored tokens and the
// clock.
type State int

const (
	// StateUnauthenticated means no session exists.
	StateUnauthenticated State = iota
	// StateValid means the access token has not expired.
	StateValid
	// StateExpiring means the access token expired but a refresh token is
	// present, so the session is recoverable.
	StateExpiring
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpiring:
		return "expiring"
	default:
		return "unauthenticated"
	}
}

// Outcome is the result of a login or registration attempt. PendingApproval
// is a terminal outcome, not a session state: the account exists but is
// inactive, no tokens are issued, and the caller must retry later.
type Outcome struct {
	PendingApproval bool  `json:"pending_approval"`
	User            *User `json:"user,omitempty"`
}
