package session

import "context"

// Backend is the auth collaborator contract. Two interchangeable
// implementations exist: the HTTP client against the portal API and the
// in-memory demo backend; the binary picks one at startup.
//
// Failures are classified through portalerr so the manager can tell the
// one class it recovers locally (expired access token) from everything it
// must surface unchanged.
type Backend interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, email, password, company string) (*Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (*User, error)
}
