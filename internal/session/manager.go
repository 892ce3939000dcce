package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/device-portal/internal/portalerr"
)

// Operation is an authenticated call executed with the current access token.
// It is an alias so that Execute satisfies caller-side interfaces declared
// against the plain function type.
type Operation = func(ctx context.Context, accessToken string) error

// Manager owns the session token pair and makes refresh-on-401 transparent
// to callers. It is safe for concurrent use; refresh attempts are
// serialized by a single in-flight guard because refresh tokens are
// single-use and duplicate refreshes would invalidate each other.
type Manager struct {
	backend Backend
	store   Store
	now     func() time.Time

	mu       sync.Mutex
	creds    *Credentials
	inflight *refreshAttempt
}

type refreshAttempt struct {
	done chan struct{}
	err  error
}

// NewManager restores any persisted session from store and returns a
// manager bound to backend.
func NewManager(backend Backend, store Store) *Manager {
	m := &Manager{
		backend: backend,
		store:   store,
		now:     time.Now,
	}
	m.restore()
	return m
}

// State derives the lifecycle state from stored tokens and the clock.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.creds == nil {
		return StateUnauthenticated
	}
	if m.now().Before(m.creds.ExpiresAt) {
		return StateValid
	}
	if m.creds.RefreshToken != "" {
		return StateExpiring
	}
	return StateUnauthenticated
}

// CurrentUser returns the authenticated identity summary, if any.
func (m *Manager) CurrentUser() (*User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, false
	}
	u := m.creds.User
	return &u, true
}

// AccessToken returns the current access token, or "".
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return ""
	}
	return m.creds.AccessToken
}

// ExpiresIn returns the remaining access-token lifetime; zero or negative
// means expired.
func (m *Manager) ExpiresIn() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return 0
	}
	return m.creds.ExpiresAt.Sub(m.now())
}

// ExpiringSoon reports the advisory "soon expiring" sub-state: remaining
// lifetime below the warning threshold but still positive. Purely
// informational; it disappears once a refresh succeeds.
func (m *Manager) ExpiringSoon() bool {
	remaining := m.ExpiresIn()
	return remaining > 0 && remaining < WarnThreshold
}

// Login authenticates and establishes the session. A known-but-inactive
// account yields the PendingApproval outcome with no session and no error.
func (m *Manager) Login(ctx context.Context, email, password string) (*Outcome, error) {
	creds, err := m.backend.Login(ctx, email, password)
	if err != nil {
		if portalerr.CodeOf(err) == portalerr.CodePendingApproval {
			return &Outcome{PendingApproval: true}, nil
		}
		return nil, err
	}

	m.mu.Lock()
	m.setLocked(creds)
	m.mu.Unlock()

	u := creds.User
	return &Outcome{User: &u}, nil
}

// Register creates an account and, when the backend issues tokens
// immediately, establishes the session. Accounts awaiting admin approval
// yield the PendingApproval outcome.
func (m *Manager) Register(ctx context.Context, email, password, company string) (*Outcome, error) {
	creds, err := m.backend.Register(ctx, email, password, company)
	if err != nil {
		if portalerr.CodeOf(err) == portalerr.CodePendingApproval {
			return &Outcome{PendingApproval: true}, nil
		}
		return nil, err
	}

	m.mu.Lock()
	m.setLocked(creds)
	m.mu.Unlock()

	u := creds.User
	return &Outcome{User: &u}, nil
}

// Logout invalidates the session server-side (best-effort) and clears
// local state unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	var refreshToken string
	if m.creds != nil {
		refreshToken = m.creds.RefreshToken
	}
	m.clearLocked()
	m.mu.Unlock()

	if refreshToken != "" {
		// Local state is already gone; a failed server call changes nothing.
		_ = m.backend.Logout(ctx, refreshToken)
	}
}

// Refresh exchanges the refresh token for a new token pair. Concurrent
// callers share a single in-flight attempt and all receive its result. A
// refresh rejected by the backend destroys the session.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if att := m.inflight; att != nil {
		m.mu.Unlock()
		select {
		case <-att.done:
			return att.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.creds == nil || m.creds.RefreshToken == "" {
		m.mu.Unlock()
		return portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidRefreshToken, "no refresh token")
	}
	att := &refreshAttempt{done: make(chan struct{})}
	m.inflight = att
	refreshToken := m.creds.RefreshToken
	m.mu.Unlock()

	creds, err := m.backend.Refresh(ctx, refreshToken)

	m.mu.Lock()
	if err != nil {
		// Only an authentication rejection means the refresh token itself
		// is dead; a transient failure leaves the session recoverable.
		if portalerr.IsKind(err, portalerr.KindAuthentication) {
			m.clearLocked()
		}
	} else {
		m.setLocked(creds)
	}
	att.err = err
	m.inflight = nil
	m.mu.Unlock()
	close(att.done)

	return err
}

// Execute runs op with the current access token. On an authentication
// failure it performs exactly one refresh and retries op once with the new
// token; if the refresh fails, the original failure is surfaced and no
// further attempt is made. Every other error class is returned verbatim.
func (m *Manager) Execute(ctx context.Context, op Operation) error {
	m.mu.Lock()
	var accessToken, refreshToken string
	if m.creds != nil {
		accessToken = m.creds.AccessToken
		refreshToken = m.creds.RefreshToken
	}
	m.mu.Unlock()

	if accessToken == "" && refreshToken == "" {
		return portalerr.New(portalerr.KindAuthentication, portalerr.CodeUnauthorized, "not authenticated")
	}

	err := op(ctx, accessToken)
	if err == nil || !portalerr.IsKind(err, portalerr.KindAuthentication) {
		return err
	}
	if refreshToken == "" {
		return err
	}

	if rerr := m.Refresh(ctx); rerr != nil {
		// Surface the original authorization failure; the retry budget is
		// spent.
		return err
	}
	return op(ctx, m.AccessToken())
}

// setLocked replaces the session and persists it. Callers hold m.mu.
func (m *Manager) setLocked(creds *Credentials) {
	m.creds = creds
	m.store.Set(KeyAccessToken, creds.AccessToken)
	m.store.Set(KeyRefreshToken, creds.RefreshToken)
	m.store.Set(KeyExpiresAt, creds.ExpiresAt.Format(time.RFC3339Nano))
	if data, err := json.Marshal(creds.User); err == nil {
		m.store.Set(KeyUser, string(data))
	}
}

// clearLocked destroys the session locally. Callers hold m.mu.
func (m *Manager) clearLocked() {
	m.creds = nil
	m.store.Delete(KeyAccessToken)
	m.store.Delete(KeyRefreshToken)
	m.store.Delete(KeyExpiresAt)
	m.store.Delete(KeyUser)
}

// restore loads a persisted session, if the store has one.
func (m *Manager) restore() {
	accessToken, ok := m.store.Get(KeyAccessToken)
	if !ok {
		return
	}
	refreshToken, _ := m.store.Get(KeyRefreshToken)
	if refreshToken == "" {
		return
	}

	creds := &Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if raw, ok := m.store.Get(KeyExpiresAt); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			creds.ExpiresAt = t
		}
	}
	if raw, ok := m.store.Get(KeyUser); ok {
		_ = json.Unmarshal([]byte(raw), &creds.User)
	}
	m.creds = creds
}
