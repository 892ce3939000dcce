package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/device-portal/internal/portalerr"
)

// stubBackend is a scriptable Backend for driving the manager.
type stubBackend struct {
	mu           sync.Mutex
	loginErr     error
	refreshErr   error
	logoutErr    error
	refreshCalls int
	logoutCalls  int
	refreshGate  chan struct{} // when set, Refresh blocks until closed
	issued       int
}

func (b *stubBackend) issue() *Credentials {
	b.issued++
	return &Credentials{
		AccessToken:  fmt.Sprintf("access-%d", b.issued),
		RefreshToken: fmt.Sprintf("refresh-%d", b.issued),
		ExpiresAt:    time.Now().Add(30 * time.Minute),
		User:         User{ID: "user-1", Email: "buyer@acme.example", Company: "Acme Trading", Role: "buyer", IsActive: true},
	}
}

func (b *stubBackend) Login(ctx context.Context, email, password string) (*Credentials, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	return b.issue(), nil
}

func (b *stubBackend) Register(ctx context.Context, email, password, company string) (*Credentials, error) {
	return nil, portalerr.New(portalerr.KindAuthorization, portalerr.CodePendingApproval, "account pending approval")
}

func (b *stubBackend) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	b.mu.Lock()
	b.refreshCalls++
	gate := b.refreshGate
	err := b.refreshErr
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issue(), nil
}

func (b *stubBackend) Logout(ctx context.Context, refreshToken string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	return b.logoutErr
}

func (b *stubBackend) Me(ctx context.Context, accessToken string) (*User, error) {
	return &User{ID: "user-1"}, nil
}

func authFailure() error {
	return portalerr.New(portalerr.KindAuthentication, portalerr.CodeUnauthorized, "token expired")
}

func loggedInManager(t *testing.T, backend *stubBackend) *Manager {
	t.Helper()
	m := NewManager(backend, NewMemoryStore())
	outcome, err := m.Login(context.Background(), "buyer@acme.example", "Str0ng!pass")
	require.NoError(t, err)
	require.False(t, outcome.PendingApproval)
	return m
}

func TestManager_LoginEstablishesSession(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	assert.Equal(t, StateValid, m.State())
	assert.Equal(t, "access-1", m.AccessToken())

	user, ok := m.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "buyer@acme.example", user.Email)
}

func TestManager_LoginInvalidCredentials(t *testing.T) {
	backend := &stubBackend{
		loginErr: portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidCredentials, "invalid email or password"),
	}
	m := NewManager(backend, NewMemoryStore())

	outcome, err := m.Login(context.Background(), "buyer@acme.example", "wrong")

	assert.Nil(t, outcome)
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestManager_LoginPendingApproval(t *testing.T) {
	backend := &stubBackend{
		loginErr: portalerr.New(portalerr.KindAuthorization, portalerr.CodePendingApproval, "account pending approval"),
	}
	m := NewManager(backend, NewMemoryStore())

	outcome, err := m.Login(context.Background(), "new@acme.example", "Str0ng!pass")

	// PendingApproval is an outcome, not an error, and carries no tokens.
	require.NoError(t, err)
	assert.True(t, outcome.PendingApproval)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Empty(t, m.AccessToken())
}

func TestManager_RegisterPendingApproval(t *testing.T) {
	m := NewManager(&stubBackend{}, NewMemoryStore())

	outcome, err := m.Register(context.Background(), "new@acme.example", "Str0ng!pass", "Acme Trading")

	require.NoError(t, err)
	assert.True(t, outcome.PendingApproval)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestManager_ExecuteHappyPath(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	var calls int
	err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
		calls++
		assert.Equal(t, "access-1", accessToken)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, backend.refreshCalls)
}

func TestManager_ExecuteRefreshRetryBudget(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	// Fails with an authorization failure once, then succeeds: exactly one
	// refresh, exactly one retry.
	var calls int
	err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
		calls++
		if calls == 1 {
			return authFailure()
		}
		assert.Equal(t, "access-2", accessToken)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, backend.refreshCalls)
}

func TestManager_ExecuteRefreshFailureClearsSession(t *testing.T) {
	backend := &stubBackend{
		refreshErr: portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidRefreshToken, "refresh token expired"),
	}
	m := loggedInManager(t, backend)

	var calls int
	err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
		calls++
		return authFailure()
	})

	// The original failure surfaces, the op runs once, and the session is
	// destroyed. No infinite retry loop.
	assert.Equal(t, 1, calls)
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
	assert.Equal(t, 1, backend.refreshCalls)
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestManager_ExecutePersistentAuthFailureRetriesOnce(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	var calls int
	err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
		calls++
		return authFailure()
	})

	// Refresh succeeded but the retry failed again: surfaced after exactly
	// one retry.
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, backend.refreshCalls)
}

func TestManager_ExecuteOtherErrorsNotRetried(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	tests := []struct {
		name string
		err  error
	}{
		{"validation", portalerr.New(portalerr.KindValidation, "", "bad input")},
		{"authorization", portalerr.New(portalerr.KindAuthorization, portalerr.CodeForbidden, "forbidden")},
		{"conflict", portalerr.New(portalerr.KindConflict, portalerr.CodeAlreadyExists, "duplicate")},
		{"not found", portalerr.New(portalerr.KindNotFound, portalerr.CodeNotFound, "missing")},
		{"transient", portalerr.New(portalerr.KindTransient, "", "connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
				calls++
				return tt.err
			})
			assert.Equal(t, tt.err, err)
			assert.Equal(t, 1, calls)
			assert.Equal(t, 0, backend.refreshCalls)
		})
	}
}

func TestManager_ExecuteUnauthenticated(t *testing.T) {
	m := NewManager(&stubBackend{}, NewMemoryStore())

	err := m.Execute(context.Background(), func(ctx context.Context, accessToken string) error {
		t.Fatal("operation must not run without a session")
		return nil
	})

	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
}

func TestManager_ConcurrentRefreshDeduplicated(t *testing.T) {
	backend := &stubBackend{refreshGate: make(chan struct{})}
	m := loggedInManager(t, backend)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Refresh(context.Background())
		}(i)
	}

	// Let both goroutines pile onto the single in-flight attempt.
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.refreshCalls == 1
	}, time.Second, time.Millisecond)

	close(backend.refreshGate)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, 1, backend.refreshCalls, "exactly one refresh call, not two")
	assert.Equal(t, "access-2", m.AccessToken())
}

func TestManager_RefreshRotatesTokenPair(t *testing.T) {
	backend := &stubBackend{}
	store := NewMemoryStore()
	m := NewManager(backend, store)
	_, err := m.Login(context.Background(), "buyer@acme.example", "Str0ng!pass")
	require.NoError(t, err)

	require.NoError(t, m.Refresh(context.Background()))

	assert.Equal(t, "access-2", m.AccessToken())
	refreshToken, _ := store.Get(KeyRefreshToken)
	assert.Equal(t, "refresh-2", refreshToken, "refresh must replace both tokens")
}

func TestManager_RefreshWithoutSession(t *testing.T) {
	m := NewManager(&stubBackend{}, NewMemoryStore())

	err := m.Refresh(context.Background())

	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
}

func TestManager_TransientRefreshFailureKeepsSession(t *testing.T) {
	backend := &stubBackend{
		refreshErr: portalerr.New(portalerr.KindTransient, "", "connection refused"),
	}
	m := loggedInManager(t, backend)

	err := m.Refresh(context.Background())

	assert.Error(t, err)
	// The refresh token was not rejected; the session stays recoverable.
	assert.NotEqual(t, StateUnauthenticated, m.State())
}

func TestManager_LogoutClearsStateEvenIfServerCallFails(t *testing.T) {
	backend := &stubBackend{
		logoutErr: portalerr.New(portalerr.KindTransient, "", "connection refused"),
	}
	store := NewMemoryStore()
	m := NewManager(backend, store)
	_, err := m.Login(context.Background(), "buyer@acme.example", "Str0ng!pass")
	require.NoError(t, err)

	m.Logout(context.Background())

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, 1, backend.logoutCalls)
	_, ok := store.Get(KeyRefreshToken)
	assert.False(t, ok)
}

func TestManager_RestoreFromStore(t *testing.T) {
	backend := &stubBackend{}
	store := NewMemoryStore()
	m1 := NewManager(backend, store)
	_, err := m1.Login(context.Background(), "buyer@acme.example", "Str0ng!pass")
	require.NoError(t, err)

	// A fresh manager over the same store resumes the session.
	m2 := NewManager(backend, store)

	assert.Equal(t, StateValid, m2.State())
	assert.Equal(t, "access-1", m2.AccessToken())
	user, ok := m2.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "buyer@acme.example", user.Email)
}

func TestManager_StateExpiring(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }

	assert.Equal(t, StateExpiring, m.State())
	assert.LessOrEqual(t, m.ExpiresIn(), time.Duration(0))
	assert.False(t, m.ExpiringSoon(), "expired is not merely expiring soon")
}

func TestManager_ExpiringSoon(t *testing.T) {
	backend := &stubBackend{}
	m := loggedInManager(t, backend)

	assert.False(t, m.ExpiringSoon())

	m.now = func() time.Time { return time.Now().Add(27 * time.Minute) }
	assert.True(t, m.ExpiringSoon())

	// A refresh resets the countdown and the advisory disappears.
	m.now = time.Now
	require.NoError(t, m.Refresh(context.Background()))
	assert.False(t, m.ExpiringSoon())
}
