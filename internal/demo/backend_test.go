package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/session"
)

func seededBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend(30 * time.Minute)
	require.NoError(t, Seed(b))
	return b
}

func TestBackend_LoginAndMe(t *testing.T) {
	b := seededBackend(t)

	creds, err := b.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.AccessToken)
	assert.NotEmpty(t, creds.RefreshToken)
	assert.True(t, creds.ExpiresAt.After(time.Now()))

	user, err := b.Me(context.Background(), creds.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "buyer@acme.example", user.Email)
	assert.Equal(t, "buyer", user.Role)
}

func TestBackend_LoginInvalidCredentials(t *testing.T) {
	b := seededBackend(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "buyer@acme.example", "wrong"},
		{"unknown account", "ghost@acme.example", "Buy3r!pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Login(context.Background(), tt.email, tt.password)
			assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
			assert.Equal(t, portalerr.CodeInvalidCredentials, portalerr.CodeOf(err))
		})
	}
}

func TestBackend_LoginPendingApproval(t *testing.T) {
	b := seededBackend(t)

	_, err := b.Login(context.Background(), "pending@acme.example", "P3nding!pass")

	assert.Equal(t, portalerr.CodePendingApproval, portalerr.CodeOf(err))
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthorization))
}

func TestBackend_RegisterAwaitsApproval(t *testing.T) {
	b := seededBackend(t)

	_, err := b.Register(context.Background(), "new@acme.example", "N3wUser!pass", "Acme Trading")
	assert.Equal(t, portalerr.CodePendingApproval, portalerr.CodeOf(err))

	// The account exists now: re-registering conflicts, logging in is
	// still pending.
	_, err = b.Register(context.Background(), "new@acme.example", "N3wUser!pass", "Acme Trading")
	assert.True(t, portalerr.IsKind(err, portalerr.KindConflict))

	_, err = b.Login(context.Background(), "new@acme.example", "N3wUser!pass")
	assert.Equal(t, portalerr.CodePendingApproval, portalerr.CodeOf(err))
}

func TestBackend_RegisterWeakPassword(t *testing.T) {
	b := seededBackend(t)

	_, err := b.Register(context.Background(), "weak@acme.example", "weakpass", "Acme Trading")

	assert.True(t, portalerr.IsKind(err, portalerr.KindValidation))
	assert.Equal(t, portalerr.CodeWeakPassword, portalerr.CodeOf(err))
}

func TestBackend_RefreshIsSingleUse(t *testing.T) {
	b := seededBackend(t)
	creds, err := b.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)

	next, err := b.Refresh(context.Background(), creds.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, creds.RefreshToken, next.RefreshToken)

	// The old refresh token died the moment the new pair was issued.
	_, err = b.Refresh(context.Background(), creds.RefreshToken)
	assert.Equal(t, portalerr.CodeInvalidRefreshToken, portalerr.CodeOf(err))
}

func TestBackend_LogoutInvalidatesRefreshToken(t *testing.T) {
	b := seededBackend(t)
	creds, err := b.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)

	require.NoError(t, b.Logout(context.Background(), creds.RefreshToken))

	_, err = b.Refresh(context.Background(), creds.RefreshToken)
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
}

func TestBackend_FetchCategoryRequiresValidToken(t *testing.T) {
	b := seededBackend(t)

	_, err := b.FetchCategory(context.Background(), "bogus-token", "smartphones")
	assert.True(t, portalerr.IsKind(err, portalerr.KindAuthentication))
}

func TestBackend_FetchCategoryScopes(t *testing.T) {
	b := seededBackend(t)
	creds, err := b.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)

	tablets, err := b.FetchCategory(context.Background(), creds.AccessToken, "tablets")
	require.NoError(t, err)
	for _, d := range tablets {
		assert.Equal(t, "tablets", d.Category)
	}

	all, err := b.FetchCategory(context.Background(), creds.AccessToken, "")
	require.NoError(t, err)
	assert.Greater(t, len(all), len(tablets))
}

func TestBackend_EndToEndWithManagerAndLoader(t *testing.T) {
	// Access tokens that expire instantly force the manager's one-shot
	// refresh path on every catalog load.
	b := seededBackend(t)
	bShort := NewBackend(-time.Second)
	bShort.accounts = b.accounts
	bShort.devices = b.devices

	mgr := session.NewManager(bShort, session.NewMemoryStore())
	outcome, err := mgr.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)
	require.False(t, outcome.PendingApproval)

	loader := catalog.NewLoader(mgr, bShort)
	result, err := loader.Load(context.Background(), catalog.NewQuery("smartphones"))

	// The refresh succeeded but the new access token is just as expired,
	// so the original failure surfaces after exactly one retry.
	assert.Error(t, err)
	assert.Nil(t, result)

	// With sane expiries the same flow succeeds.
	mgr2 := session.NewManager(b, session.NewMemoryStore())
	_, err = mgr2.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")
	require.NoError(t, err)

	loader2 := catalog.NewLoader(mgr2, b)
	result2, err := loader2.Load(context.Background(), catalog.NewQuery("smartphones"))
	require.NoError(t, err)
	assert.Equal(t, 5, result2.Total)
}
