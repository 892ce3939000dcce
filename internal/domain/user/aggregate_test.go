package user

import (
	"context"
	"testing"

	"github.com/example/device-portal/internal/auth"
	"github.com/example/device-portal/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng!pass"

func newTestUserService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func TestIsValidEmail_ValidEmails(t *testing.T) {
	validEmails := []string{
		"test@example.com",
		"buyer.name@domain.org",
		"buyer+tag@example.com",
		"buyer123@test.co.jp",
		"a@b.cd",
		"buyer_name@domain.com",
		"BUYER@EXAMPLE.COM",
		"test@subdomain.example.com",
	}

	for _, email := range validEmails {
		t.Run(email, func(t *testing.T) {
			assert.True(t, isValidEmail(email), "Expected %s to be valid", email)
		})
	}
}

func TestIsValidEmail_InvalidEmails(t *testing.T) {
	invalidEmails := []string{
		"",
		"notanemail",
		"@example.com",
		"buyer@",
		"buyer@.com",
		"buyer@domain",
		"buyer@domain.",
		"buyer space@example.com",
		"buyer@exam ple.com",
	}

	for _, email := range invalidEmails {
		t.Run(email, func(t *testing.T) {
			assert.False(t, isValidEmail(email), "Expected %s to be invalid", email)
		})
	}
}

func TestService_Register_BuyerStartsInactive(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", strongPassword, "Acme Trading")

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "buyer@acme.example", u.Email)
	assert.Equal(t, "Acme Trading", u.Company)
	assert.Equal(t, RoleBuyer, u.Role)
	assert.False(t, u.IsActive, "buyer accounts wait for admin approval")

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserRegistered, eventStore.AppendCalls[0].EventType)
	data := eventStore.AppendCalls[0].Data.(UserRegistered)
	assert.False(t, data.IsActive)
	assert.NotEqual(t, strongPassword, data.PasswordHash)
}

func TestService_RegisterAdmin_ActiveImmediately(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.RegisterAdmin(ctx, "admin@portal.example", strongPassword, "Portal")

	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.True(t, u.IsActive)
	assert.Len(t, eventStore.AppendCalls, 1)
}

func TestService_Register_InvalidEmail(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "invalid-email", strongPassword, "Acme Trading")

	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Nil(t, u)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Register_EmptyCompany(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", strongPassword, "")

	assert.ErrorIs(t, err, ErrInvalidCompany)
	assert.Nil(t, u)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Register_WeakPassword(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", "short", "Acme Trading")

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
	assert.Nil(t, u)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_ActivateDeactivate(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", strongPassword, "Acme Trading")
	require.NoError(t, err)

	err = service.Activate(ctx, u.ID, "admin-1")
	require.NoError(t, err)

	loaded, err := service.Load(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsActive)
	assert.Equal(t, 2, loaded.Version)

	err = service.Deactivate(ctx, u.ID, "admin-1")
	require.NoError(t, err)

	loaded, err = service.Load(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsActive)

	// activation events carry the acting admin
	data := eventStore.AppendCalls[1].Data.(UserActivated)
	assert.Equal(t, "admin-1", data.ActivatedBy)
}

func TestService_Activate_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.Activate(ctx, "non-existent", "admin-1")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", strongPassword, "Acme Trading")
	require.NoError(t, err)

	err = service.ChangePassword(ctx, u.ID, "N3w!passw0rd")
	require.NoError(t, err)

	loaded, err := service.Load(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("N3w!passw0rd", loaded.PasswordHash))

	assert.Equal(t, EventUserPasswordChanged, eventStore.AppendCalls[1].EventType)
}

func TestService_ChangePassword_WeakPassword(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	u, err := service.Register(ctx, "buyer@acme.example", strongPassword, "Acme Trading")
	require.NoError(t, err)

	err = service.ChangePassword(ctx, u.ID, "weakpass")
	assert.True(t, auth.IsPolicyViolation(err))
}

func TestService_ChangePassword_UserNotFound(t *testing.T) {
	service, _ := newTestUserService()
	ctx := context.Background()

	err := service.ChangePassword(ctx, "non-existent", "N3w!passw0rd")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_RecordLogin(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	err := service.RecordLogin(ctx, "user-123", "session-456", "192.168.1.1", "Mozilla/5.0")

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserLoggedIn, eventStore.AppendCalls[0].EventType)

	data := eventStore.AppendCalls[0].Data.(UserLoggedIn)
	assert.Equal(t, "user-123", data.UserID)
	assert.Equal(t, "session-456", data.SessionID)
	assert.Equal(t, "192.168.1.1", data.IPAddress)
}

func TestService_RecordLogout(t *testing.T) {
	service, eventStore := newTestUserService()
	ctx := context.Background()

	err := service.RecordLogout(ctx, "user-123", "session-456")

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventUserLoggedOut, eventStore.AppendCalls[0].EventType)
}
