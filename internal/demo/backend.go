// Package demo provides in-memory implementations of the session and
// catalog backend contracts, selected by configuration when no portal API
// is available. Behavior mirrors the real backend, including single-use
// refresh tokens and the pending-approval outcome.
package demo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/device-portal/internal/auth"
	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/session"
)

type account struct {
	user         session.User
	passwordHash string
}

type tokenInfo struct {
	userID    string
	expiresAt time.Time
}

// Backend is an in-memory stand-in for the portal API.
type Backend struct {
	accessTTL time.Duration

	mu            sync.Mutex
	accounts      map[string]*account // email -> account
	accessTokens  map[string]tokenInfo
	refreshTokens map[string]string // refresh token -> user ID (single use)
	devices       []catalog.Device
}

// NewBackend returns a demo backend with the given access-token lifetime.
func NewBackend(accessTTL time.Duration) *Backend {
	return &Backend{
		accessTTL:     accessTTL,
		accounts:      make(map[string]*account),
		accessTokens:  make(map[string]tokenInfo),
		refreshTokens: make(map[string]string),
	}
}

// AddAccount seeds an account. The password must satisfy the portal policy.
func (b *Backend) AddAccount(email, password, company, role string, active bool) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[strings.ToLower(email)] = &account{
		user: session.User{
			ID:       uuid.New().String(),
			Email:    strings.ToLower(email),
			Company:  company,
			Role:     role,
			IsActive: active,
		},
		passwordHash: hash,
	}
	return nil
}

// SetDevices replaces the demo inventory snapshot.
func (b *Backend) SetDevices(devices []catalog.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = devices
}

func (b *Backend) Login(ctx context.Context, email, password string) (*session.Credentials, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[strings.ToLower(email)]
	if !ok || !auth.CheckPassword(password, acct.passwordHash) {
		return nil, portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidCredentials, "invalid email or password")
	}
	if !acct.user.IsActive {
		return nil, portalerr.New(portalerr.KindAuthorization, portalerr.CodePendingApproval, "account pending approval")
	}
	return b.issueLocked(acct.user), nil
}

func (b *Backend) Register(ctx context.Context, email, password, company string) (*session.Credentials, error) {
	email = strings.ToLower(email)

	b.mu.Lock()
	if _, exists := b.accounts[email]; exists {
		b.mu.Unlock()
		return nil, portalerr.New(portalerr.KindConflict, portalerr.CodeAlreadyExists, "email already registered")
	}
	b.mu.Unlock()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, portalerr.Wrap(portalerr.KindValidation, portalerr.CodeWeakPassword, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[email] = &account{
		user: session.User{
			ID:      uuid.New().String(),
			Email:   email,
			Company: company,
			Role:    "buyer",
		},
		passwordHash: hash,
	}
	// New buyer accounts await admin approval; no tokens are issued.
	return nil, portalerr.New(portalerr.KindAuthorization, portalerr.CodePendingApproval, "account pending approval")
}

func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*session.Credentials, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, ok := b.refreshTokens[refreshToken]
	if !ok {
		return nil, portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
	}
	// Single use: the old token dies the instant a new pair is issued.
	delete(b.refreshTokens, refreshToken)

	for _, acct := range b.accounts {
		if acct.user.ID == userID {
			return b.issueLocked(acct.user), nil
		}
	}
	return nil, portalerr.New(portalerr.KindAuthentication, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
}

func (b *Backend) Logout(ctx context.Context, refreshToken string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.refreshTokens, refreshToken)
	return nil
}

func (b *Backend) Me(ctx context.Context, accessToken string) (*session.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	info, err := b.checkAccessLocked(accessToken)
	if err != nil {
		return nil, err
	}
	for _, acct := range b.accounts {
		if acct.user.ID == info.userID {
			u := acct.user
			return &u, nil
		}
	}
	return nil, portalerr.New(portalerr.KindNotFound, portalerr.CodeNotFound, "user not found")
}

// FetchCategory implements catalog.Backend.
func (b *Backend) FetchCategory(ctx context.Context, accessToken, category string) ([]catalog.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.checkAccessLocked(accessToken); err != nil {
		return nil, err
	}

	var out []catalog.Device
	for _, d := range b.devices {
		if category == "" || d.Category == category {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *Backend) issueLocked(user session.User) *session.Credentials {
	accessToken := uuid.New().String()
	refreshToken := uuid.New().String()
	expiresAt := time.Now().Add(b.accessTTL)

	b.accessTokens[accessToken] = tokenInfo{userID: user.ID, expiresAt: expiresAt}
	b.refreshTokens[refreshToken] = user.ID

	return &session.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}
}

func (b *Backend) checkAccessLocked(accessToken string) (tokenInfo, error) {
	info, ok := b.accessTokens[accessToken]
	if !ok || time.Now().After(info.expiresAt) {
		return tokenInfo{}, portalerr.New(portalerr.KindAuthentication, portalerr.CodeUnauthorized, "invalid or expired access token")
	}
	return info, nil
}
