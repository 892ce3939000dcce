package user

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/example/device-portal/internal/auth"
	"github.com/example/device-portal/internal/domain/aggregate"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

// Account roles
const (
	RoleBuyer = "buyer"
	RoleAdmin = "admin"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidEmail    = errors.New("a valid email is required")
	ErrInvalidCompany  = errors.New("company name is required")
	ErrUserDeactivated = errors.New("user account is deactivated")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

func isValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	return emailPattern.MatchString(email)
}

// User represents a portal account aggregate
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Company      string    `json:"company"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Aggregate interface implementation
func (u *User) GetID() string    { return u.ID }
func (u *User) GetVersion() int  { return u.Version }
func (u *User) SetVersion(v int) { u.Version = v }

// ApplyEvent applies a single event to the user state (implements aggregate.Aggregate)
func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserRegistered:
		var data UserRegistered
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Company = data.Company
		u.Role = data.Role
		u.IsActive = data.IsActive
		u.CreatedAt = data.RegisteredAt
		u.UpdatedAt = data.RegisteredAt
	case EventUserActivated:
		var data UserActivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.IsActive = true
		u.UpdatedAt = data.ActivatedAt
	case EventUserDeactivated:
		var data UserDeactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.IsActive = false
		u.UpdatedAt = data.DeactivatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	}
	u.Version = event.Version
	return nil
}

// Service handles account domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Register creates a buyer account. The account starts inactive and must be
// approved by an admin before it can log in.
func (s *Service) Register(ctx context.Context, email, password, company string) (*User, error) {
	return s.register(ctx, email, password, company, RoleBuyer, false)
}

// RegisterAdmin creates an admin account, active immediately
func (s *Service) RegisterAdmin(ctx context.Context, email, password, company string) (*User, error) {
	return s.register(ctx, email, password, company, RoleAdmin, true)
}

func (s *Service) register(ctx context.Context, email, password, company, role string, active bool) (*User, error) {
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if company == "" {
		return nil, ErrInvalidCompany
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	now := time.Now()

	event := UserRegistered{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Company:      company,
		Role:         role,
		IsActive:     active,
		RegisteredAt: now,
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserRegistered, event)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:        userID,
		Email:     email,
		Company:   company,
		Role:      role,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}, nil
}

// Load rebuilds an account from its event history
func (s *Service) Load(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.LoadAggregate(ctx, s.eventStore, userID, func() *User {
		return &User{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Activate approves an account. activatedBy identifies the admin.
func (s *Service) Activate(ctx context.Context, userID, activatedBy string) error {
	if _, err := s.Load(ctx, userID); err != nil {
		return err
	}

	event := UserActivated{
		UserID:      userID,
		ActivatedBy: activatedBy,
		ActivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserActivated, event)
	return err
}

// Deactivate suspends an account
func (s *Service) Deactivate(ctx context.Context, userID, deactivatedBy string) error {
	if _, err := s.Load(ctx, userID); err != nil {
		return err
	}

	event := UserDeactivated{
		UserID:        userID,
		DeactivatedBy: deactivatedBy,
		DeactivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserDeactivated, event)
	return err
}

// ChangePassword replaces the password hash
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if _, err := s.Load(ctx, userID); err != nil {
		return err
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, event)
	return err
}

// RecordLogin records a successful login
func (s *Service) RecordLogin(ctx context.Context, userID, sessionID, ipAddress, userAgent string) error {
	event := UserLoggedIn{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, event)
	return err
}

// RecordLogout records a session termination
func (s *Service) RecordLogout(ctx context.Context, userID, sessionID string) error {
	event := UserLoggedOut{
		UserID:    userID,
		SessionID: sessionID,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedOut, event)
	return err
}

// RecordResetRequested records that a password reset code was issued
func (s *Service) RecordResetRequested(ctx context.Context, userID, email string) error {
	event := PasswordResetRequested{
		UserID:      userID,
		Email:       email,
		RequestedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventPasswordResetRequested, event)
	return err
}

// RecordResetCompleted records that a reset code was redeemed
func (s *Service) RecordResetCompleted(ctx context.Context, userID string) error {
	event := PasswordResetCompleted{
		UserID:      userID,
		CompletedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventPasswordResetCompleted, event)
	return err
}
