package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/device-portal/internal/api/middleware"
	"github.com/example/device-portal/internal/auth"
	"github.com/example/device-portal/internal/domain/user"
	"github.com/example/device-portal/internal/infrastructure/store"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/query"
	"github.com/example/device-portal/internal/readmodel"
	"github.com/example/device-portal/internal/session"
)

// hashToken creates a SHA-256 hash of a token for storage. Raw refresh
// tokens and reset codes never touch the read store.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ResetMailer delivers password reset codes. Nil disables delivery, which
// is fine for local development where the code shows up in the log.
type ResetMailer interface {
	SendPasswordResetCode(to, code string) error
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService  *user.Service
	jwtService   *auth.JWTService
	queryHandler *query.Handler
	readStore    store.ReadStoreInterface
	mailer       ResetMailer
}

func NewAuthHandlers(userService *user.Service, jwtService *auth.JWTService, queryHandler *query.Handler, readStore store.ReadStoreInterface, mailer ResetMailer) *AuthHandlers {
	return &AuthHandlers{
		userService:  userService,
		jwtService:   jwtService,
		queryHandler: queryHandler,
		readStore:    readStore,
		mailer:       mailer,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles buyer self-registration. New accounts start inactive
// and wait for admin approval, so no tokens are issued here: the response
// is the pending-approval envelope clients already know how to handle.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	if _, exists := h.queryHandler.GetUserByEmail(req.Email); exists {
		respondError(w, http.StatusConflict, portalerr.CodeAlreadyExists, "Email already registered")
		return
	}

	_, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Company)
	if err != nil {
		switch {
		case auth.IsPolicyViolation(err):
			respondError(w, http.StatusBadRequest, portalerr.CodeWeakPassword, err.Error())
		case errors.Is(err, user.ErrInvalidEmail), errors.Is(err, user.ErrInvalidCompany):
			respondError(w, http.StatusBadRequest, "", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "", err.Error())
		}
		return
	}

	respondError(w, http.StatusForbidden, portalerr.CodePendingApproval, "account pending approval")
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	userModel, exists := h.queryHandler.GetUserByEmail(req.Email)
	if !exists || !auth.CheckPassword(req.Password, userModel.PasswordHash) {
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidCredentials, "invalid email or password")
		return
	}

	if !userModel.IsActive {
		respondError(w, http.StatusForbidden, portalerr.CodePendingApproval, "account pending approval")
		return
	}

	creds, sessionID, err := h.issueSession(userModel, r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "", "Failed to issue tokens")
		return
	}

	// Record login event (best-effort, don't fail login on error)
	_ = h.userService.RecordLogin(r.Context(), userModel.ID, sessionID, r.RemoteAddr, r.UserAgent())

	respondJSON(w, http.StatusOK, creds)
}

// Refresh rotates the token pair. The presented refresh token is single
// use: its session row is deleted before the replacement is stored, so a
// replayed token fails the hash lookup.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidRefreshToken, "no refresh token")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
		return
	}

	sess, exists := h.queryHandler.GetSessionByTokenHash(hashToken(req.RefreshToken))
	if !exists || sess.UserID != userID {
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
		return
	}
	if time.Now().After(sess.ExpiresAt) {
		h.readStore.Delete(store.CollectionSessions, sess.ID)
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
		return
	}

	userModel, exists := h.queryHandler.GetUser(userID)
	if !exists {
		respondError(w, http.StatusUnauthorized, portalerr.CodeInvalidRefreshToken, "invalid or expired refresh token")
		return
	}
	if !userModel.IsActive {
		respondError(w, http.StatusForbidden, portalerr.CodeForbidden, "account is deactivated")
		return
	}

	h.readStore.Delete(store.CollectionSessions, sess.ID)

	creds, _, err := h.issueSession(userModel, r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "", "Failed to issue tokens")
		return
	}

	respondJSON(w, http.StatusOK, creds)
}

// Logout invalidates the presented refresh token
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if req.RefreshToken != "" {
		if sess, exists := h.queryHandler.GetSessionByTokenHash(hashToken(req.RefreshToken)); exists {
			h.readStore.Delete(store.CollectionSessions, sess.ID)
			// Record logout event (best-effort)
			_ = h.userService.RecordLogout(r.Context(), sess.UserID, sess.ID)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, portalerr.CodeUnauthorized, "Unauthorized")
		return
	}

	userModel, exists := h.queryHandler.GetUser(claims.UserID)
	if !exists {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, toSessionUser(userModel))
}

// ChangePassword handles password change for authenticated users
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, portalerr.CodeUnauthorized, "Unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	userModel, exists := h.queryHandler.GetUser(claims.UserID)
	if !exists {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "User not found")
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, userModel.PasswordHash) {
		respondError(w, http.StatusBadRequest, portalerr.CodeInvalidCredentials, "Current password is incorrect")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), claims.UserID, req.NewPassword); err != nil {
		if auth.IsPolicyViolation(err) {
			respondError(w, http.StatusBadRequest, portalerr.CodeWeakPassword, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

// RequestPasswordReset handles POST /auth/reset/request. The response is
// the same whether or not the email exists, so the endpoint cannot be
// used to probe registered addresses.
func (h *AuthHandlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	userModel, exists := h.queryHandler.GetUserByEmail(req.Email)
	if exists && userModel.IsActive {
		code, err := auth.GenerateResetCode()
		if err == nil {
			h.readStore.Set(store.CollectionResets, userModel.ID, &readmodel.ResetCodeReadModel{
				UserID:    userModel.ID,
				Email:     userModel.Email,
				CodeHash:  hashToken(code),
				ExpiresAt: time.Now().Add(auth.ResetCodeTTL),
				CreatedAt: time.Now(),
			})
			_ = h.userService.RecordResetRequested(r.Context(), userModel.ID, userModel.Email)
			if h.mailer != nil {
				if err := h.mailer.SendPasswordResetCode(userModel.Email, code); err != nil {
					log.Printf("[API] Failed to send reset code to %s: %v", userModel.Email, err)
				}
			} else {
				log.Printf("[API] Reset code for %s: %s", userModel.Email, code)
			}
		}
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"message": "If the account exists, a reset code has been sent"})
}

// ConfirmPasswordReset handles POST /auth/reset/confirm. Codes are single
// use and expire after auth.ResetCodeTTL.
func (h *AuthHandlers) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}

	if err := auth.ValidateResetCodeFormat(req.Code); err != nil {
		respondError(w, http.StatusBadRequest, portalerr.CodeInvalidResetCode, err.Error())
		return
	}

	userModel, exists := h.queryHandler.GetUserByEmail(req.Email)
	if !exists {
		respondError(w, http.StatusBadRequest, portalerr.CodeInvalidResetCode, "invalid or expired reset code")
		return
	}

	data, ok := h.readStore.Get(store.CollectionResets, userModel.ID)
	if !ok {
		respondError(w, http.StatusBadRequest, portalerr.CodeInvalidResetCode, "invalid or expired reset code")
		return
	}
	reset := data.(*readmodel.ResetCodeReadModel)
	if time.Now().After(reset.ExpiresAt) || hashToken(req.Code) != reset.CodeHash {
		respondError(w, http.StatusBadRequest, portalerr.CodeInvalidResetCode, "invalid or expired reset code")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userModel.ID, req.NewPassword); err != nil {
		if auth.IsPolicyViolation(err) {
			respondError(w, http.StatusBadRequest, portalerr.CodeWeakPassword, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "", err.Error())
		return
	}

	h.readStore.Delete(store.CollectionResets, userModel.ID)
	h.revokeSessions(userModel.ID)
	_ = h.userService.RecordResetCompleted(r.Context(), userModel.ID)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password reset"})
}

// Helper methods

// issueSession generates a token pair and stores the session with the
// hashed refresh token.
func (h *AuthHandlers) issueSession(userModel *readmodel.UserReadModel, r *http.Request) (*session.Credentials, string, error) {
	accessToken, accessExpiry, err := h.jwtService.GenerateAccessToken(userModel.ID, userModel.Email, userModel.Company, userModel.Role)
	if err != nil {
		return nil, "", err
	}
	refreshToken, refreshExpiry, err := h.jwtService.GenerateRefreshToken(userModel.ID)
	if err != nil {
		return nil, "", err
	}

	sessionID := uuid.New().String()
	h.readStore.Set(store.CollectionSessions, sessionID, &readmodel.SessionReadModel{
		ID:               sessionID,
		UserID:           userModel.ID,
		RefreshTokenHash: hashToken(refreshToken),
		ExpiresAt:        refreshExpiry,
		CreatedAt:        time.Now(),
		IPAddress:        r.RemoteAddr,
		UserAgent:        r.UserAgent(),
	})

	return &session.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExpiry,
		User:         toSessionUser(userModel),
	}, sessionID, nil
}

// revokeSessions drops every session for a user. The in-memory fallback
// scans; PostgreSQL has a direct delete.
func (h *AuthHandlers) revokeSessions(userID string) {
	if pgStore, ok := h.readStore.(*store.PostgresReadStore); ok {
		pgStore.DeleteSessionsByUserID(userID)
		return
	}
	for _, item := range h.readStore.GetAll(store.CollectionSessions) {
		s := item.(*readmodel.SessionReadModel)
		if s.UserID == userID {
			h.readStore.Delete(store.CollectionSessions, s.ID)
		}
	}
}

func toSessionUser(u *readmodel.UserReadModel) session.User {
	return session.User{
		ID:       u.ID,
		Email:    u.Email,
		Company:  u.Company,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
