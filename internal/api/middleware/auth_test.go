package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/device-portal/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	jwtService := newTestJWTService()
	middleware := AuthMiddleware(jwtService)

	token, _, err := jwtService.GenerateAccessToken("user-123", "buyer@acme.example", "Acme Trading", "buyer")
	require.NoError(t, err)

	var capturedClaims *auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(UserContextKey).(*auth.Claims)
		if ok {
			capturedClaims = claims
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, capturedClaims)
	assert.Equal(t, "user-123", capturedClaims.UserID)
	assert.Equal(t, "buyer@acme.example", capturedClaims.Email)
	assert.Equal(t, "Acme Trading", capturedClaims.Company)
	assert.Equal(t, "buyer", capturedClaims.Role)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	jwtService := newTestJWTService()
	middleware := AuthMiddleware(jwtService)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing access token")
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := newTestJWTService()
	middleware := AuthMiddleware(jwtService)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired access token")
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 1*time.Millisecond, 7*24*time.Hour)
	middleware := AuthMiddleware(jwtService)

	token, _, err := jwtService.GenerateAccessToken("user-123", "buyer@acme.example", "Acme Trading", "buyer")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongSignature(t *testing.T) {
	jwtService1 := auth.NewJWTService("secret-1", 15*time.Minute, 7*24*time.Hour)
	jwtService2 := auth.NewJWTService("secret-2", 15*time.Minute, 7*24*time.Hour)

	token, _, err := jwtService1.GenerateAccessToken("user-123", "buyer@acme.example", "Acme Trading", "buyer")
	require.NoError(t, err)

	middleware := AuthMiddleware(jwtService2)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_HasRole(t *testing.T) {
	middleware := RequireRole("admin")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	claims := &auth.Claims{
		UserID: "admin-1",
		Email:  "ops@portal.example",
		Role:   "admin",
	}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_WrongRole(t *testing.T) {
	middleware := RequireRole("admin")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	claims := &auth.Claims{
		UserID: "user-123",
		Role:   "buyer",
	}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "forbidden")
}

func TestRequireRole_NoClaims(t *testing.T) {
	middleware := RequireRole("admin")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	middleware(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserFromContext(t *testing.T) {
	claims := &auth.Claims{
		UserID: "user-123",
		Email:  "buyer@acme.example",
		Role:   "buyer",
	}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	result, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, result)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}

func TestGetUserID(t *testing.T) {
	claims := &auth.Claims{UserID: "user-123"}
	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	assert.Equal(t, "user-123", GetUserID(ctx))
	assert.Empty(t, GetUserID(context.Background()))
}
