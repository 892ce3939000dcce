package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/device-portal/internal/portalerr"
)

func TestHTTPBackend_LoginDecodesCredentials(t *testing.T) {
	expiresAt := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buyer@acme.example", body["email"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Credentials{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    expiresAt,
			User:         User{ID: "u-1", Email: "buyer@acme.example", Company: "ACME", Role: "buyer", IsActive: true},
		})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL, nil)
	creds, err := backend.Login(context.Background(), "buyer@acme.example", "Buy3r!pass")

	require.NoError(t, err)
	assert.Equal(t, "access-1", creds.AccessToken)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
	assert.True(t, creds.ExpiresAt.Equal(expiresAt))
	assert.Equal(t, "ACME", creds.User.Company)
}

func TestHTTPBackend_ErrorEnvelopeKeepsClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		wantKind portalerr.Kind
	}{
		{"invalid credentials", http.StatusUnauthorized, portalerr.CodeInvalidCredentials, portalerr.KindAuthentication},
		{"pending approval", http.StatusForbidden, portalerr.CodePendingApproval, portalerr.KindAuthorization},
		{"server failure", http.StatusServiceUnavailable, "", portalerr.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "nope", "code": tt.code})
			}))
			defer srv.Close()

			backend := NewHTTPBackend(srv.URL, nil)
			_, err := backend.Login(context.Background(), "buyer@acme.example", "wrong")

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, portalerr.KindOf(err))
			assert.Equal(t, tt.code, portalerr.CodeOf(err))
		})
	}
}

func TestHTTPBackend_RefreshSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refresh_token"])

		json.NewEncoder(w).Encode(Credentials{AccessToken: "access-2", RefreshToken: "refresh-2"})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL, nil)
	creds, err := backend.Refresh(context.Background(), "refresh-1")

	require.NoError(t, err)
	assert.Equal(t, "refresh-2", creds.RefreshToken)
}

func TestHTTPBackend_MeSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{ID: "u-1", Email: "buyer@acme.example"})
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL, nil)
	user, err := backend.Me(context.Background(), "access-1")

	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
}
