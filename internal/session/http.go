package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/device-portal/internal/portalerr"
)

// HTTPBackend talks to the portal API over JSON/HTTP. Error responses are
// decoded back into their portalerr classification so the manager's retry
// decision works the same as against the demo backend.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (b *HTTPBackend) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := b.post(ctx, "/auth/login", "", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (b *HTTPBackend) Register(ctx context.Context, email, password, company string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password, "company": company}
	var creds Credentials
	if err := b.post(ctx, "/auth/register", "", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (b *HTTPBackend) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var creds Credentials
	if err := b.post(ctx, "/auth/refresh", "", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (b *HTTPBackend) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return b.post(ctx, "/auth/logout", "", body, nil)
}

func (b *HTTPBackend) Me(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := b.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (b *HTTPBackend) post(ctx context.Context, path, accessToken string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return b.do(req, out)
}

func (b *HTTPBackend) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return portalerr.Wrap(portalerr.KindTransient, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return portalerr.New(portalerr.KindFromStatus(resp.StatusCode), e.Code, e.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return portalerr.Wrap(portalerr.KindTransient, "", err)
	}
	return nil
}
