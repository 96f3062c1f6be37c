package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"clothshop/internal/domain"
)

// Auth calls the token endpoints. It never goes through 401 recovery.
type Auth struct {
	baseURL string
	http    *http.Client
}

func NewAuth(baseURL string, hc *http.Client) *Auth {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Auth{baseURL: baseURL, http: hc}
}

func (a *Auth) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := a.post(ctx, "/auth/login", creds, "", &out)
	return out, err
}

func (a *Auth) Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := a.post(ctx, "/auth/register", reg, "", &out)
	return out, err
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (domain.RefreshResponse, error) {
	var out domain.RefreshResponse
	err := a.post(ctx, "/auth/refresh", map[string]string{"refresh_token": refreshToken}, "", &out)
	return out, err
}

// Me checks that accessToken is still accepted.
func (a *Auth) Me(ctx context.Context, accessToken string) (domain.User, error) {
	var out domain.User
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/me", nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	err = a.do(req, &out)
	return out, err
}

func (a *Auth) post(ctx context.Context, path string, in any, token string, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.do(req, out)
}

func (a *Auth) do(req *http.Request, out any) error {
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
