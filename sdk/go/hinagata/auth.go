package hinagata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenManager handles JWT token acquisition and refresh.
// It is safe for concurrent use; concurrent refreshes collapse into a
// single /login request.
type tokenManager struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	margin   time.Duration

	sf singleflight.Group

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	static    bool
}

func newTokenManager(baseURL, username, password string, client *http.Client) *tokenManager {
	return &tokenManager{
		baseURL:  baseURL,
		username: username,
		password: password,
		client:   client,
		margin:   30 * time.Second,
	}
}

// setToken installs an externally obtained token. A static token is never
// refreshed.
func (tm *tokenManager) setToken(token string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = token
	tm.static = true
}

// clearToken discards an installed token.
func (tm *tokenManager) clearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.token = ""
	tm.expiresAt = time.Time{}
	tm.static = false
}

// cached returns the current token if it is static or not yet near expiry.
func (tm *tokenManager) cached() (string, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.static {
		return tm.token, true
	}
	if tm.token != "" && time.Now().Before(tm.expiresAt.Add(-tm.margin)) {
		return tm.token, true
	}
	return "", false
}

func (tm *tokenManager) getToken(ctx context.Context) (string, error) {
	if token, ok := tm.cached(); ok {
		return token, nil
	}
	if tm.username == "" {
		return "", fmt.Errorf("hinagata: no credentials: set Username/Password or call SetToken")
	}

	token, err, _ := tm.sf.Do("login", func() (any, error) {
		// A concurrent caller may have refreshed while we waited.
		if token, ok := tm.cached(); ok {
			return token, nil
		}
		lr, err := tm.login(ctx)
		if err != nil {
			return nil, err
		}
		tm.mu.Lock()
		tm.token = lr.Token
		tm.expiresAt = lr.ExpiresAt
		tm.mu.Unlock()
		return lr.Token, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponseEnvelope struct {
	Data loginResponse `json:"data"`
}

func (tm *tokenManager) login(ctx context.Context) (loginResponse, error) {
	body, err := json.Marshal(authRequest{Username: tm.username, Password: tm.password})
	if err != nil {
		return loginResponse{}, fmt.Errorf("hinagata: marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tm.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return loginResponse{}, fmt.Errorf("hinagata: create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tm.client.Do(req)
	if err != nil {
		return loginResponse{}, fmt.Errorf("hinagata: auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return loginResponse{}, fmt.Errorf("hinagata: auth failed with status %d", resp.StatusCode)
	}

	var envelope authResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return loginResponse{}, fmt.Errorf("hinagata: decode auth response: %w", err)
	}
	return envelope.Data, nil
}
