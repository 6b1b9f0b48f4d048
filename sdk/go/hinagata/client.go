package hinagata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Hinagata server (e.g. "http://localhost:8080").
	BaseURL string

	// Username and Password are used to obtain a JWT token on demand.
	// Leave them empty when working with SetToken or only public endpoints.
	Username string
	Password string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with a 30-second timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the Hinagata agent-template API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL  string
	client   *http.Client
	tokenMgr *tokenManager
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("hinagata: BaseURL is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:  baseURL,
		client:   httpClient,
		tokenMgr: newTokenManager(baseURL, cfg.Username, cfg.Password, httpClient),
	}, nil
}

// SetToken installs an externally obtained JWT, bypassing the
// username/password flow. The token is sent as-is until replaced.
func (c *Client) SetToken(token string) {
	c.tokenMgr.setToken(token)
}

// LoginAs exchanges the given credentials for a token and installs it on
// the client, replacing any configured credentials. Returns the token so
// callers can persist it across restarts.
func (c *Client) LoginAs(ctx context.Context, username, password string) (string, time.Time, error) {
	var resp loginResponse
	if err := c.postNoAuth(ctx, "/login", authRequest{Username: username, Password: password}, &resp); err != nil {
		return "", time.Time{}, err
	}
	c.tokenMgr.setToken(resp.Token)
	return resp.Token, resp.ExpiresAt, nil
}

// ClearToken discards any installed token. Subsequent authenticated calls
// fall back to the configured credentials, or fail if there are none.
func (c *Client) ClearToken() {
	c.tokenMgr.clearToken()
}

// Register creates a new account. Does not require authentication.
func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	body := authRequest{Username: username, Password: password}
	var resp User
	if err := c.postNoAuth(ctx, "/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges the configured credentials for a token immediately.
// Other methods fetch a token lazily; Login exists to validate
// credentials up front.
func (c *Client) Login(ctx context.Context) error {
	_, err := c.tokenMgr.getToken(ctx)
	return err
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp User
	if err := c.get(ctx, "/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAgents returns all agent definitions in creation order. The listing
// is public and requires no credentials.
func (c *Client) ListAgents(ctx context.Context) ([]AgentDefinition, error) {
	var resp []AgentDefinition
	if err := c.getNoAuth(ctx, "/agents", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateAgent stores a new agent definition owned by the caller.
func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (*AgentDefinition, error) {
	var resp AgentDefinition
	if err := c.post(ctx, "/agents", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateAgent applies a partial update to an agent the caller owns.
func (c *Client) UpdateAgent(ctx context.Context, id uuid.UUID, req UpdateAgentRequest) (*AgentDefinition, error) {
	var resp AgentDefinition
	if err := c.put(ctx, "/agents/"+id.String(), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAgent removes an agent the caller owns.
func (c *Client) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	var resp deleteResponse
	return c.doDelete(ctx, "/agents/"+id.String(), &resp)
}

// CloneAgent copies any agent into a new definition owned by the caller.
func (c *Client) CloneAgent(ctx context.Context, id uuid.UUID) (*AgentDefinition, error) {
	var resp AgentDefinition
	if err := c.post(ctx, "/agents/"+id.String()+"/clone", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the server's health status. This endpoint does not require
// authentication and will work even if the client has invalid credentials.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getNoAuth(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ---------------------------------------------------------------------------
// HTTP transport
// ---------------------------------------------------------------------------

// apiEnvelope is the server's standard response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.doRequest(ctx, req, dest)
}

func (c *Client) put(ctx context.Context, path string, body any, dest any) error {
	req, err := c.jsonRequest(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return c.doRequest(ctx, req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("hinagata: create request: %w", err)
	}
	return c.doRequest(ctx, req, dest)
}

func (c *Client) doDelete(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("hinagata: create request: %w", err)
	}
	return c.doRequest(ctx, req, dest)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("hinagata: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("hinagata: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) postNoAuth(ctx context.Context, path string, body any, dest any) error {
	req, err := c.jsonRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hinagata: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func (c *Client) getNoAuth(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("hinagata: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hinagata: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func (c *Client) doRequest(ctx context.Context, req *http.Request, dest any) error {
	token, err := c.tokenMgr.getToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hinagata: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest)
}

func handleResponse(resp *http.Response, dest any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("hinagata: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if resp.StatusCode == http.StatusNoContent || dest == nil {
		return nil
	}

	// Unwrap the server's { "data": ... } envelope.
	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("hinagata: decode response envelope: %w", err)
	}

	if envelope.Data == nil {
		// Fallback: some endpoints may not wrap in "data".
		return json.Unmarshal(bodyBytes, dest)
	}

	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}

	return apiErr
}
