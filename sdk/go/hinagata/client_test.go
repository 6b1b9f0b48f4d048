package hinagata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/hinagata/fieldspec"
)

// mockServer creates an httptest server that mimics the Hinagata API.
func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	// Always register the login endpoint.
	if _, ok := handlers["POST /login"]; !ok {
		mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		})
	}

	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}

	return httptest.NewServer(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:  serverURL,
		Username: "alice",
		Password: "correct horse",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	if err == nil {
		t.Fatal("expected error for empty BaseURL")
	}
}

func TestRegister(t *testing.T) {
	userID := uuid.New()

	var sawAuth bool
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /register": func(w http.ResponseWriter, r *http.Request) {
			sawAuth = r.Header.Get("Authorization") != ""
			var body authRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("decode register body: %v", err)
			}
			if body.Username != "bob" || body.Password != "hunter22" {
				t.Errorf("unexpected body: %+v", body)
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"data": User{ID: userID, Username: "bob"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	user, err := client.Register(context.Background(), "bob", "hunter22")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID != userID {
		t.Errorf("expected user ID %s, got %s", userID, user.ID)
	}
	if sawAuth {
		t.Error("Register should not send an Authorization header")
	}
}

func TestTokenIsCachedAcrossRequests(t *testing.T) {
	var loginCalls atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			loginCalls.Add(1)
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"token":      "test-token-xyz",
					"expires_at": time.Now().Add(1 * time.Hour).Format(time.RFC3339),
				},
			})
		},
		"GET /me": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-token-xyz" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "UNAUTHORIZED", "message": "bad token"},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": User{ID: uuid.New(), Username: "alice"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	for range 3 {
		if _, err := client.Me(context.Background()); err != nil {
			t.Fatalf("Me failed: %v", err)
		}
	}
	if got := loginCalls.Load(); got != 1 {
		t.Errorf("expected 1 login call, got %d", got)
	}
}

func TestSetTokenBypassesLogin(t *testing.T) {
	var loginCalls atomic.Int32
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			loginCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		},
		"GET /me": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer external-token" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "UNAUTHORIZED", "message": "bad token"},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": User{ID: uuid.New(), Username: "alice"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	client.SetToken("external-token")
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if loginCalls.Load() != 0 {
		t.Error("SetToken should prevent the login round-trip")
	}
}

func TestLoginAsInstallsToken(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-token-xyz" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{
					"error": map[string]any{"code": "UNAUTHORIZED", "message": "bad token"},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": User{ID: uuid.New(), Username: "alice"},
			})
		},
	})
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	token, _, err := client.LoginAs(context.Background(), "alice", "correct horse")
	if err != nil {
		t.Fatalf("LoginAs failed: %v", err)
	}
	if token != "test-token-xyz" {
		t.Errorf("expected token from server, got %q", token)
	}
	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me failed after LoginAs: %v", err)
	}

	client.ClearToken()
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("expected error after ClearToken with no credentials")
	}
}

func TestNoCredentialsError(t *testing.T) {
	srv := mockServer(t, nil)
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestListAgentsIsPublic(t *testing.T) {
	defID := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /agents": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("ListAgents should not send an Authorization header")
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": []AgentDefinition{
					{ID: defID, Name: "Article writer", OwnerName: "alice"},
				},
			})
		},
	})
	defer srv.Close()

	// No credentials configured at all.
	client, err := NewClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	agents, err := client.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(agents))
	}
	if agents[0].ID != defID {
		t.Errorf("expected agent ID %s, got %s", defID, agents[0].ID)
	}
}

func TestCreateAgent(t *testing.T) {
	var received CreateAgentRequest
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /agents": func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Fatalf("decode create body: %v", err)
			}
			writeJSON(w, http.StatusCreated, map[string]any{
				"data": AgentDefinition{
					ID:         uuid.New(),
					Name:       received.Name,
					Prompt:     received.Prompt,
					FormFields: received.FormFields,
				},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	created, err := client.CreateAgent(context.Background(), CreateAgentRequest{
		Name:   "Article writer",
		Prompt: "Write an article.",
		FormFields: []fieldspec.FieldSpec{
			{Label: "Topic", Type: fieldspec.TypeText, Placeholder: "topic"},
		},
	})
	if err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}
	if created.Name != "Article writer" {
		t.Errorf("expected name to round-trip, got %q", created.Name)
	}
	if len(received.FormFields) != 1 || received.FormFields[0].Placeholder != "topic" {
		t.Errorf("form fields did not reach the server: %+v", received.FormFields)
	}
}

func TestUpdateAgentSendsOnlySetFields(t *testing.T) {
	id := uuid.New()
	var raw map[string]json.RawMessage
	srv := mockServer(t, map[string]http.HandlerFunc{
		"PUT /agents/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
				t.Fatalf("decode update body: %v", err)
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"data": AgentDefinition{ID: id, Name: "Renamed"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	name := "Renamed"
	if _, err := client.UpdateAgent(context.Background(), id, UpdateAgentRequest{Name: &name}); err != nil {
		t.Fatalf("UpdateAgent failed: %v", err)
	}
	if _, ok := raw["name"]; !ok {
		t.Error("expected name in the request body")
	}
	if _, ok := raw["prompt"]; ok {
		t.Error("unset prompt should be omitted from the request body")
	}
	if string(raw["form_fields"]) != "null" {
		t.Errorf("nil form fields should reach the wire as null, got %s", raw["form_fields"])
	}

	// An empty non-nil slice must reach the wire as [] so the server
	// clears the stored fields instead of keeping them.
	if _, err := client.UpdateAgent(context.Background(), id, UpdateAgentRequest{
		FormFields: []fieldspec.FieldSpec{},
	}); err != nil {
		t.Fatalf("UpdateAgent with empty form fields failed: %v", err)
	}
	if string(raw["form_fields"]) != "[]" {
		t.Errorf("empty form fields should reach the wire as [], got %s", raw["form_fields"])
	}
}

func TestDeleteAgent(t *testing.T) {
	id := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"DELETE /agents/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]string{"deleted": id.String()},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.DeleteAgent(context.Background(), id); err != nil {
		t.Fatalf("DeleteAgent failed: %v", err)
	}
}

func TestCloneAgent(t *testing.T) {
	srcID := uuid.New()
	cloneID := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /agents/" + srcID.String() + "/clone": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, map[string]any{
				"data": AgentDefinition{ID: cloneID, Name: "Article writer"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	clone, err := client.CloneAgent(context.Background(), srcID)
	if err != nil {
		t.Fatalf("CloneAgent failed: %v", err)
	}
	if clone.ID != cloneID {
		t.Errorf("expected clone ID %s, got %s", cloneID, clone.ID)
	}
}

func TestErrorParsing(t *testing.T) {
	id := uuid.New()
	srv := mockServer(t, map[string]http.HandlerFunc{
		"DELETE /agents/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error": map[string]any{
					"code":    "FORBIDDEN",
					"message": "only the owner may delete this agent",
				},
			})
		},
		"GET /me": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"code": "NOT_FOUND", "message": "user not found"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.DeleteAgent(context.Background(), id)
	if !IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Code != "FORBIDDEN" {
		t.Errorf("expected code FORBIDDEN, got %q", apiErr.Code)
	}
	if apiErr.Message != "only the owner may delete this agent" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}

	_, err = client.Me(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestErrorParsingNonEnvelope(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /me": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Me(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", apiErr.StatusCode)
	}
}

func TestHealthWorksWithBadCredentials(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /login": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"GET /health": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": HealthResponse{Status: "ok", Version: "test", Postgres: "ok"},
			})
		},
	})
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("expected status ok, got %q", health.Status)
	}
}
