// Package sidebar implements the client engine for the agent catalog: an
// authenticated session, a local mirror of the catalog, per-agent form
// state, and a unidirectional render function.
//
// A Session and everything hanging off it is meant to be driven by a
// single goroutine (the UI loop). There is no internal locking; run two
// sidebars, not two goroutines on one.
package sidebar

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	sdk "github.com/ashita-ai/hinagata/sdk/go/hinagata"
)

// Session owns the token, the current user, and the catalog mirror for
// one sidebar instance. All server interaction goes through it so the
// mirror is only ever touched after a remote operation succeeded.
type Session struct {
	store  Store
	client *sdk.Client
	cache  *Cache
	user   *sdk.User
}

// NewSession creates a session over the given store and API client.
func NewSession(store Store, client *sdk.Client) *Session {
	return &Session{
		store:  store,
		client: client,
		cache:  NewCache(store, client),
	}
}

// Init restores persisted state: if a token survives in the store it is
// installed on the client and validated against /me. An invalid or
// expired token is discarded, leaving the session logged out.
func (s *Session) Init(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, keyToken)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	s.client.SetToken(token)
	user, err := s.client.Me(ctx)
	if err != nil {
		if sdk.IsUnauthorized(err) {
			s.client.ClearToken()
			return s.store.Delete(ctx, keyToken)
		}
		return fmt.Errorf("sidebar: restore session: %w", err)
	}
	s.user = user
	return nil
}

// Register creates an account. The caller still needs to Login.
func (s *Session) Register(ctx context.Context, username, password string) (*sdk.User, error) {
	return s.client.Register(ctx, username, password)
}

// Login authenticates, persists the token, and loads the current user.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, _, err := s.client.LoginAs(ctx, username, password)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyToken, token); err != nil {
		return err
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		return fmt.Errorf("sidebar: load user: %w", err)
	}
	s.user = user
	return nil
}

// Logout clears the token and the catalog mirror.
func (s *Session) Logout(ctx context.Context) error {
	s.user = nil
	s.client.ClearToken()
	if err := s.store.Delete(ctx, keyToken); err != nil {
		return err
	}
	return s.cache.Drop(ctx)
}

// User returns the authenticated user, or nil when logged out.
func (s *Session) User() *sdk.User {
	return s.user
}

// Authenticated reports whether the session holds a validated login.
func (s *Session) Authenticated() bool {
	return s.user != nil
}

// Agents returns the catalog, from the mirror when warm.
func (s *Session) Agents(ctx context.Context) ([]sdk.AgentDefinition, error) {
	return s.cache.Read(ctx)
}

// Refresh drops the mirror and re-reads the catalog from the server.
func (s *Session) Refresh(ctx context.Context) ([]sdk.AgentDefinition, error) {
	if err := s.cache.Drop(ctx); err != nil {
		return nil, err
	}
	return s.cache.Read(ctx)
}

// CreateAgent stores a new definition and mirrors it on success.
func (s *Session) CreateAgent(ctx context.Context, req sdk.CreateAgentRequest) (*sdk.AgentDefinition, error) {
	created, err := s.client.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.cache.ApplyInsert(ctx, *created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateAgent patches a definition the user owns and mirrors the result.
func (s *Session) UpdateAgent(ctx context.Context, id uuid.UUID, req sdk.UpdateAgentRequest) (*sdk.AgentDefinition, error) {
	updated, err := s.client.UpdateAgent(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.cache.ApplyReplace(ctx, *updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteAgent removes a definition the user owns and un-mirrors it.
func (s *Session) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	if err := s.client.DeleteAgent(ctx, id); err != nil {
		return err
	}
	return s.cache.ApplyRemove(ctx, id)
}

// CloneAgent copies any definition into one owned by the user.
func (s *Session) CloneAgent(ctx context.Context, id uuid.UUID) (*sdk.AgentDefinition, error) {
	clone, err := s.client.CloneAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.ApplyInsert(ctx, *clone); err != nil {
		return nil, err
	}
	return clone, nil
}
