package sidebar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	sdk "github.com/ashita-ai/hinagata/sdk/go/hinagata"
)

// Cache mirrors the server's agent catalog on the client. The mirror is
// filled on cold start and then maintained by the Apply methods, which
// must only be called after the corresponding remote operation succeeded.
// A failed remote call leaves the mirror exactly as it was.
type Cache struct {
	store  Store
	client *sdk.Client

	agents []sdk.AgentDefinition
	loaded bool
}

// NewCache creates a cache over the given store and API client.
func NewCache(store Store, client *sdk.Client) *Cache {
	return &Cache{store: store, client: client}
}

// Read returns the mirrored catalog. A warm mirror is returned without any
// network traffic; otherwise the store is consulted, and only when that is
// empty too does Read fetch from the server and persist the result.
func (c *Cache) Read(ctx context.Context) ([]sdk.AgentDefinition, error) {
	if c.loaded {
		return c.snapshot(), nil
	}

	raw, ok, err := c.store.Get(ctx, keyCachedAgents)
	if err != nil {
		return nil, err
	}
	if ok {
		var agents []sdk.AgentDefinition
		if err := json.Unmarshal([]byte(raw), &agents); err == nil {
			c.agents = agents
			c.loaded = true
			return c.snapshot(), nil
		}
		// Corrupt mirror: fall through to a fresh fetch.
	}

	agents, err := c.client.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("sidebar: fetch agents: %w", err)
	}
	c.agents = agents
	c.loaded = true
	if err := c.persist(ctx); err != nil {
		return nil, err
	}
	return c.snapshot(), nil
}

// ApplyInsert appends a definition the server just created or cloned.
// On a never-read cache this is a no-op: persisting the empty in-memory
// mirror would clobber whatever an earlier run left in the store, and the
// next cold read picks the new definition up from the server anyway.
func (c *Cache) ApplyInsert(ctx context.Context, def sdk.AgentDefinition) error {
	if !c.loaded {
		return nil
	}
	c.agents = append(c.agents, def)
	return c.persist(ctx)
}

// ApplyReplace swaps the mirrored definition after a successful update.
// Unknown ids are ignored; the next cold read restores consistency.
func (c *Cache) ApplyReplace(ctx context.Context, def sdk.AgentDefinition) error {
	if !c.loaded {
		return nil
	}
	for i := range c.agents {
		if c.agents[i].ID == def.ID {
			c.agents[i] = def
			break
		}
	}
	return c.persist(ctx)
}

// ApplyRemove drops the mirrored definition after a successful delete.
func (c *Cache) ApplyRemove(ctx context.Context, id uuid.UUID) error {
	if !c.loaded {
		return nil
	}
	kept := c.agents[:0]
	for _, def := range c.agents {
		if def.ID != id {
			kept = append(kept, def)
		}
	}
	c.agents = kept
	return c.persist(ctx)
}

// Drop clears the mirror, both in memory and in the store.
func (c *Cache) Drop(ctx context.Context) error {
	c.agents = nil
	c.loaded = false
	return c.store.Delete(ctx, keyCachedAgents)
}

func (c *Cache) persist(ctx context.Context) error {
	data, err := json.Marshal(c.agents)
	if err != nil {
		return fmt.Errorf("sidebar: marshal mirror: %w", err)
	}
	return c.store.Set(ctx, keyCachedAgents, string(data))
}

func (c *Cache) snapshot() []sdk.AgentDefinition {
	out := make([]sdk.AgentDefinition, len(c.agents))
	copy(out, c.agents)
	return out
}
