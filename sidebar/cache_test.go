package sidebar

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/ashita-ai/hinagata/sdk/go/hinagata"
)

func TestCacheColdStartFetchesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	f.seed("One", uuid.New())
	f.seed("Two", uuid.New())

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)
	cache := NewCache(NewMemoryStore(), client)

	first, err := cache.Read(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, f.listCalls)

	// Warm reads never touch the network.
	second, err := cache.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.listCalls)
}

func TestCacheColdStartFromStore(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	f.seed("Persisted", uuid.New())

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)

	store := NewMemoryStore()
	warm := NewCache(store, client)
	_, err = warm.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.listCalls)

	// A fresh cache over the same store reads the persisted mirror and
	// stays off the network.
	f.srv.Close()
	cold := NewCache(store, client)
	agents, err := cold.Read(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Persisted", agents[0].Name)
}

func TestCacheReadFailurePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	f.srv.Close()

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)
	cache := NewCache(NewMemoryStore(), client)

	_, err = cache.Read(ctx)
	require.Error(t, err)
}

func TestCacheApplyOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	a := f.seed("A", uuid.New())
	b := f.seed("B", uuid.New())

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)
	cache := NewCache(NewMemoryStore(), client)
	_, err = cache.Read(ctx)
	require.NoError(t, err)

	c := sdk.AgentDefinition{ID: uuid.New(), Name: "C"}
	require.NoError(t, cache.ApplyInsert(ctx, c))

	agents, err := cache.Read(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 3)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, c.ID},
		[]uuid.UUID{agents[0].ID, agents[1].ID, agents[2].ID},
		"insert preserves creation order")

	renamed := b
	renamed.Name = "B2"
	require.NoError(t, cache.ApplyReplace(ctx, renamed))
	agents, err = cache.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B2", agents[1].Name, "replace keeps position")

	require.NoError(t, cache.ApplyRemove(ctx, a.ID))
	agents, err = cache.Read(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, b.ID, agents[0].ID)
}

func TestCacheApplyBeforeReadKeepsPersistedMirror(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	a := f.seed("A", uuid.New())
	b := f.seed("B", uuid.New())

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)

	store := NewMemoryStore()
	warm := NewCache(store, client)
	_, err = warm.Read(ctx)
	require.NoError(t, err)

	// A fresh cache over the same store has never been read. Applying a
	// mutation to it must not overwrite the persisted two-entry mirror
	// with its empty in-memory one.
	cold := NewCache(store, client)
	c := sdk.AgentDefinition{ID: uuid.New(), Name: "C"}
	require.NoError(t, cold.ApplyInsert(ctx, c))
	require.NoError(t, cold.ApplyReplace(ctx, c))
	require.NoError(t, cold.ApplyRemove(ctx, a.ID))

	f.srv.Close()
	agents, err := NewCache(store, client).Read(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID},
		[]uuid.UUID{agents[0].ID, agents[1].ID})
}

func TestCacheDrop(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI(t)
	f.seed("Gone", uuid.New())

	client, err := sdk.NewClient(sdk.Config{BaseURL: f.srv.URL})
	require.NoError(t, err)
	store := NewMemoryStore()
	cache := NewCache(store, client)

	_, err = cache.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Drop(ctx))

	_, ok, err := store.Get(ctx, keyCachedAgents)
	require.NoError(t, err)
	assert.False(t, ok, "drop clears the persisted mirror")

	// The next read goes back to the network.
	_, err = cache.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.listCalls)
}
