package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hinagata/fieldspec"
	"github.com/ashita-ai/hinagata/internal/model"
	"github.com/ashita-ai/hinagata/internal/storage"
)

var (
	testDB     *storage.DB
	testServer *Server
	testOwner  model.User
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "hinagata",
			"POSTGRES_PASSWORD": "hinagata",
			"POSTGRES_DB":       "hinagata",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://hinagata:hinagata@%s:%s/hinagata?sslmode=disable", host, port.Port())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	testDB, err = storage.New(ctx, dsn, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	if err := testDB.RunMigrations(ctx, os.DirFS("../../migrations")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	testOwner, err = testDB.CreateUser(ctx, model.User{
		Username:     "mcp-owner",
		PasswordHash: "salt$hash",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create owner: %v\n", err)
		os.Exit(1)
	}

	testServer = New(testDB, logger, "test")

	code := m.Run()

	testDB.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

// createTestAgent stores an agent with two form fields and registers
// cleanup so tests don't leak catalog entries into each other.
func createTestAgent(t *testing.T, name string) model.AgentDefinition {
	t.Helper()
	def, err := testDB.CreateAgent(context.Background(), model.AgentDefinition{
		Name:        name,
		Description: "Writes articles",
		Prompt:      "Write an article about the topic below.",
		FormFields: []fieldspec.FieldSpec{
			{Label: "Topic", Type: fieldspec.TypeText, Placeholder: "topic", Default: "general"},
			{Label: "Tone", Type: fieldspec.TypeText, Placeholder: "tone"},
		},
		OwnerID: testOwner.ID,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testDB.DeleteAgent(context.Background(), def.ID)
	})
	return def
}

func composeRequest(args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "hinagata_compose",
			Arguments: args,
		},
	}
}

// toolText extracts the first TextContent text from a CallToolResult.
func toolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

func TestSyncPrompts(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Sync target")

	require.NoError(t, testServer.SyncPrompts(ctx))

	testServer.mu.Lock()
	name, ok := testServer.registered[def.ID]
	testServer.mu.Unlock()
	require.True(t, ok, "agent should be registered as a prompt")
	assert.Contains(t, name, "Sync target")

	// A deleted agent drops out on the next sync.
	require.NoError(t, testDB.DeleteAgent(ctx, def.ID))
	require.NoError(t, testServer.SyncPrompts(ctx))

	testServer.mu.Lock()
	_, ok = testServer.registered[def.ID]
	testServer.mu.Unlock()
	assert.False(t, ok, "deleted agent should be unregistered")
}

func TestSyncPromptsRename(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Old name")
	require.NoError(t, testServer.SyncPrompts(ctx))

	newName := "New name"
	_, err := testDB.UpdateAgent(ctx, def.ID, model.AgentPatch{Name: &newName})
	require.NoError(t, err)
	require.NoError(t, testServer.SyncPrompts(ctx))

	testServer.mu.Lock()
	name := testServer.registered[def.ID]
	testServer.mu.Unlock()
	assert.Contains(t, name, "New name")
}

func TestPromptHandler(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Prompt source")
	handler := testServer.promptHandler(def.ID)

	result, err := handler(ctx, mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{
			Name:      promptName(def),
			Arguments: map[string]string{"topic": "compilers"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Messages)

	tc, ok := result.Messages[0].Content.(mcplib.TextContent)
	require.True(t, ok, "message content should be TextContent")
	assert.Contains(t, tc.Text, "Write an article about the topic below.")
	assert.Contains(t, tc.Text, "topic: compilers", "supplied value should win")
	assert.Contains(t, tc.Text, "tone: ", "field without value or default still gets a line")
}

func TestPromptHandlerDefaults(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Prompt defaults")
	handler := testServer.promptHandler(def.ID)

	result, err := handler(ctx, mcplib.GetPromptRequest{
		Params: mcplib.GetPromptParams{Name: promptName(def)},
	})
	require.NoError(t, err)

	tc := result.Messages[0].Content.(mcplib.TextContent)
	assert.Contains(t, tc.Text, "topic: general", "default should fill in")
}

func TestPromptHandlerGone(t *testing.T) {
	ctx := context.Background()
	handler := testServer.promptHandler(uuid.New())

	_, err := handler(ctx, mcplib.GetPromptRequest{})
	require.Error(t, err)
}

func TestComposeTool(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Compose target")

	result, err := testServer.handleCompose(ctx, composeRequest(map[string]any{
		"agent_id": def.ID.String(),
		"values":   `{"topic": "compilers", "tone": "dry"}`,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := toolText(t, result)
	assert.Contains(t, text, "topic: compilers")
	assert.Contains(t, text, "tone: dry")
}

func TestComposeToolHTML(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Compose html")

	result, err := testServer.handleCompose(ctx, composeRequest(map[string]any{
		"agent_id": def.ID.String(),
		"html":     true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := toolText(t, result)
	assert.Contains(t, text, "<br>", "newlines should be encoded")
	assert.NotContains(t, text, "\n")
}

func TestComposeToolErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing agent_id", map[string]any{}, "agent_id is required"},
		{"bad uuid", map[string]any{"agent_id": "nope"}, "must be a UUID"},
		{"unknown agent", map[string]any{"agent_id": uuid.NewString()}, "not found"},
		{"bad values", map[string]any{"agent_id": uuid.NewString(), "values": "{"}, "invalid values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := testServer.handleCompose(ctx, composeRequest(tt.args))
			require.NoError(t, err)
			require.True(t, result.IsError)
			assert.Contains(t, toolText(t, result), tt.want)
		})
	}
}

func TestListAgentsTool(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Listable agent")

	result, err := testServer.handleListAgents(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "hinagata_list_agents"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := toolText(t, result)
	assert.Contains(t, text, "Listable agent")
	assert.Contains(t, text, def.ID.String())
	assert.Contains(t, text, "mcp-owner")
}

func TestAgentCatalogResource(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Catalog entry")

	contents, err := testServer.handleAgentCatalog(ctx, mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "hinagata://agents"},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	tc, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", tc.MIMEType)
	assert.Contains(t, tc.Text, "Catalog entry")
	assert.Contains(t, tc.Text, def.ID.String())
}

func TestAgentByIDResource(t *testing.T) {
	ctx := context.Background()
	def := createTestAgent(t, "Single entry")

	uri := "hinagata://agents/" + def.ID.String()
	contents, err := testServer.handleAgentByID(ctx, mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	tc := contents[0].(mcplib.TextResourceContents)
	assert.Equal(t, uri, tc.URI)
	assert.Contains(t, tc.Text, "Single entry")

	_, err = testServer.handleAgentByID(ctx, mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "hinagata://agents/not-a-uuid"},
	})
	require.Error(t, err)

	_, err = testServer.handleAgentByID(ctx, mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: "hinagata://agents/" + uuid.NewString()},
	})
	require.Error(t, err)
}
