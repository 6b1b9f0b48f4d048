package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hinagata/internal/storage"
	"github.com/ashita-ai/hinagata/prompt"
)

func (s *Server) registerTools() {
	// hinagata_list_agents — browse the agent catalog.
	s.mcpServer.AddTool(
		mcplib.NewTool("hinagata_list_agents",
			mcplib.WithDescription(`List all stored agent definitions.

Each entry includes the agent id, its prompt name in the MCP prompt list,
and the form fields the agent expects. Use the id with hinagata_compose
to render a prompt with your own field values.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleListAgents,
	)

	// hinagata_compose — render an agent's prompt with field values.
	s.mcpServer.AddTool(
		mcplib.NewTool("hinagata_compose",
			mcplib.WithDescription(`Compose an agent's prompt with field values.

The stored prompt text is returned verbatim when the agent declares no
form fields. Otherwise each field is appended as a "placeholder: value"
line, taking the supplied value when present and the field default
otherwise.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("agent_id",
				mcplib.Description("Agent definition id (UUID)"),
				mcplib.Required(),
			),
			mcplib.WithString("values",
				mcplib.Description(`JSON object mapping field placeholders to values, e.g. {"topic": "compilers"}`),
			),
			mcplib.WithBoolean("html",
				mcplib.Description("Return the composed prompt with newlines and space runs encoded for HTML injection"),
			),
		),
		s.handleCompose,
	)
}

func (s *Server) handleListAgents(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	agents, err := s.db.ListAgents(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to list agents: %v", err)), nil
	}

	entries := make([]map[string]any, 0, len(agents))
	for _, def := range agents {
		entries = append(entries, compactAgent(def))
	}

	resultData, _ := json.MarshalIndent(map[string]any{
		"agents": entries,
		"total":  len(entries),
	}, "", "  ")

	return textResult(string(resultData)), nil
}

func (s *Server) handleCompose(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	rawID := request.GetString("agent_id", "")
	if rawID == "" {
		return errorResult("agent_id is required"), nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return errorResult("agent_id must be a UUID"), nil
	}

	values, err := parseValues(request.GetString("values", ""))
	if err != nil {
		return errorResult(fmt.Sprintf("invalid values: %v", err)), nil
	}

	def, err := s.db.GetAgent(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorResult(fmt.Sprintf("agent %s not found", id)), nil
		}
		return errorResult(fmt.Sprintf("failed to load agent: %v", err)), nil
	}

	text := prompt.Compose(def.Prompt, def.FormFields, values)
	if request.GetBool("html", false) {
		text = prompt.FormatForInjection(text)
	}

	return textResult(text), nil
}

// parseValues decodes the optional values argument into a placeholder map.
func parseValues(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("expected a JSON object of strings: %w", err)
	}
	return values, nil
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
