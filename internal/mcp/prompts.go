package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/hinagata/internal/model"
	"github.com/ashita-ai/hinagata/prompt"
)

// SyncPrompts reconciles the registered MCP prompts with the agent
// definitions currently in the store. Each agent surfaces as one prompt
// whose arguments are the placeholders of its form fields. Prompts for
// deleted agents are removed; renamed agents are re-registered under the
// new name. Safe to call repeatedly.
func (s *Server) SyncPrompts(ctx context.Context) error {
	agents, err := s.db.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("mcp: sync prompts: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[uuid.UUID]bool, len(agents))
	for _, def := range agents {
		current[def.ID] = true
		name := promptName(def)
		if prev, ok := s.registered[def.ID]; ok && prev != name {
			s.mcpServer.DeletePrompts(prev)
		}
		s.mcpServer.AddPrompt(promptFromAgent(def), s.promptHandler(def.ID))
		s.registered[def.ID] = name
	}

	for id, name := range s.registered {
		if !current[id] {
			s.mcpServer.DeletePrompts(name)
			delete(s.registered, id)
		}
	}

	return nil
}

// promptName carries a short id suffix so same-named agents owned by
// different users stay distinct in the prompt list.
func promptName(def model.AgentDefinition) string {
	return fmt.Sprintf("%s [%s]", def.Name, def.ID.String()[:8])
}

// promptFromAgent builds the MCP prompt declaration for an agent. Every
// form field becomes an optional argument keyed by its placeholder; the
// field default fills in when the argument is omitted.
func promptFromAgent(def model.AgentDefinition) mcplib.Prompt {
	opts := []mcplib.PromptOption{
		mcplib.WithPromptDescription(def.Description),
	}
	for _, f := range def.FormFields {
		opts = append(opts, mcplib.WithArgument(f.Placeholder,
			mcplib.ArgumentDescription(f.Label),
		))
	}
	return mcplib.NewPrompt(promptName(def), opts...)
}

// promptHandler returns the GetPrompt handler for one agent. The
// definition is loaded fresh on every call so edits made through the
// HTTP API show up without a re-sync.
func (s *Server) promptHandler(id uuid.UUID) mcpserver.PromptHandlerFunc {
	return func(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
		def, err := s.db.GetAgent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("mcp: load agent %s: %w", id, err)
		}
		return promptResult(def, request.Params.Arguments), nil
	}
}

func promptResult(def model.AgentDefinition, args map[string]string) *mcplib.GetPromptResult {
	return &mcplib.GetPromptResult{
		Description: def.Description,
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: prompt.Compose(def.Prompt, def.FormFields, args),
				},
			},
		},
	}
}
