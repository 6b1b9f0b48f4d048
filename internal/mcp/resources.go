package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/ashita-ai/hinagata/internal/storage"
)

func (s *Server) registerResources() {
	// hinagata://agents — the full agent catalog.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"hinagata://agents",
			"Agent Catalog",
			mcplib.WithResourceDescription("All stored agent definitions"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentCatalog,
	)

	// hinagata://agents/{id} — a single agent definition.
	s.mcpServer.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"hinagata://agents/{id}",
			"Agent Definition",
			mcplib.WithTemplateDescription("A single agent definition with its prompt and form fields"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		s.handleAgentByID,
	)
}

func (s *Server) handleAgentCatalog(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	agents, err := s.db.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp: agent catalog: %w", err)
	}

	entries := make([]map[string]any, 0, len(agents))
	for _, def := range agents {
		entries = append(entries, compactAgent(def))
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal catalog: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "hinagata://agents",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAgentByID(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	uri := request.Params.URI
	id, err := uuid.Parse(strings.TrimPrefix(uri, "hinagata://agents/"))
	if err != nil {
		return nil, fmt.Errorf("mcp: invalid agent URI: %s", uri)
	}

	def, err := s.db.GetAgent(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("mcp: agent %s not found", id)
		}
		return nil, fmt.Errorf("mcp: load agent: %w", err)
	}

	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal agent: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
